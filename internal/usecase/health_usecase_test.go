package usecase_test

import (
	"context"
	"errors"
	"testing"

	"crm-intake-backend/internal/usecase"

	"github.com/stretchr/testify/assert"
)

type staticConfigurable bool

func (s staticConfigurable) IsConfigured() bool { return bool(s) }

func TestHealthCheck(t *testing.T) {
	uc := usecase.NewHealthUsecase(
		map[string]usecase.Configurable{
			"monday": staticConfigurable(true),
			"resend": staticConfigurable(false),
		},
		map[string]usecase.Probe{
			"database": func(ctx context.Context) error { return nil },
			"redis":    func(ctx context.Context) error { return errors.New("down") },
		},
	)

	status := uc.Check(context.Background())

	assert.Equal(t, map[string]string{
		"status":   "degraded",
		"monday":   "configured",
		"resend":   "not_configured",
		"database": "ok",
		"redis":    "unavailable",
	}, status)
}
