package usecase

import (
	"context"
	"time"
)

type HealthUsecase interface {
	Check(ctx context.Context) map[string]string
}

// Configurable is implemented by the external system clients
type Configurable interface {
	IsConfigured() bool
}

// Probe checks a dependency the service owns, such as the database
type Probe func(ctx context.Context) error

const probeTimeout = 2 * time.Second

type healthUsecase struct {
	integrations map[string]Configurable
	probes       map[string]Probe
}

// NewHealthUsecase reports liveness, whether each named integration has its
// credentials, and the result of each probe. Integrations are never called.
func NewHealthUsecase(integrations map[string]Configurable, probes map[string]Probe) HealthUsecase {
	return &healthUsecase{integrations: integrations, probes: probes}
}

func (u *healthUsecase) Check(ctx context.Context) map[string]string {
	status := map[string]string{
		"status": "ok",
	}
	for name, c := range u.integrations {
		if c != nil && c.IsConfigured() {
			status[name] = "configured"
		} else {
			status[name] = "not_configured"
		}
	}
	for name, probe := range u.probes {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		if err := probe(probeCtx); err != nil {
			status[name] = "unavailable"
			status["status"] = "degraded"
		} else {
			status[name] = "ok"
		}
		cancel()
	}
	return status
}
