package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"crm-intake-backend/internal/domain"
	"crm-intake-backend/pkg/apperror"
	"crm-intake-backend/pkg/logger"
	"crm-intake-backend/pkg/security"
)

const (
	minPasswordLength = 6

	generatedPasswordLength = 12
	// Look-alike characters (0/O, 1/l/I) are left out
	passwordCharset = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789!@#$%"
)

type adminUsecase struct {
	identity domain.IdentityProvider
	userRepo domain.UserRepository
	secLog   *security.SecurityLogger
}

func NewAdminUsecase(identity domain.IdentityProvider, userRepo domain.UserRepository, secLog *security.SecurityLogger) domain.AdminUsecase {
	if secLog == nil {
		secLog = security.DefaultLogger()
	}
	return &adminUsecase{
		identity: identity,
		userRepo: userRepo,
		secLog:   secLog,
	}
}

// ProvisionUser creates email/password credentials for a new operator
func (u *adminUsecase) ProvisionUser(ctx context.Context, req domain.CreateUserRequest) (*domain.ProvisionedUser, error) {
	if err := u.requireAdmin(ctx); err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperror.BadRequest("Email and password are required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, apperror.BadRequest(fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}

	created, err := u.identity.CreateUser(ctx, email, req.Password)
	if errors.Is(err, domain.ErrUserAlreadyExists) {
		return nil, apperror.Conflict("A user with this email already exists")
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:        created.ID,
		Email:     email,
		Role:      domain.RoleMember,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// The account already exists at the provider; the row is recreated on
	// first login if this insert fails.
	if err := u.userRepo.Create(ctx, user); err != nil {
		logger.Log.Warn("Failed to record provisioned user", "user_id", created.ID, "error", err)
	}

	u.secLog.LogUserProvisioned(ctx, stringFrom(ctx, domain.KeyUserID), email, requestIDFrom(ctx))

	return &domain.ProvisionedUser{
		UID:   created.ID,
		Email: email,
		Role:  user.Role,
	}, nil
}

// GeneratePassword suggests a random password for a new account
func (u *adminUsecase) GeneratePassword(ctx context.Context) (string, error) {
	if err := u.requireAdmin(ctx); err != nil {
		return "", err
	}
	password, err := RandomPassword(generatedPasswordLength)
	if err != nil {
		return "", apperror.Internal(err)
	}
	return password, nil
}

// RandomPassword returns length characters drawn uniformly from the password
// charset using crypto/rand.
func RandomPassword(length int) (string, error) {
	max := big.NewInt(int64(len(passwordCharset)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		out[i] = passwordCharset[n.Int64()]
	}
	return string(out), nil
}

func (u *adminUsecase) requireAdmin(ctx context.Context) error {
	if domain.RoleFromContext(ctx) != domain.RoleAdmin {
		return apperror.Forbidden("Admin access required")
	}
	return nil
}
