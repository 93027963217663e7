package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"crm-intake-backend/internal/domain"
	"crm-intake-backend/pkg/apperror"
	"crm-intake-backend/pkg/logger"
	"crm-intake-backend/pkg/security"
)

// AuthConfig holds the settings the auth flows need from config.Config
type AuthConfig struct {
	// AdminEmails are promoted to the admin role when they sign in
	AdminEmails []string
	// ResetRedirectURL is where the recovery email link lands
	ResetRedirectURL string
	// ForgotPasswordMinDuration pads every forgot-password call to the same
	// length so response time does not reveal whether the account exists
	ForgotPasswordMinDuration time.Duration
}

type authUsecase struct {
	userRepo domain.UserRepository
	identity domain.IdentityProvider
	guard    domain.LoginGuard
	secLog   *security.SecurityLogger
	cfg      AuthConfig
}

// NewAuthUsecase creates the auth usecase. guard may be nil.
func NewAuthUsecase(userRepo domain.UserRepository, identity domain.IdentityProvider, guard domain.LoginGuard, secLog *security.SecurityLogger, cfg AuthConfig) domain.AuthUsecase {
	if secLog == nil {
		secLog = security.DefaultLogger()
	}
	return &authUsecase{
		userRepo: userRepo,
		identity: identity,
		guard:    guard,
		secLog:   secLog,
		cfg:      cfg,
	}
}

func (u *authUsecase) Login(ctx context.Context, req domain.LoginRequest, meta domain.ClientMeta) (*domain.LoginResult, error) {
	email := normalizeEmail(req.Email)

	if u.guard != nil {
		blocked, err := u.guard.IsBlocked(ctx, email, meta.IP)
		if err != nil {
			// Fail open, the identity provider has its own limits
			logger.Log.Warn("Login block check failed", "error", err)
		}
		if blocked {
			u.secLog.LogLoginBlocked(ctx, email, meta.IP, meta.UserAgent, meta.RequestID)
			return nil, apperror.TooManyRequests("Too many failed login attempts. Please try again later.")
		}
	}

	session, err := u.identity.SignIn(ctx, email, req.Password)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		return nil, u.loginFailed(ctx, email, meta)
	}
	if err != nil {
		return nil, err
	}

	if u.guard != nil {
		if err := u.guard.ClearAttempts(ctx, email, meta.IP); err != nil {
			logger.Log.Warn("Failed to clear login attempts", "error", err)
		}
	}

	user, err := u.syncUser(ctx, session.User)
	if err != nil {
		return nil, err
	}

	u.secLog.LogLoginSuccess(ctx, email, meta.IP, meta.UserAgent, meta.RequestID)
	return &domain.LoginResult{Session: session, User: user}, nil
}

func (u *authUsecase) loginFailed(ctx context.Context, email string, meta domain.ClientMeta) error {
	if u.guard == nil {
		u.secLog.LogLoginFailed(ctx, email, meta.IP, meta.UserAgent, meta.RequestID, "invalid_credentials")
		return apperror.Unauthorized("Invalid email or password")
	}

	blocked, _, err := u.guard.RecordFailedAttempt(ctx, email, meta.IP, meta.UserAgent, meta.RequestID)
	if err != nil {
		logger.Log.Warn("Failed to record login attempt", "error", err)
	}
	if blocked {
		return apperror.TooManyRequests("Too many failed login attempts. Please try again later.")
	}
	return apperror.Unauthorized("Invalid email or password")
}

// syncUser makes sure the signed-in account has a row in the user directory
// and that bootstrap admins carry the admin role.
func (u *authUsecase) syncUser(ctx context.Context, identity domain.IdentityUser) (*domain.User, error) {
	wantAdmin := u.isAdminEmail(identity.Email)

	existing, err := u.userRepo.GetByID(ctx, identity.ID)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, apperror.Internal(err)
	}

	if existing == nil {
		now := time.Now()
		existing = &domain.User{
			ID:        identity.ID,
			Email:     normalizeEmail(identity.Email),
			Role:      domain.RoleMember,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if wantAdmin {
			existing.Role = domain.RoleAdmin
		}
		// Create keeps the stored role when the email already exists
		if err := u.userRepo.Create(ctx, existing); err != nil {
			return nil, err
		}
	}

	if wantAdmin && existing.Role != domain.RoleAdmin {
		existing.Role = domain.RoleAdmin
		existing.UpdatedAt = time.Now()
		if err := u.userRepo.Update(ctx, existing); err != nil {
			return nil, apperror.Internal(err)
		}
	}
	return existing, nil
}

// Logout revokes the session at the identity provider. The local session is
// dropped by the caller either way, so provider failures are only logged.
func (u *authUsecase) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	if err := u.identity.SignOut(ctx, accessToken); err != nil {
		logger.Log.Warn("Identity provider sign-out failed", "system", domain.SystemIdentity, "error", err)
	}
	return nil
}

// ForgotPassword sends a recovery email when the account exists. It always
// succeeds and always takes at least ForgotPasswordMinDuration.
func (u *authUsecase) ForgotPassword(ctx context.Context, email string) error {
	start := time.Now()
	defer u.padDuration(start)

	email = normalizeEmail(email)

	if _, err := u.userRepo.GetByEmail(ctx, email); err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			logger.Log.Warn("Forgot password lookup failed", "error", err)
		}
		return nil
	}

	if err := u.identity.ResetPassword(ctx, email, u.cfg.ResetRedirectURL); err != nil {
		logger.Log.Warn("Password recovery request failed", "system", domain.SystemIdentity, "error", err)
		return nil
	}

	u.secLog.LogPasswordResetRequested(ctx, email, "", requestIDFrom(ctx))
	return nil
}

func (u *authUsecase) GetCurrentUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := u.userRepo.GetByID(ctx, id)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, apperror.NotFound("User not found")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return user, nil
}

func (u *authUsecase) isAdminEmail(email string) bool {
	email = normalizeEmail(email)
	for _, e := range u.cfg.AdminEmails {
		if normalizeEmail(e) == email {
			return true
		}
	}
	return false
}

func (u *authUsecase) padDuration(start time.Time) {
	if remaining := u.cfg.ForgotPasswordMinDuration - time.Since(start); remaining > 0 {
		time.Sleep(remaining)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// requestIDFrom reads the request id set by the RequestID middleware
func requestIDFrom(ctx context.Context) string {
	return stringFrom(ctx, domain.KeyRequestID)
}

// stringFrom reads a value the middleware stored under either the gin string
// key or the typed request context key.
func stringFrom(ctx context.Context, key domain.CtxKey) string {
	if v, ok := ctx.Value(string(key)).(string); ok {
		return v
	}
	v, _ := ctx.Value(key).(string)
	return v
}
