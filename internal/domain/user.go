package domain

import (
	"context"
	"time"
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type User struct {
	ID        string    `json:"id"` // Supabase UUID
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
}

// IdentityUser is an account as known by the identity provider.
type IdentityUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Session struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"`
	User         IdentityUser `json:"user"`
}

// IdentityProvider is the external email/password authentication service.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	ResetPassword(ctx context.Context, email, redirectTo string) error
	CreateUser(ctx context.Context, email, password string) (*IdentityUser, error)
}

// LoginGuard tracks failed sign-in attempts.
type LoginGuard interface {
	IsBlocked(ctx context.Context, email, ip string) (bool, error)
	RecordFailedAttempt(ctx context.Context, email, ip, userAgent, requestID string) (bool, int, error)
	ClearAttempts(ctx context.Context, email, ip string) error
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ClientMeta identifies the caller of an auth operation for logging and
// brute-force tracking.
type ClientMeta struct {
	IP        string
	UserAgent string
	RequestID string
}

type LoginResult struct {
	Session *Session `json:"session"`
	User    *User    `json:"user"`
}

type AuthUsecase interface {
	Login(ctx context.Context, req LoginRequest, meta ClientMeta) (*LoginResult, error)
	Logout(ctx context.Context, accessToken string) error
	ForgotPassword(ctx context.Context, email string) error
	GetCurrentUser(ctx context.Context, id string) (*User, error)
}

type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ProvisionedUser struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type AdminUsecase interface {
	// ProvisionUser creates login credentials for a new operator.
	ProvisionUser(ctx context.Context, req CreateUserRequest) (*ProvisionedUser, error)
	GeneratePassword(ctx context.Context) (string, error)
}
