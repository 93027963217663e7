package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"crm-intake-backend/internal/domain"
)

// Config holds the GoTrue (Supabase Auth) settings
type Config struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
	Timeout        time.Duration
}

// Client implements domain.IdentityProvider against the Supabase Auth REST API
type Client struct {
	baseURL        string
	anonKey        string
	serviceRoleKey string
	httpClient     *http.Client
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.URL, "/"),
		anonKey:        cfg.AnonKey,
		serviceRoleKey: cfg.ServiceRoleKey,
		httpClient:     httpClient,
	}
}

// IsConfigured checks that the project URL and anon key are present
func (c *Client) IsConfigured() bool {
	return c.baseURL != "" && c.anonKey != ""
}

type authError struct {
	Code             interface{} `json:"code"`
	ErrorCode        string      `json:"error_code"`
	Msg              string      `json:"msg"`
	Message          string      `json:"message"`
	Error            string      `json:"error"`
	ErrorDescription string      `json:"error_description"`
}

func (e *authError) text() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.ErrorDescription != "":
		return e.ErrorDescription
	case e.Message != "":
		return e.Message
	default:
		return e.Error
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// SignIn exchanges email and password for a session
func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	if !c.IsConfigured() {
		return nil, domain.NewConfigurationError(domain.SystemIdentity, "Authentication service not configured")
	}

	body := map[string]interface{}{
		"email":    email,
		"password": password,
	}

	var tok tokenResponse
	status, authErr, err := c.send(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", c.anonKey, "", body, &tok)
	if err != nil {
		return nil, err
	}
	if authErr != nil {
		if status == http.StatusBadRequest || status == http.StatusUnauthorized {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, domain.NewRejectedError(domain.SystemIdentity, authErr.text(), fmt.Errorf("status %d", status))
	}

	if tok.AccessToken == "" {
		return nil, domain.NewUnexpectedResponseError(domain.SystemIdentity, "Token response without access token")
	}

	return &domain.Session{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    tok.ExpiresIn,
		User:         domain.IdentityUser{ID: tok.User.ID, Email: tok.User.Email},
	}, nil
}

// SignOut revokes the session behind accessToken
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if !c.IsConfigured() {
		return domain.NewConfigurationError(domain.SystemIdentity, "Authentication service not configured")
	}

	status, authErr, err := c.send(ctx, http.MethodPost, "/auth/v1/logout", c.anonKey, accessToken, nil, nil)
	if err != nil {
		return err
	}
	// An already expired or revoked session is as good as signed out
	if authErr != nil && status != http.StatusUnauthorized && status != http.StatusNotFound {
		return domain.NewRejectedError(domain.SystemIdentity, authErr.text(), fmt.Errorf("status %d", status))
	}
	return nil
}

// ResetPassword asks the provider to email a recovery link
func (c *Client) ResetPassword(ctx context.Context, email, redirectTo string) error {
	if !c.IsConfigured() {
		return domain.NewConfigurationError(domain.SystemIdentity, "Authentication service not configured")
	}

	// /recover takes redirect_to as a query parameter
	endpoint := "/auth/v1/recover"
	if redirectTo != "" {
		q := url.Values{}
		q.Set("redirect_to", redirectTo)
		endpoint += "?" + q.Encode()
	}

	status, authErr, err := c.send(ctx, http.MethodPost, endpoint, c.anonKey, "", map[string]interface{}{"email": email}, nil)
	if err != nil {
		return err
	}
	if authErr != nil {
		return domain.NewRejectedError(domain.SystemIdentity, authErr.text(), fmt.Errorf("status %d", status))
	}
	return nil
}

// CreateUser provisions a new email/password account through the admin API
func (c *Client) CreateUser(ctx context.Context, email, password string) (*domain.IdentityUser, error) {
	if c.baseURL == "" || c.serviceRoleKey == "" {
		return nil, domain.NewConfigurationError(domain.SystemIdentity, "User provisioning not configured")
	}

	body := map[string]interface{}{
		"email":         email,
		"password":      password,
		"email_confirm": false,
	}

	var user domain.IdentityUser
	status, authErr, err := c.send(ctx, http.MethodPost, "/auth/v1/admin/users", c.serviceRoleKey, c.serviceRoleKey, body, &user)
	if err != nil {
		return nil, err
	}
	if authErr != nil {
		if isAlreadyExists(status, authErr) {
			return nil, domain.ErrUserAlreadyExists
		}
		return nil, domain.NewRejectedError(domain.SystemIdentity, authErr.text(), fmt.Errorf("status %d", status))
	}
	if user.ID == "" {
		return nil, domain.NewUnexpectedResponseError(domain.SystemIdentity, "User created without an id")
	}
	return &user, nil
}

func isAlreadyExists(status int, e *authError) bool {
	if e.ErrorCode == "email_exists" || e.ErrorCode == "user_already_exists" {
		return true
	}
	text := strings.ToLower(e.text())
	return status == http.StatusUnprocessableEntity && strings.Contains(text, "already") ||
		strings.Contains(text, "already been registered")
}

// send performs one call. A non-nil authError means the provider answered
// with an error status; err is reserved for transport and decoding failures.
func (c *Client) send(ctx context.Context, method, endpoint, apiKey, bearer string, body interface{}, out interface{}) (int, *authError, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", apiKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, domain.NewUnreachableError(domain.SystemIdentity, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, domain.NewUnreachableError(domain.SystemIdentity, err)
	}

	if resp.StatusCode >= 400 {
		var e authError
		_ = json.Unmarshal(raw, &e)
		if e.text() == "" {
			e.Msg = http.StatusText(resp.StatusCode)
		}
		return resp.StatusCode, &e, nil
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, nil, &domain.IntegrationError{
				Kind:    domain.KindUnexpectedResponse,
				System:  domain.SystemIdentity,
				Message: "Unreadable authentication response",
				Err:     err,
			}
		}
	}
	return resp.StatusCode, nil, nil
}
