package supabase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"crm-intake-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{URL: srv.URL, AnonKey: "anon", ServiceRoleKey: "service"}, srv.Client())
}

func TestSignIn(t *testing.T) {
	t.Run("Should return the session", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth/v1/token", r.URL.Path)
			assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
			assert.Equal(t, "anon", r.Header.Get("apikey"))
			_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_in":3600,"user":{"id":"u-1","email":"jane@example.com"}}`))
		})

		session, err := client.SignIn(context.Background(), "jane@example.com", "secret")

		require.NoError(t, err)
		assert.Equal(t, "at", session.AccessToken)
		assert.Equal(t, "u-1", session.User.ID)
	})

	t.Run("Should map a 400 to invalid credentials", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
		})

		_, err := client.SignIn(context.Background(), "jane@example.com", "wrong")

		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestSignOut(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"msg":"JWT expired"}`))
	})

	assert.NoError(t, client.SignOut(context.Background(), "at"))
}

func TestResetPassword(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/recover", r.URL.Path)
		assert.Equal(t, "https://app.example.com/auth/update-password", r.URL.Query().Get("redirect_to"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	})

	assert.NoError(t, client.ResetPassword(context.Background(), "jane@example.com", "https://app.example.com/auth/update-password"))
}

func TestCreateUser(t *testing.T) {
	t.Run("Should use the service role key", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth/v1/admin/users", r.URL.Path)
			assert.Equal(t, "service", r.Header.Get("apikey"))
			assert.Equal(t, "Bearer service", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"id":"u-9","email":"new@example.com"}`))
		})

		user, err := client.CreateUser(context.Background(), "new@example.com", "secret1")

		require.NoError(t, err)
		assert.Equal(t, "u-9", user.ID)
	})

	t.Run("Should detect an existing account", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"code":422,"error_code":"email_exists","msg":"A user with this email address has already been registered"}`))
		})

		_, err := client.CreateUser(context.Background(), "new@example.com", "secret1")

		assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
	})

	t.Run("Should require the service role key", func(t *testing.T) {
		client := NewClient(Config{URL: "http://localhost", AnonKey: "anon"}, nil)

		_, err := client.CreateUser(context.Background(), "new@example.com", "secret1")

		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})
}
