package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"crm-intake-backend/internal/delivery/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func csrfRouter() *gin.Engine {
	r := gin.New()
	r.Use(middleware.CSRFMiddleware(false, nopSecurityLogger()))
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/v1/intake/options", ok)
	r.POST("/v1/intake/contacts", ok)
	r.POST("/v1/auth/login", ok)
	return r
}

func cookieRequest(method, path string, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	return req
}

func TestCSRFMiddleware(t *testing.T) {
	session := &http.Cookie{Name: middleware.AuthCookieName, Value: "jwt"}
	csrf := &http.Cookie{Name: middleware.CSRFTokenCookieName, Value: "token-1"}

	t.Run("Should issue a readable token cookie on safe requests", func(t *testing.T) {
		w := serve(csrfRouter(), cookieRequest(http.MethodGet, "/v1/intake/options"))

		assert.Equal(t, http.StatusOK, w.Code)
		cookies := w.Result().Cookies()
		if assert.Len(t, cookies, 1) {
			assert.Equal(t, middleware.CSRFTokenCookieName, cookies[0].Name)
			assert.Len(t, cookies[0].Value, 2*middleware.CSRFTokenLength)
			assert.False(t, cookies[0].HttpOnly)
		}
	})

	t.Run("Should reject a cookie session write without the header", func(t *testing.T) {
		w := serve(csrfRouter(), cookieRequest(http.MethodPost, "/v1/intake/contacts", session, csrf))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "Missing CSRF token")
	})

	t.Run("Should reject a mismatched header", func(t *testing.T) {
		req := cookieRequest(http.MethodPost, "/v1/intake/contacts", session, csrf)
		req.Header.Set(middleware.CSRFTokenHeaderName, "token-2")

		w := serve(csrfRouter(), req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid CSRF token")
	})

	t.Run("Should accept a matching header", func(t *testing.T) {
		req := cookieRequest(http.MethodPost, "/v1/intake/contacts", session, csrf)
		req.Header.Set(middleware.CSRFTokenHeaderName, "token-1")

		w := serve(csrfRouter(), req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Should skip bearer-authenticated requests", func(t *testing.T) {
		req := cookieRequest(http.MethodPost, "/v1/intake/contacts", session)
		req.Header.Set("Authorization", "Bearer jwt")

		w := serve(csrfRouter(), req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Should skip exempt public routes", func(t *testing.T) {
		w := serve(csrfRouter(), cookieRequest(http.MethodPost, "/v1/auth/login", session))

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
