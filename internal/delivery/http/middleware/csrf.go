package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"time"

	"crm-intake-backend/internal/delivery/http/response"
	"crm-intake-backend/internal/domain"
	"crm-intake-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

const (
	CSRFTokenCookieName = "csrf_token"
	CSRFTokenHeaderName = "X-CSRF-Token"
	// 32 bytes = 64 hex chars
	CSRFTokenLength = 32
	CSRFTokenExpiry = 24 * time.Hour
)

// Public routes hit before a session cookie exists
var csrfExemptPaths = map[string]bool{
	"/v1/auth/login":           true,
	"/v1/auth/forgot-password": true,
	"/v1/health":               true,
}

func generateCSRFToken() (string, error) {
	b := make([]byte, CSRFTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// CSRFMiddleware implements the double-submit cookie pattern. Every response
// carries a readable csrf_token cookie, and mutating requests authenticated by
// the session cookie must echo it in X-CSRF-Token.
//
// Requests with an Authorization header are not checked: a cross-site form
// cannot attach one.
func CSRFMiddleware(secure bool, secLog *security.SecurityLogger) gin.HandlerFunc {
	if secLog == nil {
		secLog = security.DefaultLogger()
	}

	return func(c *gin.Context) {
		token, err := c.Cookie(CSRFTokenCookieName)
		if err != nil || token == "" {
			token, err = generateCSRFToken()
			if err != nil {
				response.Error(c, http.StatusInternalServerError, "Failed to generate security token", nil)
				c.Abort()
				return
			}
			c.SetSameSite(http.SameSiteLaxMode)
			// HttpOnly stays off so the frontend can read it back
			c.SetCookie(CSRFTokenCookieName, token, int(CSRFTokenExpiry.Seconds()), "/", "", secure, false)
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		if csrfExemptPaths[c.Request.URL.Path] || c.GetHeader("Authorization") != "" {
			c.Next()
			return
		}
		if _, err := c.Cookie(AuthCookieName); err != nil {
			// No session cookie, nothing a forged request could ride on
			c.Next()
			return
		}

		header := c.GetHeader(CSRFTokenHeaderName)
		reason := ""
		switch {
		case header == "":
			reason = "Missing CSRF token"
		case subtle.ConstantTimeCompare([]byte(header), []byte(token)) != 1:
			reason = "Invalid CSRF token"
		}
		if reason != "" {
			secLog.LogCSRFViolation(c.Request.Context(), c.ClientIP(), c.Request.UserAgent(), c.GetString(string(domain.KeyRequestID)), c.Request.URL.Path, reason)
			response.Error(c, http.StatusForbidden, reason, nil)
			c.Abort()
			return
		}

		c.Next()
	}
}
