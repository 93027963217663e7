package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"crm-intake-backend/internal/delivery/http/response"
	"crm-intake-backend/internal/domain"
	"crm-intake-backend/pkg/apperror"
	"crm-intake-backend/pkg/auth"
	"crm-intake-backend/pkg/logger"
	"crm-intake-backend/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthCookieName holds the session access token set at login
const AuthCookieName = "auth_token"

// AuthMiddleware verifies the session token from the Authorization header or
// the auth cookie. HS256 tokens are checked against jwtSecret, RS256 tokens
// against the JWKS provider. The role always comes from the user directory.
func AuthMiddleware(jwksProvider *auth.Provider, jwtSecret string, authUC domain.AuthUsecase, secLog *security.SecurityLogger) gin.HandlerFunc {
	if secLog == nil {
		secLog = security.DefaultLogger()
	}

	keyFunc := func(token *jwt.Token) (interface{}, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodHMAC:
			if jwtSecret == "" {
				return nil, fmt.Errorf("HS256 token received but SUPABASE_JWT_SECRET is not configured")
			}
			return []byte(jwtSecret), nil
		case *jwt.SigningMethodRSA:
			if jwksProvider == nil {
				return nil, fmt.Errorf("RS256 token received but no JWKS provider is configured")
			}
			return jwksProvider.KeyFunc(token)
		default:
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
	}

	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			response.Error(c, http.StatusUnauthorized, "Authorization header or auth_token cookie required", nil)
			c.Abort()
			return
		}

		token, err := jwt.Parse(tokenString, keyFunc)
		if err != nil || !token.Valid {
			logger.Log.Debug("Token validation failed", "error", err)
			secLog.LogUnauthorizedAccess(c.Request.Context(), "", c.ClientIP(), c.GetString(string(domain.KeyRequestID)), c.FullPath(), "invalid_token")
			response.Error(c, http.StatusUnauthorized, "Invalid or expired session", nil)
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "Invalid claims", nil)
			c.Abort()
			return
		}

		sub, _ := claims["sub"].(string)
		email, _ := claims["email"].(string)

		// The JWT role claim is always "authenticated", so the directory decides
		user, err := authUC.GetCurrentUser(c.Request.Context(), sub)
		if err != nil {
			if !isNotFound(err) {
				logger.Log.Error("Failed to load user for session", "user_id", sub, "error", err)
			}
			response.Error(c, http.StatusUnauthorized, "User not found", nil)
			c.Abort()
			return
		}

		role := user.Role
		if role == "" {
			role = domain.RoleMember
		}

		c.Set(string(domain.KeyUserID), sub)
		c.Set(string(domain.KeyUserEmail), email)
		c.Set(string(domain.KeyUserRole), role)
		c.Set(string(domain.KeyAccessToken), tokenString)

		ctx := context.WithValue(c.Request.Context(), domain.KeyUserID, sub)
		ctx = context.WithValue(ctx, domain.KeyUserEmail, email)
		ctx = context.WithValue(ctx, domain.KeyUserRole, role)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// AdminOnly rejects callers without the admin role. It must run after
// AuthMiddleware.
func AdminOnly(secLog *security.SecurityLogger) gin.HandlerFunc {
	if secLog == nil {
		secLog = security.DefaultLogger()
	}
	return func(c *gin.Context) {
		if c.GetString(string(domain.KeyUserRole)) != domain.RoleAdmin {
			secLog.LogUnauthorizedAccess(
				c.Request.Context(),
				c.GetString(string(domain.KeyUserID)),
				c.ClientIP(),
				c.GetString(string(domain.KeyRequestID)),
				c.FullPath(),
				"admin_required",
			)
			response.Error(c, http.StatusForbidden, "Admin access required", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := c.Cookie(AuthCookieName); err == nil {
		return cookie
	}
	return ""
}

func isNotFound(err error) bool {
	if errors.Is(err, domain.ErrUserNotFound) {
		return true
	}
	var appErr *apperror.AppError
	return errors.As(err, &appErr) && appErr.Code == http.StatusNotFound
}
