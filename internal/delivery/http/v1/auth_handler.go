package v1

import (
	"net/http"

	"crm-intake-backend/internal/delivery/http/middleware"
	"crm-intake-backend/internal/delivery/http/response"
	"crm-intake-backend/internal/domain"
	"crm-intake-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authUC       domain.AuthUsecase
	secureCookie bool
}

// NewAuthHandler registers the auth routes. loginGuard runs in front of the
// login endpoint only.
func NewAuthHandler(public, protected *gin.RouterGroup, authUC domain.AuthUsecase, secureCookie bool, loginGuard gin.HandlerFunc) {
	handler := &AuthHandler{
		authUC:       authUC,
		secureCookie: secureCookie,
	}

	publicAuth := public.Group("/auth")
	{
		if loginGuard != nil {
			publicAuth.POST("/login", loginGuard, handler.Login)
		} else {
			publicAuth.POST("/login", handler.Login)
		}
		publicAuth.POST("/forgot-password", handler.ForgotPassword)
	}

	protectedAuth := protected.Group("/auth")
	{
		protectedAuth.POST("/logout", handler.Logout)
		protectedAuth.GET("/me", handler.Me)
	}
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Login godoc
// @Summary      Sign in
// @Description  Email/password sign-in. The access token is also set as the auth_token cookie.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        login  body      domain.LoginRequest  true  "Login Credentials"
// @Success      200    {object}  response.Response
// @Failure      400    {object}  response.Response
// @Failure      401    {object}  response.Response
// @Failure      429    {object}  response.Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("A valid email and password are required"))
		return
	}

	result, err := h.authUC.Login(c.Request.Context(), req, clientMeta(c))
	if err != nil {
		c.Error(err)
		return
	}

	h.setSessionCookie(c, result.Session.AccessToken, result.Session.ExpiresIn)

	response.Success(c, http.StatusOK, "Login successful", gin.H{
		"token":      result.Session.AccessToken,
		"expires_in": result.Session.ExpiresIn,
		"user":       result.User,
	})
}

// Logout godoc
// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	_ = h.authUC.Logout(c.Request.Context(), c.GetString(string(domain.KeyAccessToken)))
	h.setSessionCookie(c, "", -1)
	response.Success(c, http.StatusOK, "Logged out", nil)
}

// ForgotPassword godoc
// @Summary      Request a password reset
// @Description  Always answers the same way whether or not the account exists.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      ForgotPasswordRequest  true  "Email address"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("A valid email is required"))
		return
	}

	_ = h.authUC.ForgotPassword(c.Request.Context(), req.Email)

	response.Success(c, http.StatusOK, "If an account exists for this email, a reset link has been sent.", nil)
}

// Me godoc
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=domain.User}
// @Failure      401  {object}  response.Response
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authUC.GetCurrentUser(c.Request.Context(), c.GetString(string(domain.KeyUserID)))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "User details", user)
}

// setSessionCookie mirrors the access token into an HttpOnly cookie. A
// negative maxAge clears it.
func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AuthCookieName, token, maxAge, "/", "", h.secureCookie, true)
}

func clientMeta(c *gin.Context) domain.ClientMeta {
	return domain.ClientMeta{
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
		RequestID: c.GetString(string(domain.KeyRequestID)),
	}
}
