package v1

import (
	"net/http"

	"crm-intake-backend/internal/delivery/http/response"
	"crm-intake-backend/internal/domain"
	"crm-intake-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	adminUC domain.AdminUsecase
}

// NewAdminHandler registers the credential provisioning routes. admin must
// already enforce the admin role.
func NewAdminHandler(admin *gin.RouterGroup, adminUC domain.AdminUsecase) {
	handler := &AdminHandler{adminUC: adminUC}

	users := admin.Group("/admin/users")
	{
		users.POST("", handler.CreateUser)
		users.GET("/password", handler.GeneratePassword)
	}
}

// CreateUser godoc
// @Summary      Provision a login
// @Description  Creates email/password credentials for a new operator with the member role
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        user  body      domain.CreateUserRequest  true  "New credentials"
// @Success      201   {object}  response.Response{data=domain.ProvisionedUser}
// @Failure      400   {object}  response.Response
// @Failure      403   {object}  response.Response
// @Failure      409   {object}  response.Response
// @Router       /admin/users [post]
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req domain.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Email and password are required"))
		return
	}

	user, err := h.adminUC.ProvisionUser(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "User created", user)
}

// GeneratePassword godoc
// @Summary      Suggest a password
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /admin/users/password [get]
func (h *AdminHandler) GeneratePassword(c *gin.Context) {
	password, err := h.adminUC.GeneratePassword(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Generated password", gin.H{"password": password})
}
