package v1

import (
	"net/http"

	"crm-intake-backend/internal/delivery/http/response"
	"crm-intake-backend/internal/usecase"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	healthUC usecase.HealthUsecase
}

func NewHealthHandler(public *gin.RouterGroup, healthUC usecase.HealthUsecase) {
	handler := &HealthHandler{healthUC: healthUC}
	public.GET("/health", handler.Health)
}

// Health godoc
// @Summary      Liveness
// @Description  Reports which integrations are configured. Never calls them.
// @Tags         health
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	var integrations map[string]string
	if h.healthUC != nil {
		integrations = h.healthUC.Check(c.Request.Context())
	}
	response.Success(c, http.StatusOK, "System operational", gin.H{"integrations": integrations})
}
