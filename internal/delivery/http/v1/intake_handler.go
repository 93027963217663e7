package v1

import (
	"net/http"

	"crm-intake-backend/internal/delivery/http/response"
	"crm-intake-backend/internal/domain"
	"crm-intake-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

const msgPartialEnrollment = "Contact saved, but some segment enrollments failed"

type IntakeHandler struct {
	intakeUC  domain.IntakeUsecase
	catalogUC domain.CatalogUsecase
}

// NewIntakeHandler registers the intake routes. All of them need a session.
func NewIntakeHandler(protected *gin.RouterGroup, intakeUC domain.IntakeUsecase, catalogUC domain.CatalogUsecase) {
	handler := &IntakeHandler{
		intakeUC:  intakeUC,
		catalogUC: catalogUC,
	}

	intake := protected.Group("/intake")
	{
		intake.GET("/options", handler.GetOptions)
		intake.GET("/options/board", handler.GetBoardOptions)
		intake.GET("/options/segments", handler.GetSegmentOptions)
		intake.POST("/contacts", handler.SubmitContact)
	}
}

type optionSource struct {
	Data  interface{} `json:"data"`
	Error string      `json:"error,omitempty"`
}

// GetOptions godoc
// @Summary      Intake form options
// @Description  Board dropdown options and messaging segments. Each source fails independently.
// @Tags         intake
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Router       /intake/options [get]
func (h *IntakeHandler) GetOptions(c *gin.Context) {
	catalog := h.catalogUC.FetchCatalog(c.Request.Context())

	board := optionSource{Data: catalog.Board}
	if catalog.BoardErr != nil {
		board.Error = apperror.FromIntegration(catalog.BoardErr, "Failed to load board options").Message
	}
	segments := optionSource{Data: catalog.Segments}
	if catalog.SegmentsErr != nil {
		segments.Error = apperror.FromIntegration(catalog.SegmentsErr, "Failed to load segments").Message
	}

	response.Success(c, http.StatusOK, "Intake options", gin.H{
		"board":    board,
		"segments": segments,
	})
}

// GetBoardOptions godoc
// @Summary      Board dropdown options
// @Tags         intake
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=domain.BoardOptions}
// @Failure      502  {object}  response.Response
// @Failure      503  {object}  response.Response
// @Router       /intake/options/board [get]
func (h *IntakeHandler) GetBoardOptions(c *gin.Context) {
	opts, err := h.catalogUC.FetchBoardOptions(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Board options", opts)
}

// GetSegmentOptions godoc
// @Summary      Messaging segments
// @Tags         intake
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]domain.SegmentOption}
// @Failure      502  {object}  response.Response
// @Failure      503  {object}  response.Response
// @Router       /intake/options/segments [get]
func (h *IntakeHandler) GetSegmentOptions(c *gin.Context) {
	segments, err := h.catalogUC.FetchSegmentOptions(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Segments", segments)
}

// SubmitContact godoc
// @Summary      Submit an intake contact
// @Description  Creates the board item, then the messaging contact and its segment enrollments.
// @Description  A failed submission still returns the submission result in data.
// @Tags         intake
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        contact  body      domain.ContactSubmission  true  "Intake form"
// @Success      201      {object}  response.Response{data=domain.SubmissionResult}
// @Success      200      {object}  response.Response{data=domain.SubmissionResult}  "Saved with segment failures"
// @Failure      400      {object}  response.Response
// @Failure      502      {object}  response.Response{data=domain.SubmissionResult}
// @Failure      503      {object}  response.Response
// @Router       /intake/contacts [post]
func (h *IntakeHandler) SubmitContact(c *gin.Context) {
	var sub domain.ContactSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	result, err := h.intakeUC.Submit(c.Request.Context(), &sub)
	if err != nil {
		c.Error(err)
		return
	}

	switch {
	case !result.Success:
		status := apperror.FromIntegration(result.Err, result.ErrorMessage).Code
		response.Result(c, status, false, result.ErrorMessage, result)
	case len(result.SegmentFailures) > 0:
		response.Result(c, http.StatusOK, true, msgPartialEnrollment, result)
	default:
		response.Success(c, http.StatusCreated, "Contact created", result)
	}
}
