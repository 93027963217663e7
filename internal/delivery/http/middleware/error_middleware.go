package middleware

import (
	"errors"
	"net/http"

	"crm-intake-backend/internal/delivery/http/response"
	"crm-intake-backend/internal/domain"
	"crm-intake-backend/pkg/apperror"
	"crm-intake-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

const genericErrorMessage = "An unexpected error occurred. Please try again later."

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		requestID := c.GetString(string(domain.KeyRequestID))

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Code >= http.StatusInternalServerError {
				logger.Log.Error("Request failed", "request_id", requestID, "path", c.FullPath(), "status", appErr.Code, "error", err)
			}
			response.Error(c, appErr.Code, appErr.Message, nil)
			return
		}

		// External system failures expose only their short message
		if kind := domain.KindOf(err); kind != "" {
			mapped := apperror.FromIntegration(err, genericErrorMessage)
			logger.Log.Error("Integration failure",
				"request_id", requestID,
				"path", c.FullPath(),
				"kind", kind,
				"status", mapped.Code,
				"error", err,
			)
			response.Error(c, mapped.Code, mapped.Message, gin.H{"kind": kind})
			return
		}

		// Never expose internal error details to clients
		logger.Log.Error("Internal server error", "request_id", requestID, "path", c.FullPath(), "error", err)
		response.Error(c, http.StatusInternalServerError, genericErrorMessage, nil)
	}
}
