package apperror

import (
	"errors"
	"net/http"

	"crm-intake-backend/internal/domain"
)

type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func BadRequest(message string) *AppError {
	return New(http.StatusBadRequest, message, nil)
}

func Unauthorized(message string) *AppError {
	return New(http.StatusUnauthorized, message, nil)
}

func Forbidden(message string) *AppError {
	return New(http.StatusForbidden, message, nil)
}

func NotFound(message string) *AppError {
	return New(http.StatusNotFound, message, nil)
}

func Conflict(message string) *AppError {
	return New(http.StatusConflict, message, nil)
}

func TooManyRequests(message string) *AppError {
	return New(http.StatusTooManyRequests, message, nil)
}

func ServiceUnavailable(message string, err error) *AppError {
	return New(http.StatusServiceUnavailable, message, err)
}

func BadGateway(message string, err error) *AppError {
	return New(http.StatusBadGateway, message, err)
}

func Internal(err error) *AppError {
	return New(http.StatusInternalServerError, "Internal Server Error", err)
}

// FromIntegration maps an external-system failure to the HTTP error shown to
// the caller. Only the short upstream message is exposed.
func FromIntegration(err error, fallback string) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var ie *domain.IntegrationError
	if !errors.As(err, &ie) {
		return New(http.StatusInternalServerError, fallback, err)
	}

	msg := ie.Message
	if msg == "" {
		msg = fallback
	}

	switch ie.Kind {
	case domain.KindConfiguration:
		return ServiceUnavailable(msg, err)
	case domain.KindUpstreamUnreachable, domain.KindUpstreamRejected, domain.KindUnexpectedResponse:
		return BadGateway(msg, err)
	default:
		return New(http.StatusInternalServerError, fallback, err)
	}
}
