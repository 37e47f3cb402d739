package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/identra/identra/internal/model"
)

// ErrorResponse is the structured error body returned on every failure.
type ErrorResponse struct {
	Timestamp   time.Time         `json:"timestamp"`
	Status      int               `json:"status"`
	Error       string            `json:"error"`
	Message     string            `json:"message"`
	Path        string            `json:"path"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

// AbortWithError writes a structured error body and stops the chain.
func AbortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Path:      c.Request.URL.Path,
	})
}

// handleError maps domain failures to HTTP statuses. Services never hide
// errors; this is the single place typed failures become status codes.
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrBadCredentials),
		errors.Is(err, model.ErrOwnerMismatch),
		errors.Is(err, model.ErrTokenReused),
		errors.Is(err, model.ErrTokenExpired),
		errors.Is(err, model.ErrTokenMalformed),
		errors.Is(err, model.ErrTokenSignatureInvalid),
		errors.Is(err, model.ErrTokenUnsupported):
		AbortWithError(c, http.StatusUnauthorized, PublicAuthMessage(err))
	case errors.Is(err, model.ErrUserDisabled):
		AbortWithError(c, http.StatusUnauthorized, "user is disabled")
	case errors.Is(err, model.ErrConflict):
		AbortWithError(c, http.StatusConflict, "email already exists")
	case errors.Is(err, model.ErrNotFound):
		AbortWithError(c, http.StatusNotFound, "resource not found")
	default:
		AbortWithError(c, http.StatusInternalServerError, "internal server error")
	}
}

// PublicAuthMessage distinguishes the cause without leaking more than
// necessary about whether a token was stolen or simply stale. Internal
// wrapping detail never reaches the response body.
func PublicAuthMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrTokenReused):
		return "refresh token reused"
	case errors.Is(err, model.ErrTokenExpired):
		return "token expired"
	default:
		return "invalid credentials"
	}
}

// handleBindError maps request binding failures to a 400 with per-field
// messages when the underlying cause is a validation failure.
func handleBindError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make(map[string]string, len(validationErrs))
		for _, fe := range validationErrs {
			fields[fe.Field()] = "failed validation on " + fe.Tag()
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Timestamp:   time.Now().UTC(),
			Status:      http.StatusBadRequest,
			Error:       http.StatusText(http.StatusBadRequest),
			Message:     "validation failed",
			Path:        c.Request.URL.Path,
			FieldErrors: fields,
		})
		return
	}
	AbortWithError(c, http.StatusBadRequest, "malformed request body")
}
