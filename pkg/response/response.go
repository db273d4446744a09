package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nbinstitution/lms-client-go/pkg/apperrors"
)

// Envelope is the standard response shape the client app consumes.
type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Error      interface{} `json:"error,omitempty"`
	Pagination interface{} `json:"pagination,omitempty"`
}

// Success writes a success response with optional message and data.
func Success(c *gin.Context, status int, data interface{}, message string, pagination interface{}) {
	c.JSON(status, Envelope{
		Success:    true,
		Message:    message,
		Data:       data,
		Pagination: pagination,
	})
}

// OK writes a 200 response.
func OK(c *gin.Context, data interface{}, message string) {
	Success(c, http.StatusOK, data, message, nil)
}

// Created writes a 201 response.
func Created(c *gin.Context, data interface{}, message string) {
	Success(c, http.StatusCreated, data, message, nil)
}

// Error writes an error response capturing the message.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{
		Success: false,
		Message: message,
	})
}

// WriteAppError renders the status, message and code carried by an AppError.
// Anything else is treated as an unclassified internal error. Server-side
// failures are logged with the underlying cause.
func WriteAppError(logger *slog.Logger, c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.New("Internal server error", http.StatusInternalServerError, apperrors.ErrInternal, err)
	}

	if logger != nil && appErr.StatusCode() >= http.StatusInternalServerError {
		logger.ErrorContext(c.Request.Context(), appErr.Message(),
			slog.Int("status", appErr.StatusCode()),
			slog.String("error", appErr.Error()),
		)
	}

	c.JSON(appErr.StatusCode(), Envelope{
		Success: false,
		Message: appErr.Message(),
		Error:   appErr.Code(),
	})
}

// ErrorWithLog writes an error response and logs the underlying error.
func ErrorWithLog(logger *slog.Logger, c *gin.Context, status int, message string, err error) {
	if logger != nil && err != nil {
		logger.ErrorContext(c.Request.Context(), message,
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
	}
	Error(c, status, message)
}
