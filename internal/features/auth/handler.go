package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nbinstitution/lms-client-go/internal/features/user"
	"github.com/nbinstitution/lms-client-go/pkg/apperrors"
	"github.com/nbinstitution/lms-client-go/pkg/metrics"
	"github.com/nbinstitution/lms-client-go/pkg/response"
)

// Handler processes auth HTTP requests.
type Handler struct {
	manager *Manager
	logger  *slog.Logger
}

// NewHandler constructs an auth handler instance.
func NewHandler(manager *Manager, logger *slog.Logger) *Handler {
	return &Handler{manager: manager, logger: logger}
}

// Login authenticates the user and establishes the device session.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid login payload", err)
		return
	}

	session, err := h.manager.Login(c.Request.Context(), req.Email, req.Password)
	metrics.ObserveOperation("login", err)
	if err != nil {
		h.writeAuthError(c, err)
		return
	}

	response.OK(c, session, "Welcome back, "+session.Name+"!")
}

// Register creates a new account and establishes a session for it.
func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid register payload", err)
		return
	}

	session, err := h.manager.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	metrics.ObserveOperation("register", err)
	if err != nil {
		h.writeAuthError(c, err)
		return
	}

	response.Created(c, session, "Registration successful!")
}

// Logout clears the active session. Always succeeds.
func (h *Handler) Logout(c *gin.Context) {
	err := h.manager.Logout(c.Request.Context())
	metrics.ObserveOperation("logout", err)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to clear session", err)
		return
	}
	response.OK(c, nil, "You have been logged out")
}

// Session returns the active session view the navigation surface gates on.
func (h *Handler) Session(c *gin.Context) {
	session, active := h.manager.Current()
	response.OK(c, gin.H{
		"session": session,
		"active":  active,
		"isAdmin": h.manager.IsAdmin(),
	}, "")
}

// writeAuthError classifies manager sentinels into transport errors and
// renders them.
func (h *Handler) writeAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		err = apperrors.Wrap(err, err.Error(), http.StatusUnauthorized, apperrors.ErrUnauthorized)
	case errors.Is(err, ErrEmailExists):
		err = apperrors.Wrap(err, err.Error(), http.StatusConflict, apperrors.ErrConflict)
	case errors.Is(err, ErrMissingFields), errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrWeakPassword):
		err = apperrors.Wrap(err, err.Error(), http.StatusBadRequest, apperrors.ErrValidation)
	case errors.Is(err, user.ErrDirectoryMissing):
		err = apperrors.Wrap(err, "user directory unavailable", http.StatusInternalServerError, apperrors.ErrInternal)
	default:
		err = apperrors.Wrap(err, "authentication failed", http.StatusInternalServerError, apperrors.ErrInternal)
	}
	response.WriteAppError(h.logger, c, err)
}
