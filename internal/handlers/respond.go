package handlers

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/services"
)

// respondError maps a service error onto the API error body.
// Unclassified errors are logged and hidden behind a generic 500.
func respondError(c *gin.Context, err error) {
	message := services.MessageOf(err)

	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c, message)
		return
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
		return
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "AI service is not configured. Set OPENAI_API_KEY to enable drafts.")
		return
	}

	switch services.KindOf(err) {
	case services.KindValidation:
		apierrors.BadRequest(c, message)
	case services.KindNotFound:
		apierrors.NotFound(c, message)
	case services.KindConflict:
		apierrors.Conflict(c, message)
	case services.KindAuth:
		apierrors.Unauthorized(c, message)
	case services.KindFilesystem:
		slog.ErrorContext(c.Request.Context(), "filesystem error", "path", c.FullPath(), "error", err)
		apierrors.Filesystem(c, message)
	default:
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		apierrors.InternalError(c, "")
	}
}
