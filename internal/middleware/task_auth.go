package middleware

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/services"
)

// TaskLoader returns a task the user may see.
type TaskLoader interface {
	GetTask(ctx context.Context, taskID, userID uint64) (*models.Task, error)
}

// RequireTaskAccess loads the task in :id if the user may see it.
// Personal tasks are visible to their owner, team tasks to team members;
// everyone else gets 404.
func RequireTaskAccess(tasks TaskLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid task ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		task, err := tasks.GetTask(c.Request.Context(), taskID, userID)
		if err != nil {
			respondLookupError(c, err, "Task not found")
			return
		}

		c.Set(constants.ContextKeyTask, *task)
		c.Next()
	}
}

// GetTask returns the task stored by RequireTaskAccess
func GetTask(c *gin.Context) (models.Task, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return models.Task{}, false
	}
	task, ok := value.(models.Task)
	return task, ok
}

// respondLookupError answers 404 for classified not-found errors and aborts.
func respondLookupError(c *gin.Context, err error, notFound string) {
	if services.KindOf(err) == services.KindNotFound {
		apierrors.NotFound(c, notFound)
	} else {
		apierrors.InternalError(c, "")
	}
	c.Abort()
}
