package handlers

import (
	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/middleware"
	"github.com/yukikurage/task-tracker-api/internal/realtime"
)

type RealtimeHandler struct {
	server *realtime.Server
}

func NewRealtimeHandler(server *realtime.Server) *RealtimeHandler {
	return &RealtimeHandler{server: server}
}

// Connect upgrades to a websocket for the authenticated user. Clients choose
// rooms with join/leave commands after connecting.
func (h *RealtimeHandler) Connect(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	h.server.Serve(c.Writer, c.Request, userID)
}
