package middleware

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/models"
)

// TeamMembership looks up a user's membership in a team.
type TeamMembership interface {
	Membership(ctx context.Context, teamID, userID uint64) (*models.TeamMember, error)
}

// RequireTeamMember checks that the user belongs to the team in :id.
// Non-members get 404 so team IDs do not leak.
func RequireTeamMember(teams TeamMembership) gin.HandlerFunc {
	return func(c *gin.Context) {
		teamID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid team ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		member, err := teams.Membership(c.Request.Context(), teamID, userID)
		if err != nil {
			respondLookupError(c, err, "Team not found")
			return
		}

		c.Set(constants.ContextKeyMember, *member)
		c.Next()
	}
}

// GetTeamMember returns the membership stored by RequireTeamMember
func GetTeamMember(c *gin.Context) (models.TeamMember, bool) {
	value, exists := c.Get(constants.ContextKeyMember)
	if !exists {
		return models.TeamMember{}, false
	}
	member, ok := value.(models.TeamMember)
	return member, ok
}
