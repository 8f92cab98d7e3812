package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/middleware"
	"github.com/yukikurage/task-tracker-api/internal/services"
)

type TeamHandler struct {
	teamService *services.TeamService
}

func NewTeamHandler(teamService *services.TeamService) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
	}
}

// CreateTeam creates a new team with the caller as admin
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTeamRequest struct {
		Name string `json:"name" binding:"required,max=255"`
	}

	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	team, err := h.teamService.CreateTeam(c.Request.Context(), services.CreateTeamInput{
		Name:    req.Name,
		AdminID: userID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTeamDTO(*team, true))
}

// ListTeams lists the teams the caller belongs to
func (h *TeamHandler) ListTeams(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	memberships, err := h.teamService.ListTeamsForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	teams := make([]dto.TeamWithRoleDTO, len(memberships))
	for i, m := range memberships {
		teams[i] = dto.ToTeamWithRoleDTO(m)
	}

	c.JSON(http.StatusOK, gin.H{"teams": teams})
}

// GetTeam returns a team with its members. Requires RequireTeamMember.
func (h *TeamHandler) GetTeam(c *gin.Context) {
	member, ok := middleware.GetTeamMember(c)
	if !ok {
		apierrors.InternalError(c, "Team membership not found in context")
		return
	}

	team, members, me, err := h.teamService.GetTeamForMember(c.Request.Context(), member.TeamID, member.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDetailDTO(*team, members, me.Role))
}

// JoinTeam adds the caller to the team owning the invite code
func (h *TeamHandler) JoinTeam(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type JoinTeamRequest struct {
		InviteCode string `json:"invite_code" binding:"required"`
	}

	var req JoinTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	team, err := h.teamService.JoinTeamByInvite(c.Request.Context(), userID, req.InviteCode)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDTO(*team, true))
}

// LeaveTeam removes the caller from the team. Requires RequireTeamMember.
func (h *TeamHandler) LeaveTeam(c *gin.Context) {
	member, ok := middleware.GetTeamMember(c)
	if !ok {
		apierrors.InternalError(c, "Team membership not found in context")
		return
	}

	if err := h.teamService.LeaveTeam(c.Request.Context(), member.TeamID, member.UserID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left team successfully"})
}
