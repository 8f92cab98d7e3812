package dto

import (
	"time"

	"github.com/yukikurage/task-tracker-api/internal/models"
)

// TeamDTO represents a team in API responses
type TeamDTO struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	AdminID    uint64 `json:"admin_id"`
	InviteCode string `json:"invite_code,omitempty"`
}

// TeamWithRoleDTO represents a team with the user's role
type TeamWithRoleDTO struct {
	TeamDTO
	Role models.TeamRole `json:"role"`
}

// TeamMemberDTO represents a member in a team
type TeamMemberDTO struct {
	User     UserDTO         `json:"user"`
	Role     models.TeamRole `json:"role"`
	JoinedAt time.Time       `json:"joined_at"`
}

// TeamDetailDTO represents detailed team information
type TeamDetailDTO struct {
	TeamDTO
	Members  []TeamMemberDTO `json:"members"`
	YourRole models.TeamRole `json:"your_role"`
}

// ToTeamDTO converts a Team model; the invite code is only shown to members
func ToTeamDTO(team models.Team, includeInviteCode bool) TeamDTO {
	dto := TeamDTO{
		ID:      team.ID,
		Name:    team.Name,
		AdminID: team.AdminID,
	}
	if includeInviteCode {
		dto.InviteCode = team.InviteCode
	}
	return dto
}

// ToTeamWithRoleDTO converts a membership to DTO with role
func ToTeamWithRoleDTO(member models.TeamMember) TeamWithRoleDTO {
	return TeamWithRoleDTO{
		TeamDTO: ToTeamDTO(member.Team, true),
		Role:    member.Role,
	}
}

// ToTeamMemberDTO converts a member to DTO
func ToTeamMemberDTO(member models.TeamMember) TeamMemberDTO {
	return TeamMemberDTO{
		User:     ToUserDTO(member.User),
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	}
}

// ToTeamDetailDTO converts a team with members to detailed DTO
func ToTeamDetailDTO(team models.Team, members []models.TeamMember, yourRole models.TeamRole) TeamDetailDTO {
	memberDTOs := make([]TeamMemberDTO, len(members))
	for i, member := range members {
		memberDTOs[i] = ToTeamMemberDTO(member)
	}

	return TeamDetailDTO{
		TeamDTO:  ToTeamDTO(team, true),
		Members:  memberDTOs,
		YourRole: yourRole,
	}
}
