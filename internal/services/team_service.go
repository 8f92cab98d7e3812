package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/realtime"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"github.com/yukikurage/task-tracker-api/internal/utils"
	"gorm.io/gorm"
)

var errInviteCodeGeneration = errors.New("failed to generate invite code")

// RoomEvictor drops a user's live connections from a room.
type RoomEvictor interface {
	EvictUser(room string, userID uint64)
}

// TeamService provides business logic for team operations.
type TeamService struct {
	teamRepo repository.TeamRepository
	rooms    RoomEvictor
}

// NewTeamService creates a new TeamService. rooms may be nil.
func NewTeamService(teamRepo repository.TeamRepository, rooms RoomEvictor) *TeamService {
	return &TeamService{
		teamRepo: teamRepo,
		rooms:    rooms,
	}
}

// CreateTeamInput represents parameters to create a new team.
type CreateTeamInput struct {
	Name    string
	AdminID uint64
}

// CreateTeam creates a new team with its creator as admin.
func (s *TeamService) CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}

	inviteCode, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInviteCodeGeneration, err)
	}

	team := &models.Team{
		Name:       name,
		AdminID:    input.AdminID,
		InviteCode: inviteCode,
	}
	admin := &models.TeamMember{
		UserID:   input.AdminID,
		Role:     models.RoleAdmin,
		JoinedAt: time.Now(),
	}

	if err := s.teamRepo.Create(ctx, team, admin); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	return team, nil
}

// ListTeamsForUser returns the memberships of a user with their teams.
func (s *TeamService) ListTeamsForUser(ctx context.Context, userID uint64) ([]models.TeamMember, error) {
	memberships, err := s.teamRepo.ListMembershipsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return memberships, nil
}

// GetTeamForMember returns a team, its members and the caller's membership.
// Non-members get ErrTeamNotFound.
func (s *TeamService) GetTeamForMember(ctx context.Context, teamID, userID uint64) (*models.Team, []models.TeamMember, *models.TeamMember, error) {
	me, err := s.findMember(ctx, teamID, userID)
	if err != nil {
		return nil, nil, nil, err
	}

	team, err := s.teamRepo.FindByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, ErrTeamNotFound
		}
		return nil, nil, nil, fmt.Errorf("failed to find team: %w", err)
	}

	members, err := s.teamRepo.ListMembers(ctx, teamID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list team members: %w", err)
	}

	return team, members, me, nil
}

// JoinTeamByInvite adds a user to a team via invite code.
func (s *TeamService) JoinTeamByInvite(ctx context.Context, userID uint64, inviteCode string) (*models.Team, error) {
	code := strings.ToUpper(strings.TrimSpace(inviteCode))
	if code == "" {
		return nil, ErrInviteCodeRequired
	}

	team, err := s.teamRepo.FindByInviteCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team by invite code: %w", err)
	}

	if _, err := s.teamRepo.FindMember(ctx, team.ID, userID); err == nil {
		return nil, ErrAlreadyTeamMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	member := &models.TeamMember{
		TeamID:   team.ID,
		UserID:   userID,
		Role:     models.RoleMember,
		JoinedAt: time.Now(),
	}
	if err := s.teamRepo.AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to add member to team: %w", err)
	}

	return team, nil
}

// LeaveTeam removes a non-admin member from a team.
func (s *TeamService) LeaveTeam(ctx context.Context, teamID, userID uint64) error {
	member, err := s.findMember(ctx, teamID, userID)
	if err != nil {
		return err
	}
	if member.Role == models.RoleAdmin {
		return ErrAdminCannotLeave
	}

	if err := s.teamRepo.RemoveMember(ctx, teamID, userID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	if s.rooms != nil {
		s.rooms.EvictUser(realtime.TeamRoom(teamID), userID)
	}
	return nil
}

// CanJoinTeam reports whether userID belongs to an existing team.
func (s *TeamService) CanJoinTeam(ctx context.Context, userID, teamID uint64) (bool, error) {
	if _, err := s.teamRepo.FindByID(ctx, teamID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to find team: %w", err)
	}

	_, err := s.findMember(ctx, teamID, userID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrTeamNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *TeamService) findMember(ctx context.Context, teamID, userID uint64) (*models.TeamMember, error) {
	member, err := s.teamRepo.FindMember(ctx, teamID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to verify team membership: %w", err)
	}
	return member, nil
}

// Membership returns the user's membership, or ErrTeamNotFound for non-members.
func (s *TeamService) Membership(ctx context.Context, teamID, userID uint64) (*models.TeamMember, error) {
	return s.findMember(ctx, teamID, userID)
}
