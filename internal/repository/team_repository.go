package repository

import (
	"context"
	"fmt"

	"github.com/yukikurage/task-tracker-api/internal/models"
	"gorm.io/gorm"
)

// GormTeamRepository is a GORM implementation of TeamRepository
type GormTeamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new TeamRepository
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &GormTeamRepository{db: db}
}

// Create creates a team and its admin membership atomically
func (r *GormTeamRepository) Create(ctx context.Context, team *models.Team, admin *models.TeamMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Members").Create(team).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateTeam, err)
		}

		admin.TeamID = team.ID
		if err := tx.Omit("Team", "User").Create(admin).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateTeamMember, err)
		}

		return nil
	})
}

// FindByID finds a team by ID
func (r *GormTeamRepository) FindByID(ctx context.Context, id uint64) (*models.Team, error) {
	var team models.Team
	if err := r.db.WithContext(ctx).First(&team, id).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// FindByInviteCode finds a team by invite code
func (r *GormTeamRepository) FindByInviteCode(ctx context.Context, code string) (*models.Team, error) {
	var team models.Team
	if err := r.db.WithContext(ctx).Where("invite_code = ?", code).First(&team).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// AddMember adds a member to a team
func (r *GormTeamRepository) AddMember(ctx context.Context, member *models.TeamMember) error {
	return r.db.WithContext(ctx).Omit("Team", "User").Create(member).Error
}

// RemoveMember removes a member from a team
func (r *GormTeamRepository) RemoveMember(ctx context.Context, teamID, userID uint64) error {
	return r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Delete(&models.TeamMember{}).Error
}

// FindMember finds a specific team member
func (r *GormTeamRepository) FindMember(ctx context.Context, teamID, userID uint64) (*models.TeamMember, error) {
	var member models.TeamMember
	if err := r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembershipsByUserID lists all teams a user is a member of
func (r *GormTeamRepository) ListMembershipsByUserID(ctx context.Context, userID uint64) ([]models.TeamMember, error) {
	var memberships []models.TeamMember
	if err := r.db.WithContext(ctx).
		Preload("Team").
		Where("user_id = ?", userID).
		Order("joined_at ASC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// ListMembers lists all members of a team
func (r *GormTeamRepository) ListMembers(ctx context.Context, teamID uint64) ([]models.TeamMember, error) {
	var members []models.TeamMember
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("team_id = ?", teamID).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}
