package repository

import (
	"context"

	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/utils"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID
	FindByID(ctx context.Context, id uint64) (*models.Task, error)

	// List returns one page of tasks matching the query, newest first, and the total match count
	List(ctx context.Context, query TaskQuery, page utils.PaginationParams) ([]models.Task, int64, error)

	// MatchingIDs returns the ids of every task matching the query
	MatchingIDs(ctx context.Context, query TaskQuery) ([]uint64, error)

	// DeleteMatching deletes every task matching the query and returns the deleted tasks
	DeleteMatching(ctx context.Context, query TaskQuery) ([]models.Task, error)

	// Update saves all fields of an existing task; a missing row is gorm.ErrRecordNotFound
	Update(ctx context.Context, task *models.Task) error

	// UpdateAttachments saves only the attachment list
	UpdateAttachments(ctx context.Context, taskID uint64, attachments models.Attachments) error

	// Delete deletes a task
	Delete(ctx context.Context, id uint64) error
}

// TeamRepository defines the interface for team data access
type TeamRepository interface {
	// Create creates a team and its admin membership
	Create(ctx context.Context, team *models.Team, admin *models.TeamMember) error

	// FindByID finds a team by ID
	FindByID(ctx context.Context, id uint64) (*models.Team, error)

	// FindByInviteCode finds a team by invite code
	FindByInviteCode(ctx context.Context, code string) (*models.Team, error)

	// AddMember adds a member to a team
	AddMember(ctx context.Context, member *models.TeamMember) error

	// RemoveMember removes a member from a team
	RemoveMember(ctx context.Context, teamID, userID uint64) error

	// FindMember finds a specific team member
	FindMember(ctx context.Context, teamID, userID uint64) (*models.TeamMember, error)

	// ListMembershipsByUserID lists all teams a user is a member of
	ListMembershipsByUserID(ctx context.Context, userID uint64) ([]models.TeamMember, error)

	// ListMembers lists all members of a team
	ListMembers(ctx context.Context, teamID uint64) ([]models.TeamMember, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}
