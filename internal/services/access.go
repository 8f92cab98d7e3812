package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"gorm.io/gorm"
)

// taskAccess loads tasks on behalf of a user. Tasks the user may not see are
// reported as missing.
type taskAccess struct {
	tasks repository.TaskRepository
	teams repository.TeamRepository
}

func (a taskAccess) loadTask(ctx context.Context, taskID, userID uint64) (*models.Task, error) {
	task, err := a.tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if err := a.ensureScope(ctx, task.Scope(), userID); err != nil {
		if errors.Is(err, ErrTeamNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

// ensureScope checks that userID may act in scope.
func (a taskAccess) ensureScope(ctx context.Context, scope models.Scope, userID uint64) error {
	if !scope.IsTeam() {
		if scope.UserID != userID {
			return ErrTaskNotFound
		}
		return nil
	}

	if _, err := a.teams.FindMember(ctx, scope.TeamID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to verify team membership: %w", err)
	}
	return nil
}

// resolveScope returns the team scope when teamID is set, else the user's personal scope.
func (a taskAccess) resolveScope(ctx context.Context, userID uint64, teamID *uint64) (models.Scope, error) {
	if teamID == nil || *teamID == 0 {
		return models.PersonalScope(userID), nil
	}
	scope := models.TeamScope(*teamID)
	if err := a.ensureScope(ctx, scope, userID); err != nil {
		return models.Scope{}, err
	}
	return scope, nil
}
