package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yukikurage/task-tracker-api/internal/constants"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"github.com/yukikurage/task-tracker-api/internal/utils"
	"gorm.io/gorm"
)

// TaskService handles task business logic
type TaskService struct {
	access      taskAccess
	tasks       repository.TaskRepository
	attachments *AttachmentService
	events      *TaskEvents
	aiService   *AIService
	logger      *slog.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(
	tasks repository.TaskRepository,
	teams repository.TeamRepository,
	attachments *AttachmentService,
	events *TaskEvents,
	aiService *AIService,
	logger *slog.Logger,
) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{
		access:      taskAccess{tasks: tasks, teams: teams},
		tasks:       tasks,
		attachments: attachments,
		events:      events,
		aiService:   aiService,
		logger:      logger.With("component", "tasks"),
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	UserID     uint64
	TeamID     *uint64
	Priorities []models.Priority
	Statuses   []models.TaskStatus
	Search     string
	Now        time.Time
	Page       utils.PaginationParams
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	UserID      uint64
	TeamID      *uint64
	Title       string
	Description string
	DueDate     string
	DateOnly    bool
	Priority    string
	Location    *time.Location
	Uploads     []Upload
}

// UpdateTaskInput holds a partial update; nil fields are left untouched.
// An empty DueDate clears the due date.
type UpdateTaskInput struct {
	TaskID      uint64
	UserID      uint64
	Title       *string
	Description *string
	DueDate     *string
	DateOnly    *bool
	Priority    *string
	Completed   *bool
	Location    *time.Location
	Uploads     []Upload
}

// ClearTasksInput selects the tasks a bulk clear deletes
type ClearTasksInput struct {
	UserID     uint64
	TeamID     *uint64
	Priorities []models.Priority
	Statuses   []models.TaskStatus
	Now        time.Time
}

// ListTasks returns one page of the tasks in the requested scope
func (s *TaskService) ListTasks(ctx context.Context, input ListTasksInput) ([]models.Task, int64, error) {
	scope, err := s.access.resolveScope(ctx, input.UserID, input.TeamID)
	if err != nil {
		return nil, 0, err
	}

	query := repository.TaskQuery{
		Scope:      scope,
		Priorities: input.Priorities,
		Statuses:   input.Statuses,
		Search:     input.Search,
		Now:        input.Now,
	}

	tasks, total, err := s.tasks.List(ctx, query, input.Page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task the user can see
func (s *TaskService) GetTask(ctx context.Context, taskID, userID uint64) (*models.Task, error) {
	return s.access.loadTask(ctx, taskID, userID)
}

// CreateTask validates the input, stores uploads and creates the task.
// Uploads that fail to store are reported as warnings.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, []string, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, nil, ErrTitleRequired
	}

	priority, ok := models.ParsePriority(input.Priority)
	if !ok {
		return nil, nil, ErrInvalidPriority
	}

	var due *models.DueDate
	if strings.TrimSpace(input.DueDate) != "" {
		parsed, err := models.ParseDueDate(input.DueDate, input.Location, input.DateOnly)
		if err != nil {
			return nil, nil, ErrInvalidDueDate.With(err)
		}
		due = parsed
	}

	if err := s.attachments.CheckUploadCount(len(input.Uploads)); err != nil {
		return nil, nil, err
	}

	scope, err := s.access.resolveScope(ctx, input.UserID, input.TeamID)
	if err != nil {
		return nil, nil, err
	}

	saved, warnings := s.attachments.SaveUploads(ctx, input.Uploads)

	task := &models.Task{
		OwnerID:     input.UserID,
		CreatorID:   input.UserID,
		Title:       title,
		Description: input.Description,
		Priority:    priority,
		Attachments: saved,
	}
	if scope.IsTeam() {
		teamID := scope.TeamID
		task.TeamID = &teamID
	}
	task.SetDueDate(due)

	if err := s.tasks.Create(ctx, task); err != nil {
		s.attachments.Discard(ctx, saved, "task record not created")
		return nil, nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.events.Added(task)
	return task, warnings, nil
}

// UpdateTask applies a partial update and appends any uploads
func (s *TaskService) UpdateTask(ctx context.Context, input UpdateTaskInput) (*models.Task, []string, error) {
	var title string
	if input.Title != nil {
		title = strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, nil, ErrTitleEmpty
		}
	}

	var priority models.Priority
	if input.Priority != nil {
		p, ok := models.ParsePriority(*input.Priority)
		if !ok {
			return nil, nil, ErrInvalidPriority
		}
		priority = p
	}

	var due *models.DueDate
	clearDue := false
	if input.DueDate != nil {
		if strings.TrimSpace(*input.DueDate) == "" {
			clearDue = true
		} else {
			dateOnly := input.DateOnly != nil && *input.DateOnly
			parsed, err := models.ParseDueDate(*input.DueDate, input.Location, dateOnly)
			if err != nil {
				return nil, nil, ErrInvalidDueDate.With(err)
			}
			due = parsed
		}
	}

	if err := s.attachments.CheckUploadCount(len(input.Uploads)); err != nil {
		return nil, nil, err
	}

	unlock := s.attachments.lockTask(input.TaskID)
	defer unlock()

	task, err := s.access.loadTask(ctx, input.TaskID, input.UserID)
	if err != nil {
		return nil, nil, err
	}

	if input.Title != nil {
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Priority != nil {
		task.Priority = priority
	}
	if input.Completed != nil {
		task.Completed = *input.Completed
	}
	switch {
	case clearDue:
		task.SetDueDate(nil)
	case due != nil:
		task.SetDueDate(due)
	case input.DateOnly != nil:
		if err := switchDueDateShape(task, *input.DateOnly, input.Location); err != nil {
			return nil, nil, err
		}
	}

	saved, warnings := s.attachments.SaveUploads(ctx, input.Uploads)
	task.Attachments = append(task.Attachments, saved...)

	if err := s.tasks.Update(ctx, task); err != nil {
		s.attachments.Discard(ctx, saved, "task record not updated")
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrTaskNotFound
		}
		return nil, nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.events.Updated(task)
	return task, warnings, nil
}

// switchDueDateShape converts an existing due date between the date-only and
// date-time shapes without changing its day.
func switchDueDateShape(task *models.Task, dateOnly bool, loc *time.Location) error {
	if task.DueDate == nil {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}

	if !dateOnly {
		if task.IsDateOnly {
			task.SetDueDate(&models.DueDate{Instant: *task.DueDate})
		}
		return nil
	}
	if task.HasDateOnlyDue() {
		return nil
	}

	due, err := models.ParseDueDate(task.DueDate.In(loc).Format(models.DateLayout), loc, true)
	if err != nil {
		return ErrInvalidDueDate.With(err)
	}
	task.SetDueDate(due)
	return nil
}

// DeleteTask deletes a task and then its attachment files
func (s *TaskService) DeleteTask(ctx context.Context, taskID, userID uint64) error {
	unlock := s.attachments.lockTask(taskID)
	defer unlock()

	task, err := s.access.loadTask(ctx, taskID, userID)
	if err != nil {
		return err
	}

	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.attachments.RemoveFiles(ctx, task.Attachments)
	s.events.Deleted(task)
	return nil
}

// ClearTasks deletes every task in the scope matching the filters and returns how many went
func (s *TaskService) ClearTasks(ctx context.Context, input ClearTasksInput) (int, error) {
	scope, err := s.access.resolveScope(ctx, input.UserID, input.TeamID)
	if err != nil {
		return 0, err
	}

	query := repository.TaskQuery{
		Scope:      scope,
		Priorities: input.Priorities,
		Statuses:   input.Statuses,
		Now:        input.Now,
	}
	ids, err := s.tasks.MatchingIDs(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to clear tasks: %w", err)
	}

	var deleted []models.Task
	if len(ids) > 0 {
		// re-checked under the locks, an update in between may have unmatched a task
		unlock := s.attachments.lockTasks(ids)
		defer unlock()

		query.IDs = ids
		deleted, err = s.tasks.DeleteMatching(ctx, query)
		if err != nil {
			return 0, fmt.Errorf("failed to clear tasks: %w", err)
		}
	}

	for _, task := range deleted {
		s.attachments.RemoveFiles(ctx, task.Attachments)
	}

	s.logger.Info("tasks cleared", "scope", scope.String(), "count", len(deleted))
	s.events.Cleared(scope)
	return len(deleted), nil
}

// GenerateTasksInput represents input for AI task generation
type GenerateTasksInput struct {
	Text     string
	Location *time.Location
}

// GenerateTasks uses AI to draft tasks from text. Nothing is saved.
func (s *TaskService) GenerateTasks(ctx context.Context, input GenerateTasksInput) ([]GeneratedTask, error) {
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}

	loc := input.Location
	if loc == nil {
		loc = time.UTC
	}

	aiTasks, err := s.aiService.GenerateTasksFromText(ctx, input.Text, time.Now().In(loc))
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		aiTasks = aiTasks[:constants.MaxAIGeneratedTasks]
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	cutoff := time.Now().Add(-24 * time.Hour)
	for _, aiTask := range aiTasks {
		aiTask.Title = strings.TrimSpace(aiTask.Title)
		if aiTask.Title == "" {
			continue
		}

		if p, ok := models.ParsePriority(aiTask.Priority); ok {
			aiTask.Priority = string(p)
		} else {
			aiTask.Priority = string(models.PriorityNone)
		}

		if aiTask.DueDate != nil {
			due, err := models.ParseDueDate(*aiTask.DueDate, loc, false)
			if err != nil || due.Instant.Before(cutoff) {
				aiTask.DueDate = nil
				aiTask.DateOnly = false
			} else {
				aiTask.DateOnly = due.DateOnly
			}
		}

		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}
