package dto

import (
	"time"

	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/utils"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// AttachmentDTO represents a stored file; URL is where the file is served.
type AttachmentDTO struct {
	Path        string `json:"path"`
	DisplayName string `json:"display_name"`
	URL         string `json:"url"`
}

// TaskDTO represents a task in API responses. Status is derived for the
// caller's calendar day at response time.
type TaskDTO struct {
	ID           uint64            `json:"id"`
	OwnerID      uint64            `json:"owner_id"`
	CreatorID    uint64            `json:"creator_id"`
	TeamID       *uint64           `json:"team_id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	DueDate      *time.Time        `json:"due_date"`
	LocalDueDate *string           `json:"local_due_date"`
	IsDateOnly   bool              `json:"is_date_only"`
	Priority     models.Priority   `json:"priority"`
	Completed    bool              `json:"completed"`
	Status       models.TaskStatus `json:"status"`
	Attachments  []AttachmentDTO   `json:"attachments"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// TaskListResponse represents one page of tasks
type TaskListResponse struct {
	Tasks     []TaskDTO `json:"tasks"`
	Total     int64     `json:"total"`
	Page      int       `json:"page"`
	Limit     int       `json:"limit"`
	PageCount int       `json:"page_count"`
}

// TaskMutationResponse carries a created or updated task and any uploads
// that could not be stored.
type TaskMutationResponse struct {
	Task     TaskDTO  `json:"task"`
	Warnings []string `json:"warnings,omitempty"`
}

// ClearTasksResponse reports how many tasks a bulk clear removed
type ClearTasksResponse struct {
	Deleted int `json:"deleted"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	}
}

// AttachmentURL is the public path a stored attachment is served from
func AttachmentURL(storedPath string) string {
	return "/uploads/" + storedPath
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task, now time.Time) TaskDTO {
	attachments := make([]AttachmentDTO, len(task.Attachments))
	for i, a := range task.Attachments {
		attachments[i] = AttachmentDTO{
			Path:        a.Path,
			DisplayName: a.DisplayName,
			URL:         AttachmentURL(a.Path),
		}
	}

	return TaskDTO{
		ID:           task.ID,
		OwnerID:      task.OwnerID,
		CreatorID:    task.CreatorID,
		TeamID:       task.TeamID,
		Title:        task.Title,
		Description:  task.Description,
		DueDate:      task.DueDate,
		LocalDueDate: task.LocalDueDate,
		IsDateOnly:   task.IsDateOnly,
		Priority:     task.Priority,
		Completed:    task.Completed,
		Status:       models.DeriveStatus(&task, now),
		Attachments:  attachments,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}
}

// ToTaskListResponse converts a page of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, params utils.PaginationParams, total int64, now time.Time) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task, now)
	}

	meta := utils.NewPaginationResponse(params, total)
	return TaskListResponse{
		Tasks:     items,
		Total:     meta.Total,
		Page:      meta.Page,
		Limit:     meta.Limit,
		PageCount: meta.PageCount,
	}
}
