package models

import (
	"strings"
	"time"
)

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
	PriorityNone   Priority = ""
)

// ParsePriority accepts High/Medium/Low in any case; "none" and "" map to PriorityNone.
func ParsePriority(value string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "high":
		return PriorityHigh, true
	case "medium":
		return PriorityMedium, true
	case "low":
		return PriorityLow, true
	case "", "none":
		return PriorityNone, true
	default:
		return "", false
	}
}

// Task belongs to its owner's personal scope when TeamID is nil, otherwise to that team.
type Task struct {
	ID           uint64      `gorm:"primarykey" json:"id"`
	OwnerID      uint64      `gorm:"not null;index" json:"owner_id"`
	CreatorID    uint64      `gorm:"not null" json:"creator_id"`
	TeamID       *uint64     `gorm:"index" json:"team_id"`
	Title        string      `gorm:"type:varchar(255);not null" json:"title"`
	Description  string      `gorm:"type:text" json:"description"`
	DueDate      *time.Time  `json:"due_date"`
	LocalDueDate *string     `gorm:"type:varchar(10)" json:"local_due_date"`
	IsDateOnly   bool        `gorm:"not null" json:"is_date_only"`
	Priority     Priority    `gorm:"type:varchar(10);not null" json:"priority"`
	Completed    bool        `gorm:"not null" json:"completed"`
	Attachments  Attachments `gorm:"type:text" json:"attachments"`
	CreatedAt    time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Scope returns the ownership boundary the task was created in.
func (t *Task) Scope() Scope {
	if t.TeamID != nil {
		return TeamScope(*t.TeamID)
	}
	return PersonalScope(t.OwnerID)
}

// SetDueDate replaces both due date shapes at once so the date-only invariant holds.
func (t *Task) SetDueDate(due *DueDate) {
	if due == nil {
		t.DueDate = nil
		t.LocalDueDate = nil
		t.IsDateOnly = false
		return
	}

	instant := due.Instant.UTC()
	t.DueDate = &instant
	if due.DateOnly {
		local := due.LocalDate
		t.LocalDueDate = &local
		t.IsDateOnly = true
	} else {
		t.LocalDueDate = nil
		t.IsDateOnly = false
	}
}

// FindAttachment returns the index of the attachment stored at path, or -1.
func (t *Task) FindAttachment(path string) int {
	for i, a := range t.Attachments {
		if a.Path == path {
			return i
		}
	}
	return -1
}
