package models

import (
	"strings"
	"time"
)

// TaskStatus is derived from completion and due date, never stored.
type TaskStatus string

const (
	StatusActive    TaskStatus = "Active"
	StatusPending   TaskStatus = "Pending"
	StatusCompleted TaskStatus = "Completed"
)

// ParseStatus accepts active/pending/completed in any case.
func ParseStatus(value string) (TaskStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "active":
		return StatusActive, true
	case "pending":
		return StatusPending, true
	case "completed":
		return StatusCompleted, true
	default:
		return "", false
	}
}

// HasDateOnlyDue reports whether the task's due date compares by calendar day.
func (t *Task) HasDateOnlyDue() bool {
	return t.IsDateOnly && t.LocalDueDate != nil
}

// DeriveStatus classifies a task relative to now. Date-only due dates compare
// against now's calendar day in now's location, so the caller decides which
// day "today" is.
//
// repository.StatusPredicate must stay equivalent to this function.
func DeriveStatus(task *Task, now time.Time) TaskStatus {
	if task.Completed {
		return StatusCompleted
	}
	if task.DueDate == nil {
		return StatusActive
	}

	if task.HasDateOnlyDue() {
		if *task.LocalDueDate < now.Format(DateLayout) {
			return StatusPending
		}
		return StatusActive
	}

	if !task.DueDate.After(now) {
		return StatusPending
	}
	return StatusActive
}
