package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dateOnlyTask(t *testing.T, day string, loc *time.Location) *Task {
	t.Helper()
	due, err := ParseDueDate(day, loc, true)
	require.NoError(t, err)
	task := &Task{Title: "t"}
	task.SetDueDate(due)
	return task
}

func TestDeriveStatus_CompletedWins(t *testing.T) {
	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	task := &Task{Completed: true, DueDate: &past}

	assert.Equal(t, StatusCompleted, DeriveStatus(task, time.Now()))
}

func TestDeriveStatus_NoDueDate(t *testing.T) {
	assert.Equal(t, StatusActive, DeriveStatus(&Task{}, time.Now()))
}

func TestDeriveStatus_DateTime(t *testing.T) {
	due := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	task := &Task{DueDate: &due}

	assert.Equal(t, StatusActive, DeriveStatus(task, due.Add(-time.Second)))
	assert.Equal(t, StatusPending, DeriveStatus(task, due), "due instant equal to now is pending")
	assert.Equal(t, StatusPending, DeriveStatus(task, due.Add(time.Hour)))
}

func TestDeriveStatus_DateOnlyTodayThenTomorrow(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	task := dateOnlyTask(t, "2026-10-18", loc)

	lateToday := time.Date(2026, 10, 18, 23, 59, 59, 0, loc)
	assert.Equal(t, StatusActive, DeriveStatus(task, lateToday))

	tomorrow := time.Date(2026, 10, 19, 0, 0, 1, 0, loc)
	assert.Equal(t, StatusPending, DeriveStatus(task, tomorrow))
}

func TestDeriveStatus_DateOnlyUsesCallerCalendarDay(t *testing.T) {
	task := dateOnlyTask(t, "2026-10-18", time.UTC)

	// 2026-10-19 02:00 UTC is still the 18th in Los Angeles.
	instant := time.Date(2026, 10, 19, 2, 0, 0, 0, time.UTC)
	la, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	assert.Equal(t, StatusPending, DeriveStatus(task, instant))
	assert.Equal(t, StatusActive, DeriveStatus(task, instant.In(la)))
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus("PENDING")
	assert.True(t, ok)
	assert.Equal(t, StatusPending, s)

	_, ok = ParseStatus("all")
	assert.False(t, ok)
}

func TestParsePriority(t *testing.T) {
	p, ok := ParsePriority("high")
	assert.True(t, ok)
	assert.Equal(t, PriorityHigh, p)

	p, ok = ParsePriority("none")
	assert.True(t, ok)
	assert.Equal(t, PriorityNone, p)

	_, ok = ParsePriority("urgent")
	assert.False(t, ok)
}
