package services

import (
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/realtime"
)

// Broadcaster fans an event out to one room. Implementations must not block
// on slow receivers.
type Broadcaster interface {
	Emit(room, event string, payload any)
}

type TaskDeletedPayload struct {
	ID uint64 `json:"id"`
}

type TasksClearedPayload struct{}

// RoomForTask is the team room for team tasks and the owner's personal room otherwise.
func RoomForTask(task *models.Task) string {
	return RoomForScope(task.Scope())
}

func RoomForScope(scope models.Scope) string {
	if scope.IsTeam() {
		return realtime.TeamRoom(scope.TeamID)
	}
	return realtime.PersonalRoom(scope.UserID)
}

// TaskEvents announces committed task mutations. A nil broadcaster disables it.
type TaskEvents struct {
	broadcaster Broadcaster
}

func NewTaskEvents(broadcaster Broadcaster) *TaskEvents {
	return &TaskEvents{broadcaster: broadcaster}
}

func (e *TaskEvents) Added(task *models.Task) {
	e.emit(RoomForTask(task), realtime.EventTaskAdded, task)
}

func (e *TaskEvents) Updated(task *models.Task) {
	e.emit(RoomForTask(task), realtime.EventTaskUpdated, task)
}

func (e *TaskEvents) Deleted(task *models.Task) {
	e.emit(RoomForTask(task), realtime.EventTaskDeleted, TaskDeletedPayload{ID: task.ID})
}

func (e *TaskEvents) Cleared(scope models.Scope) {
	e.emit(RoomForScope(scope), realtime.EventTasksCleared, TasksClearedPayload{})
}

func (e *TaskEvents) emit(room, event string, payload any) {
	if e == nil || e.broadcaster == nil {
		return
	}
	e.broadcaster.Emit(room, event, payload)
}
