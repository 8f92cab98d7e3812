package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/yukikurage/task-tracker-api/internal/models"
)

// Event names sent to clients.
const (
	EventTaskAdded    = "taskAdded"
	EventTaskUpdated  = "taskUpdated"
	EventTaskDeleted  = "taskDeleted"
	EventTasksCleared = "tasksCleared"
)

// Commands accepted from clients. The personal/team variants are older aliases.
const (
	CommandJoinRoom          = "joinRoom"
	CommandLeaveRoom         = "leaveRoom"
	CommandJoinPersonalRoom  = "joinPersonalRoom"
	CommandLeavePersonalRoom = "leavePersonalRoom"
	CommandJoinTeamRoom      = "joinTeamRoom"
	CommandLeaveTeamRoom     = "leaveTeamRoom"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidRoom    = errors.New("invalid room")
)

// PersonalRoom is the room for one user's personal tasks.
func PersonalRoom(userID uint64) string {
	return models.PersonalScope(userID).String()
}

// TeamRoom is the room for one team's tasks.
func TeamRoom(teamID uint64) string {
	return models.TeamScope(teamID).String()
}

// Command is a client-to-server message.
type Command struct {
	Type   string      `json:"type"`
	RoomID string      `json:"roomId,omitempty"`
	TeamID json.Number `json:"teamId,omitempty"`
}

// Join reports whether the command joins a room rather than leaving one.
func (c Command) Join() bool {
	switch c.Type {
	case CommandJoinRoom, CommandJoinPersonalRoom, CommandJoinTeamRoom:
		return true
	}
	return false
}

// Target resolves the room a command addresses for userID. A personal room can
// only name the caller. teamID is non-zero for team rooms.
func (c Command) Target(userID uint64) (room string, teamID uint64, err error) {
	switch c.Type {
	case CommandJoinPersonalRoom, CommandLeavePersonalRoom:
		return PersonalRoom(userID), 0, nil
	case CommandJoinTeamRoom, CommandLeaveTeamRoom:
		teamID, err = parseID(c.TeamID.String())
		if err != nil {
			return "", 0, err
		}
		return TeamRoom(teamID), teamID, nil
	case CommandJoinRoom, CommandLeaveRoom:
		return parseRoom(c.RoomID, userID)
	default:
		return "", 0, fmt.Errorf("%w: %q", ErrUnknownCommand, c.Type)
	}
}

// parseRoom accepts "personal", "personal:<self>", "team:<id>" and a bare team id.
func parseRoom(raw string, userID uint64) (string, uint64, error) {
	raw = strings.TrimSpace(raw)
	kind, id, hasID := strings.Cut(raw, ":")

	switch {
	case raw == string(models.ScopePersonal):
		return PersonalRoom(userID), 0, nil
	case kind == string(models.ScopePersonal) && hasID:
		owner, err := parseID(id)
		if err != nil || owner != userID {
			return "", 0, fmt.Errorf("%w: %q", ErrInvalidRoom, raw)
		}
		return PersonalRoom(userID), 0, nil
	case kind == string(models.ScopeTeam) && hasID:
		teamID, err := parseID(id)
		if err != nil {
			return "", 0, err
		}
		return TeamRoom(teamID), teamID, nil
	case !hasID:
		teamID, err := parseID(raw)
		if err != nil {
			return "", 0, err
		}
		return TeamRoom(teamID), teamID, nil
	default:
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidRoom, raw)
	}
}

func parseID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRoom, raw)
	}
	return id, nil
}
