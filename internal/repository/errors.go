package repository

import "errors"

var (
	// ErrMissingScope is returned when a task query has no personal or team scope
	ErrMissingScope = errors.New("task query requires a personal or team scope")

	// ErrCreateTeam is returned when creating a team fails inside its transaction
	ErrCreateTeam = errors.New("team repository: create team failed")

	// ErrCreateTeamMember is returned when creating the admin membership fails
	ErrCreateTeamMember = errors.New("team repository: create team member failed")
)
