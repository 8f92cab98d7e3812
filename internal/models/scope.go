package models

import "fmt"

type ScopeKind string

const (
	ScopePersonal ScopeKind = "personal"
	ScopeTeam     ScopeKind = "team"
)

// Scope is either one user's personal tasks or one team's tasks.
type Scope struct {
	Kind   ScopeKind
	UserID uint64
	TeamID uint64
}

func PersonalScope(userID uint64) Scope {
	return Scope{Kind: ScopePersonal, UserID: userID}
}

func TeamScope(teamID uint64) Scope {
	return Scope{Kind: ScopeTeam, TeamID: teamID}
}

func (s Scope) IsTeam() bool {
	return s.Kind == ScopeTeam
}

func (s Scope) String() string {
	if s.IsTeam() {
		return fmt.Sprintf("team:%d", s.TeamID)
	}
	return fmt.Sprintf("personal:%d", s.UserID)
}
