package repository

import (
	"strings"
	"time"

	"github.com/yukikurage/task-tracker-api/internal/models"
	"gorm.io/gorm"
)

// likeEscape is portable across sqlite, mysql and postgres, unlike backslash.
const likeEscape = "!"

// TaskQuery holds the filters for listing or clearing tasks.
// Empty Priorities, Statuses or IDs mean no constraint.
type TaskQuery struct {
	Scope      models.Scope
	Priorities []models.Priority
	Statuses   []models.TaskStatus
	Search     string
	Now        time.Time
	IDs        []uint64
}

// Predicate is a SQL boolean expression with its bind arguments.
type Predicate struct {
	SQL  string
	Args []any
}

func (p Predicate) IsEmpty() bool {
	return p.SQL == ""
}

// Apply adds the predicate as a WHERE condition.
func (p Predicate) Apply(db *gorm.DB) *gorm.DB {
	if p.IsEmpty() {
		return db
	}
	return db.Where(p.SQL, p.Args...)
}

// And joins the non-empty predicates with AND.
func And(preds ...Predicate) Predicate {
	return join(" AND ", preds)
}

// Or joins the non-empty predicates with OR.
func Or(preds ...Predicate) Predicate {
	return join(" OR ", preds)
}

func join(op string, preds []Predicate) Predicate {
	parts := make([]string, 0, len(preds))
	var args []any
	for _, p := range preds {
		if p.IsEmpty() {
			continue
		}
		parts = append(parts, "("+p.SQL+")")
		args = append(args, p.Args...)
	}
	if len(parts) == 0 {
		return Predicate{}
	}
	return Predicate{SQL: strings.Join(parts, op), Args: args}
}

// ScopePredicate restricts to one personal scope or one team.
func ScopePredicate(scope models.Scope) (Predicate, error) {
	switch {
	case scope.Kind == models.ScopeTeam && scope.TeamID != 0:
		return Predicate{SQL: "tasks.team_id = ?", Args: []any{scope.TeamID}}, nil
	case scope.Kind == models.ScopePersonal && scope.UserID != 0:
		return Predicate{SQL: "tasks.team_id IS NULL AND tasks.owner_id = ?", Args: []any{scope.UserID}}, nil
	default:
		return Predicate{}, ErrMissingScope
	}
}

// PriorityPredicate is an inclusion test, empty when no priorities are given.
func PriorityPredicate(priorities []models.Priority) Predicate {
	if len(priorities) == 0 {
		return Predicate{}
	}
	values := make([]string, len(priorities))
	for i, p := range priorities {
		values[i] = string(p)
	}
	return Predicate{SQL: "tasks.priority IN ?", Args: []any{values}}
}

// StatusPredicate matches exactly the tasks models.DeriveStatus classifies as
// status at now. Date-only due dates compare against now's calendar day.
func StatusPredicate(status models.TaskStatus, now time.Time) Predicate {
	today := now.Format(models.DateLayout)
	instant := now.UTC()

	const dateOnly = "tasks.is_date_only = ? AND tasks.local_due_date IS NOT NULL"
	const dateTime = "(tasks.is_date_only = ? OR tasks.local_due_date IS NULL)"

	switch status {
	case models.StatusCompleted:
		return Predicate{SQL: "tasks.completed = ?", Args: []any{true}}
	case models.StatusPending:
		return Predicate{
			SQL: "tasks.completed = ? AND tasks.due_date IS NOT NULL AND (" +
				"(" + dateOnly + " AND tasks.local_due_date < ?) OR " +
				"(" + dateTime + " AND tasks.due_date <= ?))",
			Args: []any{false, true, today, false, instant},
		}
	case models.StatusActive:
		return Predicate{
			SQL: "tasks.completed = ? AND (tasks.due_date IS NULL OR " +
				"(" + dateOnly + " AND tasks.local_due_date >= ?) OR " +
				"(" + dateTime + " AND tasks.due_date > ?))",
			Args: []any{false, true, today, false, instant},
		}
	default:
		// unknown status matches nothing
		return Predicate{SQL: "1 = 0"}
	}
}

// StatusesPredicate ORs the per-status predicates, empty when no statuses are given.
func StatusesPredicate(statuses []models.TaskStatus, now time.Time) Predicate {
	preds := make([]Predicate, 0, len(statuses))
	for _, s := range statuses {
		preds = append(preds, StatusPredicate(s, now))
	}
	return Or(preds...)
}

// ExactTitlePredicate is a case-insensitive title equality. Both sides go
// through the store's LOWER, so case folding is whatever the driver does
// (sqlite folds ASCII only, mysql and postgres fold Unicode).
func ExactTitlePredicate(search string) Predicate {
	return Predicate{SQL: "LOWER(tasks.title) = LOWER(?)", Args: []any{search}}
}

// SubstringPredicate is a case-insensitive substring match over title and description.
func SubstringPredicate(search string) Predicate {
	pattern := "%" + escapeLike(search) + "%"
	return Predicate{
		SQL: "LOWER(tasks.title) LIKE LOWER(?) ESCAPE '" + likeEscape + "' OR " +
			"LOWER(tasks.description) LIKE LOWER(?) ESCAPE '" + likeEscape + "'",
		Args: []any{pattern, pattern},
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return r.Replace(s)
}

// IDPredicate restricts to the given task ids.
func IDPredicate(ids []uint64) Predicate {
	if len(ids) == 0 {
		return Predicate{}
	}
	return Predicate{SQL: "tasks.id IN ?", Args: []any{ids}}
}

// FilterPredicate combines scope, priority, status and ids, without search.
func (q TaskQuery) FilterPredicate() (Predicate, error) {
	scope, err := ScopePredicate(q.Scope)
	if err != nil {
		return Predicate{}, err
	}
	return And(scope, IDPredicate(q.IDs), PriorityPredicate(q.Priorities), StatusesPredicate(q.Statuses, q.Now)), nil
}

// ExistsFunc reports whether any task matches the predicate.
type ExistsFunc func(Predicate) (bool, error)

// BuildPredicate compiles the full query. With a search term, exists probes for
// exact title matches under the other filters; when any exist only those are
// returned, otherwise the search falls back to substring matching.
func (q TaskQuery) BuildPredicate(exists ExistsFunc) (Predicate, error) {
	filter, err := q.FilterPredicate()
	if err != nil {
		return Predicate{}, err
	}

	search := strings.TrimSpace(q.Search)
	if search == "" {
		return filter, nil
	}

	exact := And(filter, ExactTitlePredicate(search))
	found, err := exists(exact)
	if err != nil {
		return Predicate{}, err
	}
	if found {
		return exact, nil
	}
	return And(filter, SubstringPredicate(search)), nil
}
