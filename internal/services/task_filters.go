package services

import (
	"strings"
	"time"

	"github.com/yukikurage/task-tracker-api/internal/models"
)

const filterAll = "all"

// splitFilterValues accepts repeated parameters and comma-separated lists.
// It returns nil when any value is "all".
func splitFilterValues(values []string) ([]string, bool) {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if strings.EqualFold(part, filterAll) {
				return nil, true
			}
			out = append(out, part)
		}
	}
	return out, false
}

// ParsePriorities turns filter values into priorities; "none" selects tasks without one.
func ParsePriorities(values []string) ([]models.Priority, error) {
	parts, all := splitFilterValues(values)
	if all {
		return nil, nil
	}

	priorities := make([]models.Priority, 0, len(parts))
	for _, part := range parts {
		p, ok := models.ParsePriority(part)
		if !ok {
			return nil, ErrInvalidPriority
		}
		priorities = append(priorities, p)
	}
	return priorities, nil
}

func ParseStatuses(values []string) ([]models.TaskStatus, error) {
	parts, all := splitFilterValues(values)
	if all {
		return nil, nil
	}

	statuses := make([]models.TaskStatus, 0, len(parts))
	for _, part := range parts {
		s, ok := models.ParseStatus(part)
		if !ok {
			return nil, ErrInvalidStatus
		}
		statuses = append(statuses, s)
	}
	return statuses, nil
}

// ParseLocation resolves an IANA zone name, defaulting to UTC.
func ParseLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, ErrInvalidTimezone.With(err)
	}
	return loc, nil
}
