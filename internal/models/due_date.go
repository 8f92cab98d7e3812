package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used for local due dates.
const DateLayout = "2006-01-02"

// datetime-local input without an offset, interpreted in the caller's location
const localDateTimeLayout = "2006-01-02T15:04"

var ErrInvalidDueDate = errors.New("due date must be YYYY-MM-DD, YYYY-MM-DDTHH:MM or RFC3339")

// DueDate is a parsed due date in one of its two shapes.
type DueDate struct {
	Instant   time.Time
	LocalDate string
	DateOnly  bool
}

// ParseDueDate parses raw in the caller's location. A bare calendar date, or any
// value when dateOnly is set, becomes a date-only due date stored as the end of
// that day in the caller's location.
func ParseDueDate(raw string, loc *time.Location, dateOnly bool) (*DueDate, error) {
	raw = strings.TrimSpace(raw)
	if loc == nil {
		loc = time.UTC
	}

	if day, err := time.ParseInLocation(DateLayout, raw, loc); err == nil {
		return dateOnlyDue(day), nil
	}

	instant, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		instant, err = time.ParseInLocation(localDateTimeLayout, raw, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDueDate, raw)
		}
	}

	if dateOnly {
		return dateOnlyDue(instant.In(loc)), nil
	}
	return &DueDate{Instant: instant}, nil
}

func dateOnlyDue(t time.Time) *DueDate {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return &DueDate{
		Instant:   end,
		LocalDate: start.Format(DateLayout),
		DateOnly:  true,
	}
}
