package models

import (
	"fmt"
	"strings"
)

// Interval is how often a recurring expense repeats.
type Interval string

const (
	IntervalDaily   Interval = "daily"
	IntervalWeekly  Interval = "weekly"
	IntervalMonthly Interval = "monthly"
	IntervalYearly  Interval = "yearly"
)

// ParseInterval accepts the lower- or upper-case name of an interval.
func ParseInterval(s string) (Interval, error) {
	switch i := Interval(strings.ToLower(strings.TrimSpace(s))); i {
	case IntervalDaily, IntervalWeekly, IntervalMonthly, IntervalYearly:
		return i, nil
	default:
		return "", fmt.Errorf("%w: unknown interval %q", ErrInvalidRecurrence, s)
	}
}

// Recurrence turns an expense into a template that is copied every Interval.
type Recurrence struct {
	// Interval is the repeat period.
	Interval Interval

	// NextDueAt is the Unix timestamp of the next occurrence to materialize.
	NextDueAt int64

	// AnchorDay is the day of month the schedule was started on (1-31).
	// Monthly and yearly schedules return to it after short months.
	AnchorDay int
}

// RecurrenceFailure records an occurrence that was skipped instead of materialized.
type RecurrenceFailure struct {
	ID           string
	ExpenseID    string
	GroupID      string
	OccurrenceAt int64
	Reason       string
	CreatedAt    int64
}
