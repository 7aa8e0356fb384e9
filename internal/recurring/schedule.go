// Package recurring materializes recurring expense templates into concrete expenses.
//
// A template is an ordinary expense that carries a models.Recurrence. Each due
// occurrence moves through Scheduled → Due → Materialized → Scheduled; an occurrence
// that cannot be materialized is skipped and recorded instead of blocking the schedule.
package recurring

import (
	"fmt"
	"time"

	"github.com/mmynk/settleup/internal/models"
)

// stepper computes the next occurrence for one interval.
type stepper func(due time.Time, anchorDay int) time.Time

var steppers = map[models.Interval]stepper{
	models.IntervalDaily: func(due time.Time, _ int) time.Time {
		return due.AddDate(0, 0, 1)
	},
	models.IntervalWeekly: func(due time.Time, _ int) time.Time {
		return due.AddDate(0, 0, 7)
	},
	models.IntervalMonthly: func(due time.Time, anchorDay int) time.Time {
		return onDay(due.Year(), due.Month()+1, anchorDay, due)
	},
	models.IntervalYearly: func(due time.Time, anchorDay int) time.Time {
		return onDay(due.Year()+1, due.Month(), anchorDay, due)
	},
}

// Advance returns the occurrence after due. Monthly and yearly schedules land on
// anchorDay, clamped to the length of the target month: an anchor of 31 gives
// Jan 31 → Feb 28 (29 in leap years) → Mar 31.
func Advance(due time.Time, interval models.Interval, anchorDay int) (time.Time, error) {
	step, ok := steppers[interval]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: unknown interval %q", models.ErrInvalidRecurrence, interval)
	}
	if anchorDay < 1 || anchorDay > 31 {
		anchorDay = due.Day()
	}
	return step(due.UTC(), anchorDay), nil
}

// NewRecurrence starts a schedule whose first occurrence is the template itself
// (at start), so the next due occurrence is one interval later.
func NewRecurrence(start time.Time, interval models.Interval) (*models.Recurrence, error) {
	start = start.UTC()
	next, err := Advance(start, interval, start.Day())
	if err != nil {
		return nil, err
	}
	return &models.Recurrence{
		Interval:  interval,
		NextDueAt: next.Unix(),
		AnchorDay: start.Day(),
	}, nil
}

// onDay builds year/month/day at the time of day of ref, clamping day to the
// month length. month may be 13, which time.Date normalizes to January.
func onDay(year int, month time.Month, day int, ref time.Time) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	day = min(day, last)
	return time.Date(first.Year(), first.Month(), day, ref.Hour(), ref.Minute(), ref.Second(), 0, time.UTC)
}
