package recurring

import (
	"errors"
	"testing"
	"time"

	"github.com/mmynk/settleup/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		name     string
		due      time.Time
		interval models.Interval
		anchor   int
		want     time.Time
	}{
		{"daily", date(2026, 1, 31), models.IntervalDaily, 31, date(2026, 2, 1)},
		{"weekly across year end", date(2025, 12, 29), models.IntervalWeekly, 29, date(2026, 1, 5)},
		{"monthly plain", date(2026, 3, 15), models.IntervalMonthly, 15, date(2026, 4, 15)},
		{"monthly Jan 31 clamps to Feb 28", date(2026, 1, 31), models.IntervalMonthly, 31, date(2026, 2, 28)},
		{"monthly Feb 28 returns to anchor 31", date(2026, 2, 28), models.IntervalMonthly, 31, date(2026, 3, 31)},
		{"monthly leap year", date(2028, 1, 31), models.IntervalMonthly, 31, date(2028, 2, 29)},
		{"monthly December to January", date(2026, 12, 31), models.IntervalMonthly, 31, date(2027, 1, 31)},
		{"monthly anchor 30 into April", date(2026, 3, 30), models.IntervalMonthly, 30, date(2026, 4, 30)},
		{"yearly leap day", date(2028, 2, 29), models.IntervalYearly, 29, date(2029, 2, 28)},
		{"yearly back to leap day", date(2031, 2, 28), models.IntervalYearly, 29, date(2032, 2, 29)},
		{"missing anchor uses due day", date(2026, 5, 10), models.IntervalMonthly, 0, date(2026, 6, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Advance(tt.due, tt.interval, tt.anchor)
			if err != nil {
				t.Fatalf("Advance failed: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Advance(%s) = %s, want %s", tt.due, got, tt.want)
			}
		})
	}
}

func TestAdvanceUnknownInterval(t *testing.T) {
	_, err := Advance(date(2026, 1, 1), "hourly", 1)
	if !errors.Is(err, models.ErrInvalidRecurrence) {
		t.Errorf("error = %v, want ErrInvalidRecurrence", err)
	}
}

func TestNewRecurrence(t *testing.T) {
	r, err := NewRecurrence(date(2026, 1, 31), models.IntervalMonthly)
	if err != nil {
		t.Fatalf("NewRecurrence failed: %v", err)
	}
	if r.AnchorDay != 31 {
		t.Errorf("AnchorDay = %d, want 31", r.AnchorDay)
	}
	if got := time.Unix(r.NextDueAt, 0).UTC(); !got.Equal(date(2026, 2, 28)) {
		t.Errorf("NextDueAt = %s, want 2026-02-28", got)
	}
}
