package recurring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmynk/settleup/internal/models"
)

type fakeStore struct {
	templates []models.Expense
	group     *models.Group
	created   []*models.Expense
	failures  []*models.RecurrenceFailure
	// conflictAt makes the compare-and-set fail for this due time.
	conflictAt int64
}

func (f *fakeStore) DueRecurringExpenses(_ context.Context, now int64) ([]models.Expense, error) {
	var due []models.Expense
	for _, e := range f.templates {
		if e.Recurrence != nil && e.Recurrence.NextDueAt <= now {
			due = append(due, e)
		}
	}
	return due, nil
}

func (f *fakeStore) GetGroup(_ context.Context, groupID string) (*models.Group, error) {
	if f.group == nil || f.group.ID != groupID {
		return nil, models.ErrGroupNotFound
	}
	return f.group, nil
}

func (f *fakeStore) advance(templateID string, dueAt, next int64) bool {
	if dueAt == f.conflictAt {
		return false
	}
	for i := range f.templates {
		if f.templates[i].ID == templateID && f.templates[i].Recurrence.NextDueAt == dueAt {
			f.templates[i].Recurrence.NextDueAt = next
			return true
		}
	}
	return false
}

func (f *fakeStore) MaterializeOccurrence(_ context.Context, templateID string, dueAt, next int64, e *models.Expense) (bool, error) {
	if !f.advance(templateID, dueAt, next) {
		return false, nil
	}
	f.created = append(f.created, e)
	return true, nil
}

func (f *fakeStore) SkipOccurrence(_ context.Context, templateID string, dueAt, next int64, failure *models.RecurrenceFailure) (bool, error) {
	if !f.advance(templateID, dueAt, next) {
		return false, nil
	}
	f.failures = append(f.failures, failure)
	return true, nil
}

type fakePublisher struct {
	published []models.RecurrenceFailure
}

func (p *fakePublisher) PublishRecurrenceFailure(_ context.Context, f models.RecurrenceFailure) error {
	p.published = append(p.published, f)
	return nil
}

func newTemplate(start time.Time, interval models.Interval, paidBy string, participants ...string) models.Expense {
	r, _ := NewRecurrence(start, interval)
	ps := make([]models.Participant, len(participants))
	for i, id := range participants {
		ps[i] = models.Participant{UserID: id}
	}
	return models.Expense{
		ID:           "rent",
		GroupID:      "g1",
		Description:  "Rent",
		Amount:       90000,
		PaidBy:       paidBy,
		SplitType:    models.SplitEqual,
		Participants: ps,
		Category:     "housing",
		Timestamp:    start.Unix(),
		Recurrence:   r,
	}
}

func testGroup(members ...string) *models.Group {
	g := &models.Group{ID: "g1", Name: "Flat"}
	for _, m := range members {
		g.Members = append(g.Members, models.Member{UserID: m})
	}
	return g
}

func TestProcessDueMaterializes(t *testing.T) {
	store := &fakeStore{
		templates: []models.Expense{newTemplate(date(2026, 1, 31), models.IntervalMonthly, "a", "a", "b", "c")},
		group:     testGroup("a", "b", "c"),
	}
	p := NewProcessor(store, nil, nil, 0)

	report, err := p.ProcessDue(context.Background(), date(2026, 4, 1))
	if err != nil {
		t.Fatalf("ProcessDue failed: %v", err)
	}

	if report.Materialized != 2 || report.Skipped != 0 {
		t.Fatalf("report = %+v, want 2 materialized", report)
	}
	wantDates := []time.Time{date(2026, 2, 28), date(2026, 3, 31)}
	for i, e := range store.created {
		if got := time.Unix(e.OccurrenceAt, 0).UTC(); !got.Equal(wantDates[i]) {
			t.Errorf("occurrence[%d] = %s, want %s", i, got, wantDates[i])
		}
		if e.SourceExpenseID != "rent" || e.Recurrence != nil {
			t.Errorf("occurrence[%d] source/recurrence = %q/%v", i, e.SourceExpenseID, e.Recurrence)
		}
		if e.Participants[0].ShareAmount != 30000 {
			t.Errorf("occurrence[%d] share = %d, want 30000", i, e.Participants[0].ShareAmount)
		}
	}
	if got := time.Unix(store.templates[0].Recurrence.NextDueAt, 0).UTC(); !got.Equal(date(2026, 4, 30)) {
		t.Errorf("next due = %s, want 2026-04-30", got)
	}

	again, err := p.ProcessDue(context.Background(), date(2026, 4, 1))
	if err != nil {
		t.Fatalf("second ProcessDue failed: %v", err)
	}
	if again.Materialized != 0 || len(store.created) != 2 {
		t.Errorf("second run materialized %d, total %d; want 0, 2", again.Materialized, len(store.created))
	}
}

func TestProcessDueSkipsRemovedMember(t *testing.T) {
	store := &fakeStore{
		templates: []models.Expense{newTemplate(date(2026, 3, 1), models.IntervalWeekly, "a", "a", "b")},
		group:     testGroup("a"),
	}
	pub := &fakePublisher{}
	p := NewProcessor(store, pub, nil, 0)

	report, err := p.ProcessDue(context.Background(), date(2026, 3, 9))
	if err != nil {
		t.Fatalf("ProcessDue failed: %v", err)
	}

	if report.Skipped != 1 || report.Materialized != 0 {
		t.Fatalf("report = %+v, want 1 skipped", report)
	}
	if !errors.Is(report.Failures[0], models.ErrRecurrenceMaterializationFailed) || !IsSkip(report.Failures[0]) {
		t.Errorf("failure = %v, want ErrRecurrenceMaterializationFailed", report.Failures[0])
	}
	if len(store.failures) != 1 || store.failures[0].ExpenseID != "rent" {
		t.Errorf("recorded failures = %+v", store.failures)
	}
	if len(pub.published) != 1 {
		t.Errorf("published %d failures, want 1", len(pub.published))
	}
	if got := time.Unix(store.templates[0].Recurrence.NextDueAt, 0).UTC(); !got.Equal(date(2026, 3, 15)) {
		t.Errorf("schedule did not advance past the skipped occurrence: next due %s", got)
	}
}

func TestProcessDueCatchUpLimit(t *testing.T) {
	store := &fakeStore{
		templates: []models.Expense{newTemplate(date(2026, 1, 1), models.IntervalDaily, "a", "a")},
		group:     testGroup("a"),
	}
	p := NewProcessor(store, nil, nil, 5)

	report, err := p.ProcessDue(context.Background(), date(2026, 2, 1))
	if err != nil {
		t.Fatalf("ProcessDue failed: %v", err)
	}
	if report.Materialized != 5 {
		t.Errorf("materialized %d, want catch-up limit 5", report.Materialized)
	}
}

func TestProcessDueLosesRace(t *testing.T) {
	tmpl := newTemplate(date(2026, 1, 1), models.IntervalDaily, "a", "a")
	store := &fakeStore{
		templates:  []models.Expense{tmpl},
		group:      testGroup("a"),
		conflictAt: tmpl.Recurrence.NextDueAt,
	}
	p := NewProcessor(store, nil, nil, 0)

	report, err := p.ProcessDue(context.Background(), date(2026, 1, 10))
	if err != nil {
		t.Fatalf("ProcessDue failed: %v", err)
	}
	if report.Materialized != 0 || len(store.created) != 0 {
		t.Errorf("materialized %d after losing the compare-and-set, want 0", report.Materialized)
	}
}

func TestProcessDueNotYetDue(t *testing.T) {
	store := &fakeStore{
		templates: []models.Expense{newTemplate(date(2026, 1, 1), models.IntervalMonthly, "a", "a")},
		group:     testGroup("a"),
	}
	report, err := NewProcessor(store, nil, nil, 0).ProcessDue(context.Background(), date(2026, 1, 20))
	if err != nil {
		t.Fatalf("ProcessDue failed: %v", err)
	}
	if report.Materialized != 0 || report.Skipped != 0 {
		t.Errorf("report = %+v, want nothing processed", report)
	}
}
