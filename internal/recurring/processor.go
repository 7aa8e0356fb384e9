package recurring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/models"
)

// DefaultMaxCatchUp bounds how many overdue occurrences of one template a single
// run materializes.
const DefaultMaxCatchUp = 12

// Store is the persistence the processor needs.
type Store interface {
	// DueRecurringExpenses lists active templates with NextDueAt <= now.
	DueRecurringExpenses(ctx context.Context, now int64) ([]models.Expense, error)

	// GetGroup loads a group with its members.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// MaterializeOccurrence inserts occurrence and moves the template from dueAt to
	// nextDueAt in one transaction. It returns false without writing anything when
	// the template is no longer at dueAt (another worker got there first).
	MaterializeOccurrence(ctx context.Context, templateID string, dueAt, nextDueAt int64, occurrence *models.Expense) (bool, error)

	// SkipOccurrence records failure and moves the template from dueAt to nextDueAt,
	// with the same compare-and-set semantics as MaterializeOccurrence.
	SkipOccurrence(ctx context.Context, templateID string, dueAt, nextDueAt int64, failure *models.RecurrenceFailure) (bool, error)
}

// Publisher is notified of every skipped occurrence.
type Publisher interface {
	PublishRecurrenceFailure(ctx context.Context, failure models.RecurrenceFailure) error
}

// Report summarizes one processing run.
type Report struct {
	Materialized int
	Skipped      int

	// Failures holds one error per skipped occurrence, each wrapping
	// models.ErrRecurrenceMaterializationFailed.
	Failures []error
}

// Processor walks due templates and materializes their occurrences.
type Processor struct {
	store      Store
	publisher  Publisher
	metrics    *metrics.Metrics
	maxCatchUp int
}

// NewProcessor creates a processor. publisher and m may be nil.
func NewProcessor(store Store, publisher Publisher, m *metrics.Metrics, maxCatchUp int) *Processor {
	if maxCatchUp <= 0 {
		maxCatchUp = DefaultMaxCatchUp
	}
	return &Processor{
		store:      store,
		publisher:  publisher,
		metrics:    m,
		maxCatchUp: maxCatchUp,
	}
}

// ProcessDue materializes every occurrence due at or before now.
// Errors loading a single template are logged and do not stop the run.
func (p *Processor) ProcessDue(ctx context.Context, now time.Time) (Report, error) {
	var report Report

	templates, err := p.store.DueRecurringExpenses(ctx, now.Unix())
	if err != nil {
		return report, fmt.Errorf("failed to list due recurring expenses: %w", err)
	}

	for i := range templates {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := p.processTemplate(ctx, &templates[i], now, &report); err != nil {
			slog.ErrorContext(ctx, "Failed to process recurring expense",
				"expense_id", templates[i].ID,
				"group_id", templates[i].GroupID,
				"error", err)
		}
	}

	p.metrics.Recurring("materialized", report.Materialized)
	p.metrics.Recurring("skipped", report.Skipped)

	if report.Materialized > 0 || report.Skipped > 0 {
		slog.InfoContext(ctx, "Recurring expense processing complete",
			"templates", len(templates),
			"materialized", report.Materialized,
			"skipped", report.Skipped)
	}
	return report, nil
}

func (p *Processor) processTemplate(ctx context.Context, tmpl *models.Expense, now time.Time, report *Report) error {
	if tmpl.Recurrence == nil {
		return models.ErrNotRecurring
	}

	group, err := p.store.GetGroup(ctx, tmpl.GroupID)
	if err != nil {
		return err
	}

	due := time.Unix(tmpl.Recurrence.NextDueAt, 0).UTC()
	for n := 0; n < p.maxCatchUp && !due.After(now); n++ {
		next, err := Advance(due, tmpl.Recurrence.Interval, tmpl.Recurrence.AnchorDay)
		if err != nil {
			return err
		}

		occurrence, reason := buildOccurrence(tmpl, group, due)
		if reason == nil {
			ok, err := p.store.MaterializeOccurrence(ctx, tmpl.ID, due.Unix(), next.Unix(), occurrence)
			if err != nil {
				return fmt.Errorf("failed to materialize occurrence %s: %w", due.Format(time.DateOnly), err)
			}
			if !ok {
				return nil
			}
			report.Materialized++
			slog.InfoContext(ctx, "Created expense from recurring template",
				"template_id", tmpl.ID,
				"expense_id", occurrence.ID,
				"occurrence", due.Format(time.DateOnly),
				"amount", occurrence.Amount.String())
		} else {
			failure := &models.RecurrenceFailure{
				ID:           uuid.New().String(),
				ExpenseID:    tmpl.ID,
				GroupID:      tmpl.GroupID,
				OccurrenceAt: due.Unix(),
				Reason:       reason.Error(),
				CreatedAt:    now.Unix(),
			}
			ok, err := p.store.SkipOccurrence(ctx, tmpl.ID, due.Unix(), next.Unix(), failure)
			if err != nil {
				return fmt.Errorf("failed to record skipped occurrence %s: %w", due.Format(time.DateOnly), err)
			}
			if !ok {
				return nil
			}
			report.Skipped++
			report.Failures = append(report.Failures, fmt.Errorf("expense %s, occurrence %s: %w: %v",
				tmpl.ID, due.Format(time.DateOnly), models.ErrRecurrenceMaterializationFailed, reason))
			slog.WarnContext(ctx, "Skipped recurring expense occurrence",
				"template_id", tmpl.ID,
				"occurrence", due.Format(time.DateOnly),
				"reason", failure.Reason)

			if p.publisher != nil {
				if err := p.publisher.PublishRecurrenceFailure(ctx, *failure); err != nil {
					slog.WarnContext(ctx, "Failed to publish recurrence failure", "template_id", tmpl.ID, "error", err)
				}
			}
		}

		due = next
	}
	return nil
}

// buildOccurrence copies the template for the occurrence at due, re-validating it
// against the group's current membership. A non-nil reason means the occurrence
// must be skipped.
func buildOccurrence(tmpl *models.Expense, group *models.Group, due time.Time) (*models.Expense, error) {
	if !group.HasMember(tmpl.PaidBy) {
		return nil, fmt.Errorf("payer %s is no longer a member: %w", tmpl.PaidBy, models.ErrMemberNotFound)
	}
	for _, p := range tmpl.Participants {
		if !group.HasMember(p.UserID) {
			return nil, fmt.Errorf("participant %s is no longer a member: %w", p.UserID, models.ErrMemberNotFound)
		}
	}

	participants, err := calculator.SplitShares(tmpl.Amount, tmpl.SplitType, tmpl.Participants)
	if err != nil {
		return nil, err
	}

	return &models.Expense{
		ID:              uuid.New().String(),
		GroupID:         tmpl.GroupID,
		Description:     tmpl.Description,
		Amount:          tmpl.Amount,
		PaidBy:          tmpl.PaidBy,
		SplitType:       tmpl.SplitType,
		Participants:    participants,
		Category:        tmpl.Category,
		Notes:           tmpl.Notes,
		Timestamp:       due.Unix(),
		SourceExpenseID: tmpl.ID,
		OccurrenceAt:    due.Unix(),
		CreatedAt:       time.Now().Unix(),
	}, nil
}

// IsSkip reports whether err is a skipped-occurrence failure from a Report.
func IsSkip(err error) bool {
	return errors.Is(err, models.ErrRecurrenceMaterializationFailed)
}
