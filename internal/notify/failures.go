package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmynk/settleup/internal/models"
)

// FailureLookup is what FailureNotifier reads from the store.
type FailureLookup interface {
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// FailureNotifier e-mails the payer of a recurring expense when one of its
// occurrences is skipped.
type FailureNotifier struct {
	store  FailureLookup
	emails *Emails
}

func NewFailureNotifier(store FailureLookup, emails *Emails) *FailureNotifier {
	return &FailureNotifier{store: store, emails: emails}
}

// Handle processes one event. Events for expenses or users that no longer exist
// are acknowledged without sending anything.
func (n *FailureNotifier) Handle(ctx context.Context, ev RecurrenceFailedEvent) error {
	expense, err := n.store.GetExpense(ctx, ev.ExpenseID)
	if errors.Is(err, models.ErrExpenseNotFound) {
		slog.InfoContext(ctx, "Skipping notification for deleted expense", "expense_id", ev.ExpenseID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load expense: %w", err)
	}

	payer, err := n.store.GetUserByID(ctx, expense.PaidBy)
	if errors.Is(err, models.ErrUserNotFound) {
		slog.InfoContext(ctx, "Skipping notification, payer no longer exists", "user_id", expense.PaidBy)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load payer: %w", err)
	}

	return n.emails.SendRecurrenceFailure(ctx, payer.Email, expense, ev.Failure())
}
