package models

import (
	"time"

	"github.com/mmynk/settleup/internal/money"
)

// DefaultCategory is assigned to expenses created without a category.
const DefaultCategory = "general"

// Expense is one payment recorded in a group's ledger.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group whose ledger holds this expense.
	GroupID string

	// Description is a short label (e.g., "Dinner at Thalassa").
	Description string

	// Amount is the total paid, in minor units. Always positive.
	Amount money.Amount

	// PaidBy is the user ID of the member who paid.
	PaidBy string

	// SplitType selects how Amount is divided among Participants.
	SplitType SplitType

	// Participants holds the split inputs and computed shares, sorted by user ID.
	Participants []Participant

	// Category tags the expense for budgeting (e.g., "food", "travel").
	Category string

	// Notes is optional free text.
	Notes string

	// Timestamp is when the expense happened (Unix seconds). Budgets use it to
	// place the expense in a calendar month.
	Timestamp int64

	// Settled is set when the expense has been included in an applied settlement.
	// Settled expenses no longer contribute to balances.
	Settled bool

	// SettlementID is the batch that settled this expense, if any.
	SettlementID string

	// Recurrence is non-nil for an active recurring template.
	Recurrence *Recurrence

	// SourceExpenseID is the template this expense was materialized from, if any.
	SourceExpenseID string

	// OccurrenceAt is the due time of the occurrence this expense materializes.
	OccurrenceAt int64

	// CreatedBy is the user ID who recorded the expense. Empty for materialized copies.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// ShareOf returns the computed share of userID, and whether the user participates.
func (e *Expense) ShareOf(userID string) (money.Amount, bool) {
	for _, p := range e.Participants {
		if p.UserID == userID {
			return p.ShareAmount, true
		}
	}
	return 0, false
}

// Time returns Timestamp as a UTC time.
func (e *Expense) Time() time.Time {
	return time.Unix(e.Timestamp, 0).UTC()
}

// ExpenseFilter narrows ListExpenses. Zero values mean "no constraint".
type ExpenseFilter struct {
	Category       string
	Start          int64
	End            int64
	IncludeSettled bool
}
