package models

import "github.com/mmynk/settleup/internal/money"

// Budget is a monthly spending limit for one category of one user.
// The amount spent is never stored; it is derived from the ledger on demand.
type Budget struct {
	// ID is the unique identifier for the budget (UUID format).
	ID string

	// OwnerID is the user the budget belongs to.
	OwnerID string

	// Category matches Expense.Category.
	Category string

	// MonthlyLimit is the spending limit. Always positive.
	MonthlyLimit money.Amount

	// Month is 1-12.
	Month int

	// Year is the calendar year, e.g. 2026.
	Year int

	// Active is false once the budget has been deleted.
	Active bool

	CreatedAt int64
	UpdatedAt int64
}

// BudgetStatus classifies spending against a limit.
type BudgetStatus string

const (
	BudgetOnTrack  BudgetStatus = "on-track"
	BudgetNearing  BudgetStatus = "nearing"
	BudgetExceeded BudgetStatus = "exceeded"
)
