package models

import "github.com/mmynk/settleup/internal/money"

// Transfer is one payment in a settlement plan: From pays To Amount.
type Transfer struct {
	// From is the debtor's user ID.
	From string

	// To is the creditor's user ID.
	To string

	// Amount is always positive.
	Amount money.Amount
}

// SettlementBatch is the record of one applied settlement.
type SettlementBatch struct {
	// ID is the unique identifier for the batch (UUID format).
	ID string

	// GroupID is the group that was settled.
	GroupID string

	// SettledBy is the user ID who applied the settlement.
	SettledBy string

	// Transfers is the plan that was computed when the batch was applied.
	Transfers []Transfer

	// ExpenseCount is how many expenses the batch marked as settled.
	ExpenseCount int

	// CreatedAt is the Unix timestamp when the settlement was applied.
	CreatedAt int64
}
