package models

import (
	"fmt"
	"strings"

	"github.com/mmynk/settleup/internal/money"
)

// SplitType is the rule that divides an expense's amount among its participants.
type SplitType string

const (
	SplitEqual      SplitType = "equal"
	SplitPercentage SplitType = "percentage"
	SplitExact      SplitType = "exact"
	SplitShares     SplitType = "shares"
)

// ParseSplitType accepts the lower- or upper-case name of a split type.
// An empty string means equal.
func ParseSplitType(s string) (SplitType, error) {
	switch t := SplitType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return SplitEqual, nil
	case SplitEqual, SplitPercentage, SplitExact, SplitShares:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown split type %q", ErrInvalidSplit, s)
	}
}

// Participant is one member's part in an expense.
// Exactly one of the rule inputs is meaningful, depending on the expense's SplitType.
type Participant struct {
	// UserID is the participating member.
	UserID string

	// Percentage is the rule input for percentage splits.
	Percentage money.Percent

	// ExactAmount is the rule input for exact splits.
	ExactAmount money.Amount

	// Shares is the rule input for shares splits (e.g., 2 for "two shares").
	Shares int64

	// ShareAmount is the computed amount this participant owes for the expense.
	// Across all participants of an expense the share amounts sum to the expense amount.
	ShareAmount money.Amount
}
