package calculator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/money"
)

// SplitShares computes every participant's ShareAmount for an expense.
//
// The result is a copy of participants sorted by user ID, and its share amounts
// always sum to amount exactly:
//   - equal: amount / n each, the first (amount mod n) participants by ID pay one extra minor unit
//   - percentage: floor(amount × pct / 100) each, the residual goes to the last participant by ID
//   - exact: the given amounts, which must add up to amount
//   - shares: floor(amount × s / Σs) each, the residual goes to the last participant by ID
//
// Every failure wraps models.ErrInvalidSplit with a message fit for the end user.
func SplitShares(amount money.Amount, splitType models.SplitType, participants []models.Participant) ([]models.Participant, error) {
	if amount <= 0 {
		return nil, invalidSplit("amount must be greater than zero")
	}
	if len(participants) == 0 {
		return nil, invalidSplit("select at least one participant")
	}

	sorted := slices.Clone(participants)
	slices.SortFunc(sorted, func(a, b models.Participant) int {
		return strings.Compare(a.UserID, b.UserID)
	})
	for i := range sorted {
		if sorted[i].UserID == "" {
			return nil, invalidSplit("participant is missing a user")
		}
		if i > 0 && sorted[i].UserID == sorted[i-1].UserID {
			return nil, invalidSplit("each participant can only appear once")
		}
		sorted[i].ShareAmount = 0
	}

	var err error
	switch splitType {
	case models.SplitEqual:
		splitEqual(amount, sorted)
	case models.SplitPercentage:
		err = splitPercentage(amount, sorted)
	case models.SplitExact:
		err = splitExact(amount, sorted)
	case models.SplitShares:
		err = splitByShares(amount, sorted)
	default:
		err = invalidSplit(fmt.Sprintf("unknown split type %q", splitType))
	}
	if err != nil {
		return nil, err
	}

	return sorted, nil
}

func splitEqual(amount money.Amount, ps []models.Participant) {
	n := money.Amount(len(ps))
	base, rem := amount/n, amount%n
	for i := range ps {
		ps[i].ShareAmount = base
		if money.Amount(i) < rem {
			ps[i].ShareAmount++
		}
	}
}

func splitPercentage(amount money.Amount, ps []models.Participant) error {
	var total money.Percent
	for _, p := range ps {
		if p.Percentage < 0 {
			return invalidSplit("percentages cannot be negative")
		}
		total += p.Percentage
	}
	if total != money.Hundred {
		return invalidSplit(fmt.Sprintf("percentages must add up to 100 (got %s)", total))
	}

	var assigned money.Amount
	for i := range ps {
		ps[i].ShareAmount = ps[i].Percentage.Of(amount)
		assigned += ps[i].ShareAmount
	}
	ps[len(ps)-1].ShareAmount += amount - assigned
	return nil
}

func splitExact(amount money.Amount, ps []models.Participant) error {
	var total money.Amount
	for i := range ps {
		if ps[i].ExactAmount < 0 {
			return invalidSplit("amounts cannot be negative")
		}
		ps[i].ShareAmount = ps[i].ExactAmount
		total += ps[i].ExactAmount
	}
	if total != amount {
		return invalidSplit(fmt.Sprintf("amounts must add up to %s (got %s)", amount, total))
	}
	return nil
}

func splitByShares(amount money.Amount, ps []models.Participant) error {
	var total int64
	for _, p := range ps {
		if p.Shares < 0 {
			return invalidSplit("shares cannot be negative")
		}
		total += p.Shares
	}
	if total <= 0 {
		return invalidSplit("at least one participant needs a share")
	}

	amt, den := decimal.NewFromInt(int64(amount)), decimal.NewFromInt(total)
	var assigned money.Amount
	for i := range ps {
		ps[i].ShareAmount = money.Amount(amt.Mul(decimal.NewFromInt(ps[i].Shares)).Div(den).Floor().IntPart())
		assigned += ps[i].ShareAmount
	}
	ps[len(ps)-1].ShareAmount += amount - assigned
	return nil
}

func invalidSplit(msg string) error {
	return fmt.Errorf("%w: %s", models.ErrInvalidSplit, msg)
}
