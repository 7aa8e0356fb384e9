package calculator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/money"
)

// MemberBalance represents the balance information for one group member.
type MemberBalance struct {
	UserID string
	Net    money.Amount // Positive = is owed money, Negative = owes money
	Paid   money.Amount // Total paid across unsettled expenses
	Owed   money.Amount // Total of this member's shares across unsettled expenses
}

// CalculateBalances computes the net balance of every member over the unsettled
// expenses of a group. The result has one entry per member, sorted by user ID,
// including members with a zero balance.
//
// Algorithm:
// - For each unsettled expense: the payer is credited the full amount
// - Each participant is debited their computed share
// - net = paid - owed
//
// A payer or participant outside memberIDs fails with models.ErrMemberNotFound.
// An expense whose shares do not add up to its amount, or balances that do not
// sum to zero, fail with models.ErrUnbalancedLedger.
func CalculateBalances(memberIDs []string, expenses []models.Expense) ([]MemberBalance, error) {
	balances := make(map[string]*MemberBalance, len(memberIDs))
	for _, id := range memberIDs {
		balances[id] = &MemberBalance{UserID: id}
	}

	for _, e := range expenses {
		if e.Settled {
			continue
		}

		payer, ok := balances[e.PaidBy]
		if !ok {
			return nil, fmt.Errorf("expense %s: payer %s: %w", e.ID, e.PaidBy, models.ErrMemberNotFound)
		}
		payer.Paid += e.Amount

		var shares money.Amount
		for _, p := range e.Participants {
			b, ok := balances[p.UserID]
			if !ok {
				return nil, fmt.Errorf("expense %s: participant %s: %w", e.ID, p.UserID, models.ErrMemberNotFound)
			}
			b.Owed += p.ShareAmount
			shares += p.ShareAmount
		}
		if shares != e.Amount {
			return nil, fmt.Errorf("expense %s: shares sum to %s, amount is %s: %w", e.ID, shares, e.Amount, models.ErrUnbalancedLedger)
		}
	}

	result := make([]MemberBalance, 0, len(balances))
	var sum money.Amount
	for _, b := range balances {
		b.Net = b.Paid - b.Owed
		sum += b.Net
		result = append(result, *b)
	}
	if sum != 0 {
		return nil, fmt.Errorf("balances sum to %s: %w", sum, models.ErrUnbalancedLedger)
	}

	slices.SortFunc(result, func(a, b MemberBalance) int {
		return strings.Compare(a.UserID, b.UserID)
	})
	return result, nil
}

// NetBalances maps each member to their net balance.
func NetBalances(balances []MemberBalance) map[string]money.Amount {
	net := make(map[string]money.Amount, len(balances))
	for _, b := range balances {
		net[b.UserID] = b.Net
	}
	return net
}
