package calculator

import (
	"container/heap"
	"fmt"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/money"
)

// PlanSettlement turns net balances into a short list of transfers that zeroes them.
//
// Greedy algorithm: repeatedly match the largest debtor with the largest creditor
// and transfer the smaller of the two amounts. Ties on amount are broken by
// ascending user ID, so the plan is deterministic. Every transfer zeroes at least
// one member, which bounds the plan at (members with a non-zero balance - 1)
// transfers.
//
// Balances that do not sum to zero fail with models.ErrUnbalancedLedger.
func PlanSettlement(balances map[string]money.Amount) ([]models.Transfer, error) {
	var sum money.Amount
	debtors, creditors := &partyHeap{}, &partyHeap{}
	for id, amount := range balances {
		sum += amount
		switch {
		case amount < 0:
			*debtors = append(*debtors, party{id: id, amount: -amount})
		case amount > 0:
			*creditors = append(*creditors, party{id: id, amount: amount})
		}
	}
	if sum != 0 {
		return nil, fmt.Errorf("balances sum to %s: %w", sum, models.ErrUnbalancedLedger)
	}

	heap.Init(debtors)
	heap.Init(creditors)

	var transfers []models.Transfer
	for debtors.Len() > 0 && creditors.Len() > 0 {
		d := heap.Pop(debtors).(party)
		c := heap.Pop(creditors).(party)

		amount := min(d.amount, c.amount)
		transfers = append(transfers, models.Transfer{From: d.id, To: c.id, Amount: amount})

		if d.amount > amount {
			heap.Push(debtors, party{id: d.id, amount: d.amount - amount})
		}
		if c.amount > amount {
			heap.Push(creditors, party{id: c.id, amount: c.amount - amount})
		}
	}

	return transfers, nil
}

// ApplyTransfers returns the balances that remain after every transfer is paid.
func ApplyTransfers(balances map[string]money.Amount, transfers []models.Transfer) map[string]money.Amount {
	out := make(map[string]money.Amount, len(balances))
	for id, amount := range balances {
		out[id] = amount
	}
	for _, t := range transfers {
		out[t.From] += t.Amount
		out[t.To] -= t.Amount
	}
	return out
}

// party is one side of an open debt; amount is always positive.
type party struct {
	id     string
	amount money.Amount
}

// partyHeap is a max-heap on amount, then min on id.
type partyHeap []party

func (h partyHeap) Len() int { return len(h) }

func (h partyHeap) Less(i, j int) bool {
	if h[i].amount != h[j].amount {
		return h[i].amount > h[j].amount
	}
	return h[i].id < h[j].id
}

func (h partyHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *partyHeap) Push(x any) { *h = append(*h, x.(party)) }

func (h *partyHeap) Pop() any {
	old := *h
	n := len(old)
	p := old[n-1]
	*h = old[:n-1]
	return p
}
