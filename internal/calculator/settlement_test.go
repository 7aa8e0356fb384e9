package calculator

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/money"
)

func TestPlanSettlement(t *testing.T) {
	tests := []struct {
		name     string
		balances map[string]money.Amount
		want     []models.Transfer
	}{
		{
			name:     "one creditor two debtors",
			balances: map[string]money.Amount{"A": 20000, "B": -10000, "C": -10000},
			want: []models.Transfer{
				{From: "B", To: "A", Amount: 10000},
				{From: "C", To: "A", Amount: 10000},
			},
		},
		{
			name:     "largest debtor pays largest creditor first",
			balances: map[string]money.Amount{"A": 500, "B": 300, "C": -700, "D": -100},
			want: []models.Transfer{
				{From: "C", To: "A", Amount: 500},
				{From: "C", To: "B", Amount: 200},
				{From: "D", To: "B", Amount: 100},
			},
		},
		{
			name:     "all zero",
			balances: map[string]money.Amount{"A": 0, "B": 0},
			want:     nil,
		},
		{
			name:     "empty",
			balances: map[string]money.Amount{},
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PlanSettlement(tt.balances)
			if err != nil {
				t.Fatalf("PlanSettlement failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d transfers %+v, want %d", len(got), got, len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("transfer[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPlanSettlementUnbalanced(t *testing.T) {
	_, err := PlanSettlement(map[string]money.Amount{"A": 100, "B": -99})
	if !errors.Is(err, models.ErrUnbalancedLedger) {
		t.Errorf("error = %v, want ErrUnbalancedLedger", err)
	}
}

func TestPlanSettlementDeterministic(t *testing.T) {
	balances := map[string]money.Amount{"d": -100, "c": -100, "b": 100, "a": 100}
	first, err := PlanSettlement(balances)
	if err != nil {
		t.Fatalf("PlanSettlement failed: %v", err)
	}
	for range 20 {
		again, _ := PlanSettlement(balances)
		for i := range first {
			if again[i] != first[i] {
				t.Fatalf("plan changed between runs: %+v vs %+v", first, again)
			}
		}
	}
	if first[0] != (models.Transfer{From: "c", To: "a", Amount: 100}) {
		t.Errorf("first transfer = %+v, want c -> a by id tie-break", first[0])
	}
}

// TestLedgerProperties checks on random ledgers that balances sum to zero, the
// plan zeroes them, and the plan has at most n-1 transfers.
func TestLedgerProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	splitTypes := []models.SplitType{models.SplitEqual, models.SplitPercentage, models.SplitExact, models.SplitShares}

	for run := range 200 {
		n := 2 + rng.IntN(7)
		members := make([]string, n)
		for i := range members {
			members[i] = fmt.Sprintf("m%02d", i)
		}

		var expenses []models.Expense
		for e := range 1 + rng.IntN(12) {
			amount := money.Amount(1 + rng.Int64N(500000))
			splitType := splitTypes[rng.IntN(len(splitTypes))]
			k := 1 + rng.IntN(n)
			ps := randomParticipants(rng, members[:k], amount, splitType)
			split, err := SplitShares(amount, splitType, ps)
			if err != nil {
				t.Fatalf("run %d: SplitShares(%s) failed: %v", run, splitType, err)
			}
			expenses = append(expenses, models.Expense{
				ID:           fmt.Sprintf("e%d", e),
				Amount:       amount,
				PaidBy:       members[rng.IntN(n)],
				SplitType:    splitType,
				Participants: split,
			})
		}

		balances, err := CalculateBalances(members, expenses)
		if err != nil {
			t.Fatalf("run %d: CalculateBalances failed: %v", run, err)
		}
		net := NetBalances(balances)

		var sum money.Amount
		nonZero := 0
		for _, v := range net {
			sum += v
			if v != 0 {
				nonZero++
			}
		}
		if sum != 0 {
			t.Fatalf("run %d: balances sum to %d", run, sum)
		}

		plan, err := PlanSettlement(net)
		if err != nil {
			t.Fatalf("run %d: PlanSettlement failed: %v", run, err)
		}
		if nonZero > 0 && len(plan) > nonZero-1 {
			t.Errorf("run %d: %d transfers for %d non-zero members", run, len(plan), nonZero)
		}
		for id, v := range ApplyTransfers(net, plan) {
			if v != 0 {
				t.Errorf("run %d: %s left with %d after settlement", run, id, v)
			}
		}
		for _, tr := range plan {
			if tr.Amount <= 0 || tr.From == tr.To {
				t.Errorf("run %d: bad transfer %+v", run, tr)
			}
		}
	}
}

func randomParticipants(rng *rand.Rand, members []string, amount money.Amount, splitType models.SplitType) []models.Participant {
	ps := ids(members...)
	switch splitType {
	case models.SplitPercentage:
		left := money.Hundred
		for i := range ps[:len(ps)-1] {
			p := money.Percent(rng.Int64N(int64(left) + 1))
			ps[i].Percentage = p
			left -= p
		}
		ps[len(ps)-1].Percentage = left
	case models.SplitExact:
		left := amount
		for i := range ps[:len(ps)-1] {
			a := money.Amount(rng.Int64N(int64(left) + 1))
			ps[i].ExactAmount = a
			left -= a
		}
		ps[len(ps)-1].ExactAmount = left
	case models.SplitShares:
		for i := range ps {
			ps[i].Shares = 1 + rng.Int64N(5)
		}
	}
	return ps
}
