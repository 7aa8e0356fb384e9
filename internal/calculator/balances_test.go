package calculator

import (
	"errors"
	"testing"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/money"
)

func mustSplit(t *testing.T, amount money.Amount, splitType models.SplitType, ps []models.Participant) []models.Participant {
	t.Helper()
	out, err := SplitShares(amount, splitType, ps)
	if err != nil {
		t.Fatalf("SplitShares failed: %v", err)
	}
	return out
}

func TestCalculateBalances(t *testing.T) {
	members := []string{"A", "B", "C"}

	t.Run("A pays 300 for everyone", func(t *testing.T) {
		expenses := []models.Expense{{
			ID:           "e1",
			Amount:       30000,
			PaidBy:       "A",
			SplitType:    models.SplitEqual,
			Participants: mustSplit(t, 30000, models.SplitEqual, ids("A", "B", "C")),
		}}

		balances, err := CalculateBalances(members, expenses)
		if err != nil {
			t.Fatalf("CalculateBalances failed: %v", err)
		}

		want := map[string]money.Amount{"A": 20000, "B": -10000, "C": -10000}
		for _, b := range balances {
			if b.Net != want[b.UserID] {
				t.Errorf("%s net = %d, want %d", b.UserID, b.Net, want[b.UserID])
			}
		}
		if balances[0].Paid != 30000 || balances[0].Owed != 10000 {
			t.Errorf("A paid/owed = %d/%d, want 30000/10000", balances[0].Paid, balances[0].Owed)
		}
	})

	t.Run("settled expenses are skipped", func(t *testing.T) {
		expenses := []models.Expense{{
			ID:           "e1",
			Amount:       30000,
			PaidBy:       "A",
			Participants: mustSplit(t, 30000, models.SplitEqual, ids("A", "B", "C")),
			Settled:      true,
		}}
		balances, err := CalculateBalances(members, expenses)
		if err != nil {
			t.Fatalf("CalculateBalances failed: %v", err)
		}
		for _, b := range balances {
			if b.Net != 0 {
				t.Errorf("%s net = %d, want 0", b.UserID, b.Net)
			}
		}
	})

	t.Run("every member gets an entry", func(t *testing.T) {
		balances, err := CalculateBalances(members, nil)
		if err != nil {
			t.Fatalf("CalculateBalances failed: %v", err)
		}
		if len(balances) != 3 || balances[0].UserID != "A" || balances[2].UserID != "C" {
			t.Errorf("balances = %+v, want A, B, C with zero", balances)
		}
	})

	t.Run("payer outside group", func(t *testing.T) {
		expenses := []models.Expense{{
			ID:           "e1",
			Amount:       100,
			PaidBy:       "Z",
			Participants: mustSplit(t, 100, models.SplitEqual, ids("A")),
		}}
		_, err := CalculateBalances(members, expenses)
		if !errors.Is(err, models.ErrMemberNotFound) {
			t.Errorf("error = %v, want ErrMemberNotFound", err)
		}
	})

	t.Run("participant outside group", func(t *testing.T) {
		expenses := []models.Expense{{
			ID:           "e1",
			Amount:       100,
			PaidBy:       "A",
			Participants: mustSplit(t, 100, models.SplitEqual, ids("A", "Z")),
		}}
		_, err := CalculateBalances(members, expenses)
		if !errors.Is(err, models.ErrMemberNotFound) {
			t.Errorf("error = %v, want ErrMemberNotFound", err)
		}
	})

	t.Run("corrupt shares are an unbalanced ledger", func(t *testing.T) {
		expenses := []models.Expense{{
			ID:     "e1",
			Amount: 100,
			PaidBy: "A",
			Participants: []models.Participant{
				{UserID: "A", ShareAmount: 50},
				{UserID: "B", ShareAmount: 49},
			},
		}}
		_, err := CalculateBalances(members, expenses)
		if !errors.Is(err, models.ErrUnbalancedLedger) {
			t.Errorf("error = %v, want ErrUnbalancedLedger", err)
		}
	})
}

func TestNetBalances(t *testing.T) {
	net := NetBalances([]MemberBalance{{UserID: "A", Net: 5}, {UserID: "B", Net: -5}})
	if net["A"] != 5 || net["B"] != -5 {
		t.Errorf("NetBalances = %v", net)
	}
}
