package service

import (
	"context"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/money"
	"github.com/mmynk/settleup/internal/recurring"
	"github.com/mmynk/settleup/pkg/api"
)

func sharesByUser(e *api.Expense) map[string]string {
	out := make(map[string]string, len(e.Participants))
	for _, p := range e.Participants {
		out[p.UserId] = p.ShareAmount
	}
	return out
}

func TestAddExpenseSplits(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	a, aToken := env.user(t, "a")
	b, _ := env.user(t, "b")
	c, _ := env.user(t, "c")
	group := env.group(t, aToken, b.ID, c.ID)

	tests := []struct {
		name         string
		amount       string
		splitType    string
		participants []api.Participant
		want         map[string]string
	}{
		{
			name:      "percentage",
			amount:    "100",
			splitType: "percentage",
			participants: []api.Participant{
				{UserId: a.ID, Percentage: "34"},
				{UserId: b.ID, Percentage: "33"},
				{UserId: c.ID, Percentage: "33"},
			},
			want: map[string]string{a.ID: "34.00", b.ID: "33.00", c.ID: "33.00"},
		},
		{
			name:      "exact",
			amount:    "50.50",
			splitType: "EXACT",
			participants: []api.Participant{
				{UserId: a.ID, ExactAmount: "20.25"},
				{UserId: b.ID, ExactAmount: "30,25"},
			},
			want: map[string]string{a.ID: "20.25", b.ID: "30.25"},
		},
		{
			name:      "shares",
			amount:    "90",
			splitType: "shares",
			participants: []api.Participant{
				{UserId: b.ID, Shares: 1},
				{UserId: c.ID, Shares: 2},
			},
			want: map[string]string{b.ID: "30.00", c.ID: "60.00"},
		},
		{
			name:      "percentage of the largest accepted amount",
			amount:    "10000000000000",
			splitType: "percentage",
			participants: []api.Participant{
				{UserId: a.ID, Percentage: "50"},
				{UserId: b.ID, Percentage: "50"},
			},
			want: map[string]string{a.ID: "5000000000000.00", b.ID: "5000000000000.00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := env.groups.AddExpense(ctx, as(aToken, &api.AddExpenseRequest{
				GroupId:      group.Id,
				Description:  tt.name,
				Amount:       tt.amount,
				SplitType:    tt.splitType,
				Participants: tt.participants,
			}))
			if err != nil {
				t.Fatalf("AddExpense failed: %v", err)
			}
			e := resp.Msg.Expense
			if e.PaidBy != a.ID {
				t.Errorf("expected payer to default to the caller, got %s", e.PaidBy)
			}
			if e.Category != models.DefaultCategory {
				t.Errorf("expected default category, got %q", e.Category)
			}
			got := sharesByUser(e)
			for id, want := range tt.want {
				if got[id] != want {
					t.Errorf("share of %s: expected %s, got %s", id, want, got[id])
				}
			}
		})
	}

	t.Run("equal split among the selected members", func(t *testing.T) {
		resp, err := env.groups.AddExpense(ctx, as(aToken, &api.AddExpenseRequest{
			GroupId:      group.Id,
			Amount:       "100",
			Participants: []api.Participant{{UserId: a.ID}, {UserId: b.ID}, {UserId: c.ID}},
		}))
		if err != nil {
			t.Fatalf("AddExpense failed: %v", err)
		}
		e := resp.Msg.Expense
		if len(e.Participants) != 3 {
			t.Fatalf("expected 3 participants, got %d", len(e.Participants))
		}
		var sum money.Amount
		for _, p := range e.Participants {
			sum += money.MustParse(p.ShareAmount)
		}
		if sum != money.MustParse("100") {
			t.Errorf("expected shares to sum to 100.00, got %s", sum)
		}
	})
}

func TestAddExpenseValidation(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	a, aToken := env.user(t, "a")
	b, _ := env.user(t, "b")
	outsider, outsiderToken := env.user(t, "outsider")
	group := env.group(t, aToken, b.ID)

	both := []api.Participant{{UserId: a.ID}, {UserId: b.ID}}
	tests := []struct {
		name string
		req  *api.AddExpenseRequest
	}{
		{"bad amount", &api.AddExpenseRequest{Amount: "ten", Participants: both}},
		{"zero amount", &api.AddExpenseRequest{Amount: "0", Participants: both}},
		{"amount too large", &api.AddExpenseRequest{Amount: "10000000000000.01", SplitType: "percentage", Participants: []api.Participant{
			{UserId: a.ID, Percentage: "50"}, {UserId: b.ID, Percentage: "50"},
		}}},
		{"no participants", &api.AddExpenseRequest{Amount: "100"}},
		{"no participants for an equal split", &api.AddExpenseRequest{Amount: "100", SplitType: "equal"}},
		{"unknown split type", &api.AddExpenseRequest{Amount: "10", SplitType: "random", Participants: both}},
		{"payer outside group", &api.AddExpenseRequest{Amount: "10", PaidBy: outsider.ID, Participants: both}},
		{"participant outside group", &api.AddExpenseRequest{Amount: "10", Participants: []api.Participant{{UserId: outsider.ID}}}},
		{"duplicate participant", &api.AddExpenseRequest{Amount: "10", Participants: []api.Participant{{UserId: a.ID}, {UserId: a.ID}}}},
		{"percentages not 100", &api.AddExpenseRequest{Amount: "10", SplitType: "percentage", Participants: []api.Participant{
			{UserId: a.ID, Percentage: "50"}, {UserId: b.ID, Percentage: "40"},
		}}},
		{"exact amounts do not add up", &api.AddExpenseRequest{Amount: "10", SplitType: "exact", Participants: []api.Participant{
			{UserId: a.ID, ExactAmount: "5"}, {UserId: b.ID, ExactAmount: "4"},
		}}},
		{"zero shares", &api.AddExpenseRequest{Amount: "10", SplitType: "shares", Participants: []api.Participant{
			{UserId: a.ID, Shares: 0}, {UserId: b.ID, Shares: 0},
		}}},
		{"bad interval", &api.AddExpenseRequest{Amount: "10", Participants: both, Recurrence: &api.Recurrence{Interval: "hourly"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.GroupId = group.Id
			_, err := env.groups.AddExpense(ctx, as(aToken, tt.req))
			assertCode(t, err, connect.CodeInvalidArgument)
		})
	}

	t.Run("non-member caller", func(t *testing.T) {
		_, err := env.groups.AddExpense(ctx, as(outsiderToken, &api.AddExpenseRequest{
			GroupId: group.Id, Amount: "10", Participants: both,
		}))
		assertCode(t, err, connect.CodePermissionDenied)
	})

	resp, err := env.groups.ListExpenses(ctx, as(aToken, &api.ListExpensesRequest{GroupId: group.Id, IncludeSettled: true}))
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(resp.Msg.Expenses) != 0 {
		t.Errorf("expected rejected expenses to leave the ledger empty, got %d", len(resp.Msg.Expenses))
	}
}

func TestListAndDeleteExpenses(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	a, aToken := env.user(t, "a")
	b, bToken := env.user(t, "b")
	group := env.group(t, aToken, b.ID)

	add := func(amount, category string) *api.Expense {
		t.Helper()
		resp, err := env.groups.AddExpense(ctx, as(aToken, &api.AddExpenseRequest{
			GroupId:      group.Id,
			Amount:       amount,
			Category:     category,
			Participants: []api.Participant{{UserId: a.ID}, {UserId: b.ID}},
		}))
		if err != nil {
			t.Fatalf("AddExpense failed: %v", err)
		}
		return resp.Msg.Expense
	}

	food := add("20", "Food")
	add("30", "travel")

	resp, err := env.groups.ListExpenses(ctx, as(bToken, &api.ListExpensesRequest{GroupId: group.Id, Category: "FOOD"}))
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(resp.Msg.Expenses) != 1 || resp.Msg.Expenses[0].Id != food.Id {
		t.Fatalf("expected only the food expense, got %v", resp.Msg.Expenses)
	}
	if resp.Msg.Expenses[0].Category != "food" {
		t.Errorf("expected category to be stored lower-case, got %q", resp.Msg.Expenses[0].Category)
	}

	if _, err := env.groups.DeleteExpense(ctx, as(bToken, &api.DeleteExpenseRequest{ExpenseId: food.Id})); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}
	_, err = env.groups.DeleteExpense(ctx, as(aToken, &api.DeleteExpenseRequest{ExpenseId: food.Id}))
	assertCode(t, err, connect.CodeNotFound)

	travel := add("40", "travel")
	if _, err := env.groups.ApplySettlement(ctx, as(aToken, &api.ApplySettlementRequest{GroupId: group.Id})); err != nil {
		t.Fatalf("ApplySettlement failed: %v", err)
	}
	_, err = env.groups.DeleteExpense(ctx, as(aToken, &api.DeleteExpenseRequest{ExpenseId: travel.Id}))
	assertCode(t, err, connect.CodeFailedPrecondition)

	open, err := env.groups.ListExpenses(ctx, as(aToken, &api.ListExpensesRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(open.Msg.Expenses) != 0 {
		t.Errorf("expected no unsettled expenses, got %d", len(open.Msg.Expenses))
	}

	all, err := env.groups.ListExpenses(ctx, as(aToken, &api.ListExpensesRequest{GroupId: group.Id, IncludeSettled: true}))
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(all.Msg.Expenses) != 2 {
		t.Fatalf("expected 2 settled expenses, got %d", len(all.Msg.Expenses))
	}
	for _, e := range all.Msg.Expenses {
		if !e.Settled || e.SettlementId == "" {
			t.Errorf("expected expense %s to be settled, got %+v", e.Id, e)
		}
	}
}

func TestRecurringExpenses(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	a, aToken := env.user(t, "a")
	b, _ := env.user(t, "b")
	group := env.group(t, aToken, b.ID)

	start := time.Date(2026, time.January, 15, 9, 0, 0, 0, time.UTC)
	resp, err := env.groups.AddExpense(ctx, as(aToken, &api.AddExpenseRequest{
		GroupId:      group.Id,
		Description:  "Rent",
		Amount:       "1000",
		Category:     "housing",
		Timestamp:    start.Unix(),
		Participants: []api.Participant{{UserId: a.ID}, {UserId: b.ID}},
		Recurrence:   &api.Recurrence{Interval: "monthly"},
	}))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	tmpl := resp.Msg.Expense
	if tmpl.Recurrence == nil {
		t.Fatal("expected the expense to be recurring")
	}
	if want := start.AddDate(0, 1, 0).Unix(); tmpl.Recurrence.NextDueAt != want {
		t.Errorf("expected next due %d, got %d", want, tmpl.Recurrence.NextDueAt)
	}

	processor := recurring.NewProcessor(env.store, nil, nil, 0)

	report, err := processor.ProcessDue(ctx, time.Date(2026, time.March, 20, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ProcessDue failed: %v", err)
	}
	if report.Materialized != 2 || report.Skipped != 0 {
		t.Fatalf("expected 2 materialized occurrences, got %+v", report)
	}

	// Settle so that b can leave, then the next occurrence has to be skipped.
	if _, err := env.groups.ApplySettlement(ctx, as(aToken, &api.ApplySettlementRequest{GroupId: group.Id})); err != nil {
		t.Fatalf("ApplySettlement failed: %v", err)
	}
	if _, err := env.groups.RemoveMember(ctx, as(aToken, &api.RemoveMemberRequest{GroupId: group.Id, UserId: b.ID})); err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}

	report, err = processor.ProcessDue(ctx, time.Date(2026, time.April, 20, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ProcessDue failed: %v", err)
	}
	if report.Skipped != 1 || len(report.Failures) != 1 || !recurring.IsSkip(report.Failures[0]) {
		t.Fatalf("expected one reported skip, got %+v", report)
	}

	failures, err := env.groups.ListRecurrenceFailures(ctx, as(aToken, &api.ListRecurrenceFailuresRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("ListRecurrenceFailures failed: %v", err)
	}
	if len(failures.Msg.Failures) != 1 {
		t.Fatalf("expected 1 recurrence failure, got %d", len(failures.Msg.Failures))
	}
	f := failures.Msg.Failures[0]
	if f.ExpenseId != tmpl.Id || f.OccurrenceAt != time.Date(2026, time.April, 15, 9, 0, 0, 0, time.UTC).Unix() {
		t.Errorf("unexpected failure %+v", f)
	}

	stopped, err := env.groups.StopRecurring(ctx, as(aToken, &api.StopRecurringRequest{ExpenseId: tmpl.Id}))
	if err != nil {
		t.Fatalf("StopRecurring failed: %v", err)
	}
	if stopped.Msg.Expense.Recurrence != nil {
		t.Error("expected recurrence to be cleared")
	}
	_, err = env.groups.StopRecurring(ctx, as(aToken, &api.StopRecurringRequest{ExpenseId: tmpl.Id}))
	assertCode(t, err, connect.CodeFailedPrecondition)
}
