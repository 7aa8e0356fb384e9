package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/money"
	"github.com/mmynk/settleup/internal/recurring"
	"github.com/mmynk/settleup/pkg/api"
)

// normalizeCategory lower-cases a category so budgets match it regardless of case.
func normalizeCategory(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return models.DefaultCategory
	}
	return category
}

// buildExpense validates a request against the group and computes the shares.
// Every validation failure wraps models.ErrInvalidSplit or models.ErrInvalidRecurrence.
func buildExpense(group *models.Group, userID string, msg *api.AddExpenseRequest, now time.Time) (*models.Expense, error) {
	amount, err := money.Parse(msg.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: amount: %v", models.ErrInvalidSplit, err)
	}
	splitType, err := models.ParseSplitType(msg.SplitType)
	if err != nil {
		return nil, err
	}

	paidBy := msg.PaidBy
	if paidBy == "" {
		paidBy = userID
	}
	if !group.HasMember(paidBy) {
		return nil, fmt.Errorf("%w: payer %s is not a member of the group", models.ErrInvalidSplit, paidBy)
	}

	participants, err := participantsFromAPI(splitType, msg.Participants)
	if err != nil {
		return nil, err
	}
	for _, p := range participants {
		if !group.HasMember(p.UserID) {
			return nil, fmt.Errorf("%w: participant %s is not a member of the group", models.ErrInvalidSplit, p.UserID)
		}
	}
	shares, err := calculator.SplitShares(amount, splitType, participants)
	if err != nil {
		return nil, err
	}

	ts := msg.Timestamp
	if ts == 0 {
		ts = now.Unix()
	}

	expense := &models.Expense{
		GroupID:      group.ID,
		Description:  strings.TrimSpace(msg.Description),
		Amount:       amount,
		PaidBy:       paidBy,
		SplitType:    splitType,
		Participants: shares,
		Category:     normalizeCategory(msg.Category),
		Notes:        msg.Notes,
		Timestamp:    ts,
		CreatedBy:    userID,
	}

	if msg.Recurrence != nil && msg.Recurrence.Interval != "" {
		interval, err := models.ParseInterval(msg.Recurrence.Interval)
		if err != nil {
			return nil, err
		}
		expense.Recurrence, err = recurring.NewRecurrence(time.Unix(ts, 0), interval)
		if err != nil {
			return nil, err
		}
	}
	return expense, nil
}

// AddExpense records an expense in the group's ledger. Nothing is written when
// the split does not validate.
func (s *GroupService) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	slog.Info("AddExpense request received",
		"group_id", req.Msg.GroupId,
		"amount", req.Msg.Amount,
		"split_type", req.Msg.SplitType,
		"participants_count", len(req.Msg.Participants),
	)

	group, userID, err := s.memberGroup(ctx, req.Msg.GroupId)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "AddExpense", err)
	}

	expense, err := buildExpense(group, userID, req.Msg, time.Now())
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "AddExpense", err)
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, toConnectError(ctx, s.metrics, "AddExpense", err)
	}

	for _, p := range expense.Participants {
		slog.Debug("Participant share", "user_id", p.UserID, "share", p.ShareAmount)
	}
	slog.Info("Expense created",
		"expense_id", expense.ID,
		"group_id", group.ID,
		"recurring", expense.Recurrence != nil,
	)
	return connect.NewResponse(&api.AddExpenseResponse{Expense: expenseToAPI(expense)}), nil
}

// ListExpenses returns a group's expenses, newest first.
func (s *GroupService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	group, _, err := s.memberGroup(ctx, req.Msg.GroupId)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "ListExpenses", err)
	}

	filter := models.ExpenseFilter{
		Start:          req.Msg.Start,
		End:            req.Msg.End,
		IncludeSettled: req.Msg.IncludeSettled,
	}
	if req.Msg.Category != "" {
		filter.Category = normalizeCategory(req.Msg.Category)
	}

	expenses, err := s.store.ListExpenses(ctx, group.ID, filter)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "ListExpenses", err)
	}

	out := make([]*api.Expense, len(expenses))
	for i := range expenses {
		out[i] = expenseToAPI(&expenses[i])
	}
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// memberExpense loads an expense from a group the caller belongs to.
func (s *GroupService) memberExpense(ctx context.Context, expenseID string) (*models.Expense, string, error) {
	if expenseID == "" {
		return nil, "", invalidArgument("expense_id is required")
	}
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, "", err
	}
	_, userID, err := s.memberGroup(ctx, expense.GroupID)
	if err != nil {
		return nil, "", err
	}
	return expense, userID, nil
}

// DeleteExpense removes an unsettled expense.
func (s *GroupService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	expense, userID, err := s.memberExpense(ctx, req.Msg.ExpenseId)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "DeleteExpense", err)
	}

	if err := s.store.DeleteExpense(ctx, expense.ID); err != nil {
		return nil, toConnectError(ctx, s.metrics, "DeleteExpense", err)
	}

	slog.Info("Expense deleted", "expense_id", expense.ID, "group_id", expense.GroupID, "user_id", userID)
	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

// StopRecurring ends a recurring template. Occurrences already created stay.
func (s *GroupService) StopRecurring(ctx context.Context, req *connect.Request[api.StopRecurringRequest]) (*connect.Response[api.StopRecurringResponse], error) {
	expense, userID, err := s.memberExpense(ctx, req.Msg.ExpenseId)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "StopRecurring", err)
	}
	if expense.Recurrence == nil {
		return nil, toConnectError(ctx, s.metrics, "StopRecurring", models.ErrNotRecurring)
	}

	if err := s.store.StopRecurring(ctx, expense.ID); err != nil {
		return nil, toConnectError(ctx, s.metrics, "StopRecurring", err)
	}
	expense.Recurrence = nil

	slog.Info("Recurring expense stopped", "expense_id", expense.ID, "user_id", userID)
	return connect.NewResponse(&api.StopRecurringResponse{Expense: expenseToAPI(expense)}), nil
}

// ListRecurrenceFailures returns the skipped occurrences awaiting manual resolution.
func (s *GroupService) ListRecurrenceFailures(ctx context.Context, req *connect.Request[api.ListRecurrenceFailuresRequest]) (*connect.Response[api.ListRecurrenceFailuresResponse], error) {
	group, _, err := s.memberGroup(ctx, req.Msg.GroupId)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "ListRecurrenceFailures", err)
	}

	failures, err := s.store.ListRecurrenceFailures(ctx, group.ID)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "ListRecurrenceFailures", err)
	}

	out := make([]*api.RecurrenceFailure, len(failures))
	for i := range failures {
		out[i] = failureToAPI(&failures[i])
	}
	return connect.NewResponse(&api.ListRecurrenceFailuresResponse{Failures: out}), nil
}
