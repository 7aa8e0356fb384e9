package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/money"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/pkg/api"
)

var errOtherUser = errors.New("budgets can only be read by their owner")

// BudgetService implements the Connect BudgetService. Spending is derived
// from the ledger on every call; nothing about it is stored.
type BudgetService struct {
	store      storage.Store
	thresholds calculator.Thresholds
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewBudgetService creates a BudgetService. m may be nil.
func NewBudgetService(store storage.Store, th calculator.Thresholds, m *metrics.Metrics) *BudgetService {
	return &BudgetService{store: store, thresholds: th, metrics: m, now: time.Now}
}

// period resolves month/year, defaulting either one to the current UTC month.
func (s *BudgetService) period(month, year int) (int, int, error) {
	now := s.now().UTC()
	if month == 0 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("%w: month must be 1-12", models.ErrInvalidBudget)
	}
	if year < 1970 || year > 9999 {
		return 0, 0, fmt.Errorf("%w: year %d is out of range", models.ErrInvalidBudget, year)
	}
	return month, year, nil
}

// monthRange is [first second of the month, first second of the next) in UTC.
func monthRange(month, year int) (int64, int64) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start.Unix(), start.AddDate(0, 1, 0).Unix()
}

// owner returns the caller, rejecting a userID that names someone else.
func owner(ctx context.Context, userID string) (string, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	if userID != "" && userID != caller {
		return "", connect.NewError(connect.CodePermissionDenied, errOtherUser)
	}
	return caller, nil
}

// summarize evaluates every active budget of userID for the month.
func (s *BudgetService) summarize(ctx context.Context, userID string, month, year int) (calculator.Summary, error) {
	budgets, err := s.store.ListBudgets(ctx, userID, month, year)
	if err != nil {
		return calculator.Summary{}, err
	}
	start, end := monthRange(month, year)
	expenses, err := s.store.ListUserExpenses(ctx, userID, start, end)
	if err != nil {
		return calculator.Summary{}, err
	}
	return calculator.Summarize(userID, month, year, budgets, expenses, s.thresholds), nil
}

// evaluate derives the usage of one budget.
func (s *BudgetService) evaluate(ctx context.Context, b *models.Budget) (calculator.BudgetUsage, error) {
	start, end := monthRange(b.Month, b.Year)
	expenses, err := s.store.ListUserExpenses(ctx, b.OwnerID, start, end)
	if err != nil {
		return calculator.BudgetUsage{}, err
	}
	return calculator.Evaluate(*b, expenses, s.thresholds), nil
}

// ownBudget loads a budget of the caller. Other users' budgets read as missing.
func (s *BudgetService) ownBudget(ctx context.Context, budgetID string) (*models.Budget, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if budgetID == "" {
		return nil, invalidArgument("budget_id is required")
	}
	b, err := s.store.GetBudget(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	if b.OwnerID != caller {
		return nil, models.ErrBudgetNotFound
	}
	return b, nil
}

// SetBudget creates the caller's budget for a category and month, or updates its limit.
func (s *BudgetService) SetBudget(ctx context.Context, req *connect.Request[api.SetBudgetRequest]) (*connect.Response[api.SetBudgetResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("SetBudget request received",
		"user_id", userID,
		"category", req.Msg.Category,
		"limit", req.Msg.MonthlyLimit,
	)

	category := strings.ToLower(strings.TrimSpace(req.Msg.Category))
	if category == "" {
		return nil, toConnectError(ctx, s.metrics, "SetBudget", fmt.Errorf("%w: category is required", models.ErrInvalidBudget))
	}
	limit, err := money.Parse(req.Msg.MonthlyLimit)
	if err != nil || limit <= 0 {
		return nil, toConnectError(ctx, s.metrics, "SetBudget", fmt.Errorf("%w: monthly limit must be a positive amount", models.ErrInvalidBudget))
	}
	month, year, err := s.period(req.Msg.Month, req.Msg.Year)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "SetBudget", err)
	}

	b := &models.Budget{
		OwnerID:      userID,
		Category:     category,
		MonthlyLimit: limit,
		Month:        month,
		Year:         year,
		Active:       true,
	}
	if err := s.store.UpsertBudget(ctx, b); err != nil {
		return nil, toConnectError(ctx, s.metrics, "SetBudget", err)
	}

	usage, err := s.evaluate(ctx, b)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "SetBudget", err)
	}

	slog.Info("Budget saved", "budget_id", b.ID, "status", usage.Status)
	return connect.NewResponse(&api.SetBudgetResponse{Budget: budgetUsageToAPI(usage)}), nil
}

// GetBudget returns one of the caller's budgets with its spending.
func (s *BudgetService) GetBudget(ctx context.Context, req *connect.Request[api.GetBudgetRequest]) (*connect.Response[api.GetBudgetResponse], error) {
	b, err := s.ownBudget(ctx, req.Msg.BudgetId)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "GetBudget", err)
	}
	usage, err := s.evaluate(ctx, b)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "GetBudget", err)
	}
	return connect.NewResponse(&api.GetBudgetResponse{Budget: budgetUsageToAPI(usage)}), nil
}

// ListBudgets returns the caller's budgets for a month, in category order.
func (s *BudgetService) ListBudgets(ctx context.Context, req *connect.Request[api.ListBudgetsRequest]) (*connect.Response[api.ListBudgetsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	month, year, err := s.period(req.Msg.Month, req.Msg.Year)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "ListBudgets", err)
	}

	summary, err := s.summarize(ctx, userID, month, year)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "ListBudgets", err)
	}
	return connect.NewResponse(&api.ListBudgetsResponse{Budgets: budgetUsagesToAPI(summary.Budgets)}), nil
}

// DeleteBudget deactivates one of the caller's budgets.
func (s *BudgetService) DeleteBudget(ctx context.Context, req *connect.Request[api.DeleteBudgetRequest]) (*connect.Response[api.DeleteBudgetResponse], error) {
	b, err := s.ownBudget(ctx, req.Msg.BudgetId)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "DeleteBudget", err)
	}
	if err := s.store.DeactivateBudget(ctx, b.ID); err != nil {
		return nil, toConnectError(ctx, s.metrics, "DeleteBudget", err)
	}

	slog.Info("Budget deleted", "budget_id", b.ID, "category", b.Category)
	return connect.NewResponse(&api.DeleteBudgetResponse{}), nil
}

// BudgetSummary aggregates the user's budgets for a month.
func (s *BudgetService) BudgetSummary(ctx context.Context, req *connect.Request[api.BudgetSummaryRequest]) (*connect.Response[api.BudgetSummaryResponse], error) {
	userID, err := owner(ctx, req.Msg.UserId)
	if err != nil {
		return nil, err
	}
	month, year, err := s.period(req.Msg.Month, req.Msg.Year)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "BudgetSummary", err)
	}

	summary, err := s.summarize(ctx, userID, month, year)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "BudgetSummary", err)
	}

	return connect.NewResponse(&api.BudgetSummaryResponse{
		Month:                  month,
		Year:                   year,
		TotalBudget:            summary.TotalBudget.String(),
		TotalSpent:             summary.TotalSpent.String(),
		TotalRemaining:         summary.TotalRemaining.String(),
		OverallPercentageUsed:  summary.OverallPercentageUsed.String(),
		Budgets:                budgetUsagesToAPI(summary.Budgets),
		ExceededCategories:     orEmpty(summary.ExceededCategories),
		NearingLimitCategories: orEmpty(summary.NearingLimitCategories),
	}), nil
}

// ExceededBudgets lists the budgets whose spending reached the limit.
func (s *BudgetService) ExceededBudgets(ctx context.Context, req *connect.Request[api.BudgetFilterRequest]) (*connect.Response[api.BudgetFilterResponse], error) {
	return s.filter(ctx, "ExceededBudgets", req.Msg, models.BudgetExceeded)
}

// NearingLimit lists the budgets past the nearing threshold but not yet exceeded.
func (s *BudgetService) NearingLimit(ctx context.Context, req *connect.Request[api.BudgetFilterRequest]) (*connect.Response[api.BudgetFilterResponse], error) {
	return s.filter(ctx, "NearingLimit", req.Msg, models.BudgetNearing)
}

func (s *BudgetService) filter(ctx context.Context, op string, msg *api.BudgetFilterRequest, status models.BudgetStatus) (*connect.Response[api.BudgetFilterResponse], error) {
	userID, err := owner(ctx, msg.UserId)
	if err != nil {
		return nil, err
	}
	month, year, err := s.period(msg.Month, msg.Year)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, op, err)
	}

	summary, err := s.summarize(ctx, userID, month, year)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, op, err)
	}
	return connect.NewResponse(&api.BudgetFilterResponse{
		Budgets: budgetUsagesToAPI(summary.FilterByStatus(status)),
	}), nil
}
