package calculator

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/money"
)

// DefaultNearingPercent is the share of a limit at which a budget counts as nearing.
const DefaultNearingPercent = 80

// Thresholds configures budget classification.
type Thresholds struct {
	// NearingPercent is a whole percentage (1-99).
	NearingPercent int64
}

// DefaultThresholds returns the standard 80% nearing threshold.
func DefaultThresholds() Thresholds {
	return Thresholds{NearingPercent: DefaultNearingPercent}
}

// Spent sums userID's shares of the expenses in category whose timestamp falls in
// the given UTC calendar month. Settled expenses count: settling moves money
// between members, it does not undo spending.
func Spent(userID, category string, month, year int, expenses []models.Expense) money.Amount {
	var total money.Amount
	for i := range expenses {
		e := &expenses[i]
		if !strings.EqualFold(e.Category, category) {
			continue
		}
		t := e.Time()
		if t.Year() != year || int(t.Month()) != month {
			continue
		}
		if share, ok := e.ShareOf(userID); ok {
			total += share
		}
	}
	return total
}

// Classify compares spent against limit:
// exceeded when spent >= limit, nearing when spent >= NearingPercent of limit.
func Classify(spent, limit money.Amount, th Thresholds) models.BudgetStatus {
	switch {
	case spent >= limit:
		return models.BudgetExceeded
	case spent.Decimal().Mul(decimal.NewFromInt(100)).GreaterThanOrEqual(limit.Decimal().Mul(decimal.NewFromInt(th.NearingPercent))):
		return models.BudgetNearing
	default:
		return models.BudgetOnTrack
	}
}

// BudgetUsage is one budget with its derived spending.
type BudgetUsage struct {
	Budget         models.Budget
	Spent          money.Amount
	Remaining      money.Amount // never negative
	PercentageUsed money.Percent
	Status         models.BudgetStatus
}

// Summary aggregates a user's budgets for one month.
type Summary struct {
	TotalBudget           money.Amount
	TotalSpent            money.Amount
	TotalRemaining        money.Amount // max(0, TotalBudget - TotalSpent)
	OverallPercentageUsed money.Percent
	Budgets               []BudgetUsage

	ExceededCategories     []string
	NearingLimitCategories []string
}

// Summarize evaluates every active budget of userID for month/year against expenses.
// Budgets are reported in category order.
func Summarize(userID string, month, year int, budgets []models.Budget, expenses []models.Expense, th Thresholds) Summary {
	var s Summary
	for _, b := range budgets {
		if !b.Active || b.OwnerID != userID || b.Month != month || b.Year != year {
			continue
		}
		u := Evaluate(b, expenses, th)
		s.Budgets = append(s.Budgets, u)
		s.TotalBudget += b.MonthlyLimit
		s.TotalSpent += u.Spent

		switch u.Status {
		case models.BudgetExceeded:
			s.ExceededCategories = append(s.ExceededCategories, b.Category)
		case models.BudgetNearing:
			s.NearingLimitCategories = append(s.NearingLimitCategories, b.Category)
		}
	}

	slices.SortFunc(s.Budgets, func(a, b BudgetUsage) int {
		return strings.Compare(a.Budget.Category, b.Budget.Category)
	})
	slices.Sort(s.ExceededCategories)
	slices.Sort(s.NearingLimitCategories)

	s.TotalRemaining = max(0, s.TotalBudget-s.TotalSpent)
	s.OverallPercentageUsed = money.Ratio(s.TotalSpent, s.TotalBudget)
	return s
}

// Evaluate derives the usage of a single budget.
func Evaluate(b models.Budget, expenses []models.Expense, th Thresholds) BudgetUsage {
	spent := Spent(b.OwnerID, b.Category, b.Month, b.Year, expenses)
	return BudgetUsage{
		Budget:         b,
		Spent:          spent,
		Remaining:      max(0, b.MonthlyLimit-spent),
		PercentageUsed: money.Ratio(spent, b.MonthlyLimit),
		Status:         Classify(spent, b.MonthlyLimit, th),
	}
}

// FilterByStatus returns the budgets in s with the given status.
func (s Summary) FilterByStatus(status models.BudgetStatus) []BudgetUsage {
	var out []BudgetUsage
	for _, u := range s.Budgets {
		if u.Status == status {
			out = append(out, u)
		}
	}
	return out
}
