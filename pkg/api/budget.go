package api

// Month and year default to the current UTC month when zero. UserId defaults
// to the caller and must equal the caller when set.

type SetBudgetRequest struct {
	Category     string `json:"category"`
	MonthlyLimit string `json:"monthlyLimit"`
	Month        int    `json:"month,omitempty"`
	Year         int    `json:"year,omitempty"`
}

type SetBudgetResponse struct {
	Budget *BudgetUsage `json:"budget"`
}

type GetBudgetRequest struct {
	BudgetId string `json:"budgetId"`
}

type GetBudgetResponse struct {
	Budget *BudgetUsage `json:"budget"`
}

type ListBudgetsRequest struct {
	Month int `json:"month,omitempty"`
	Year  int `json:"year,omitempty"`
}

type ListBudgetsResponse struct {
	Budgets []*BudgetUsage `json:"budgets"`
}

type DeleteBudgetRequest struct {
	BudgetId string `json:"budgetId"`
}

type DeleteBudgetResponse struct{}

type BudgetSummaryRequest struct {
	UserId string `json:"userId,omitempty"`
	Month  int    `json:"month,omitempty"`
	Year   int    `json:"year,omitempty"`
}

type BudgetSummaryResponse struct {
	Month                  int            `json:"month"`
	Year                   int            `json:"year"`
	TotalBudget            string         `json:"totalBudget"`
	TotalSpent             string         `json:"totalSpent"`
	TotalRemaining         string         `json:"totalRemaining"`
	OverallPercentageUsed  string         `json:"overallPercentageUsed"`
	Budgets                []*BudgetUsage `json:"budgets"`
	ExceededCategories     []string       `json:"exceededCategories"`
	NearingLimitCategories []string       `json:"nearingLimitCategories"`
}

// BudgetFilterRequest is shared by ExceededBudgets and NearingLimit.
type BudgetFilterRequest struct {
	UserId string `json:"userId,omitempty"`
	Month  int    `json:"month,omitempty"`
	Year   int    `json:"year,omitempty"`
}

type BudgetFilterResponse struct {
	Budgets []*BudgetUsage `json:"budgets"`
}
