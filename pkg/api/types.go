// Package api holds the settleup.v1 wire messages. Messages travel as JSON;
// money is a decimal string with two places ("12.50"), percentages likewise
// ("33.33"), and times are Unix seconds unless noted.
package api

type User struct {
	Id            string `json:"id"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	EmailVerified bool   `json:"emailVerified"`
	CreatedAt     int64  `json:"createdAt"`
}

type Member struct {
	UserId string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
}

type Group struct {
	Id        string   `json:"id"`
	Name      string   `json:"name"`
	Currency  string   `json:"currency"`
	CreatedBy string   `json:"createdBy"`
	Members   []Member `json:"members"`
	CreatedAt int64    `json:"createdAt"`
}

// Participant carries the rule input for its split type (percentage, exactAmount
// or shares) and, in responses, the computed shareAmount.
type Participant struct {
	UserId      string `json:"userId"`
	Percentage  string `json:"percentage,omitempty"`
	ExactAmount string `json:"exactAmount,omitempty"`
	Shares      int64  `json:"shares,omitempty"`
	ShareAmount string `json:"shareAmount,omitempty"`
}

type Recurrence struct {
	Interval  string `json:"interval"`
	NextDueAt int64  `json:"nextDueAt,omitempty"`
}

type Expense struct {
	Id              string        `json:"id"`
	GroupId         string        `json:"groupId"`
	Description     string        `json:"description"`
	Amount          string        `json:"amount"`
	PaidBy          string        `json:"paidBy"`
	SplitType       string        `json:"splitType"`
	Participants    []Participant `json:"participants"`
	Category        string        `json:"category"`
	Notes           string        `json:"notes,omitempty"`
	Timestamp       int64         `json:"timestamp"`
	Settled         bool          `json:"settled"`
	SettlementId    string        `json:"settlementId,omitempty"`
	Recurrence      *Recurrence   `json:"recurrence,omitempty"`
	SourceExpenseId string        `json:"sourceExpenseId,omitempty"`
	CreatedBy       string        `json:"createdBy"`
	CreatedAt       int64         `json:"createdAt"`
}

type Transfer struct {
	FromUserId string `json:"fromUserId"`
	ToUserId   string `json:"toUserId"`
	Amount     string `json:"amount"`
}

// Balance is one member's position: positive net means the group owes them.
type Balance struct {
	UserId string `json:"userId"`
	Net    string `json:"net"`
	Paid   string `json:"paid"`
	Owed   string `json:"owed"`
}

type Settlement struct {
	Id           string     `json:"id"`
	GroupId      string     `json:"groupId"`
	SettledBy    string     `json:"settledBy"`
	Transfers    []Transfer `json:"transfers"`
	ExpenseCount int        `json:"expenseCount"`
	CreatedAt    int64      `json:"createdAt"`
}

type RecurrenceFailure struct {
	Id           string `json:"id"`
	ExpenseId    string `json:"expenseId"`
	GroupId      string `json:"groupId"`
	OccurrenceAt int64  `json:"occurrenceAt"`
	Reason       string `json:"reason"`
	CreatedAt    int64  `json:"createdAt"`
}

type Budget struct {
	Id           string `json:"id"`
	UserId       string `json:"userId"`
	Category     string `json:"category"`
	MonthlyLimit string `json:"monthlyLimit"`
	Month        int    `json:"month"`
	Year         int    `json:"year"`
}

// BudgetUsage is a budget with the month's spending.
type BudgetUsage struct {
	Budget         Budget `json:"budget"`
	Spent          string `json:"spent"`
	Remaining      string `json:"remaining"`
	PercentageUsed string `json:"percentageUsed"`
	Status         string `json:"status"`
}
