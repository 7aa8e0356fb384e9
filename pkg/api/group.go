package api

type CreateGroupRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency,omitempty"`
	// MemberIds are added alongside the caller, who is always a member.
	MemberIds []string `json:"memberIds,omitempty"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupId string `json:"groupId"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type DeleteGroupRequest struct {
	GroupId string `json:"groupId"`
}

type DeleteGroupResponse struct{}

// AddMemberRequest names the user by id or by e-mail.
type AddMemberRequest struct {
	GroupId string `json:"groupId"`
	UserId  string `json:"userId,omitempty"`
	Email   string `json:"email,omitempty"`
}

type AddMemberResponse struct {
	Group *Group `json:"group"`
}

type RemoveMemberRequest struct {
	GroupId string `json:"groupId"`
	UserId  string `json:"userId"`
}

type RemoveMemberResponse struct {
	Group *Group `json:"group"`
}

type AddExpenseRequest struct {
	GroupId      string        `json:"groupId"`
	Description  string        `json:"description"`
	Amount       string        `json:"amount"`
	PaidBy       string        `json:"paidBy"`
	SplitType    string        `json:"splitType"`
	Participants []Participant `json:"participants"`
	Category     string        `json:"category,omitempty"`
	Notes        string        `json:"notes,omitempty"`
	// Timestamp defaults to now.
	Timestamp int64 `json:"timestamp,omitempty"`
	// Recurrence makes the expense a template; only Interval is read.
	Recurrence *Recurrence `json:"recurrence,omitempty"`
}

type AddExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type ListExpensesRequest struct {
	GroupId        string `json:"groupId"`
	Category       string `json:"category,omitempty"`
	Start          int64  `json:"start,omitempty"`
	End            int64  `json:"end,omitempty"`
	IncludeSettled bool   `json:"includeSettled,omitempty"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type DeleteExpenseRequest struct {
	ExpenseId string `json:"expenseId"`
}

type DeleteExpenseResponse struct{}

type StopRecurringRequest struct {
	ExpenseId string `json:"expenseId"`
}

type StopRecurringResponse struct {
	Expense *Expense `json:"expense"`
}

type ComputeBalancesRequest struct {
	GroupId string `json:"groupId"`
}

// ComputeBalancesResponse maps member id to net balance and also lists the
// per-member detail sorted by id.
type ComputeBalancesResponse struct {
	Balances map[string]string `json:"balances"`
	Members  []Balance         `json:"members"`
}

type PlanSettlementRequest struct {
	GroupId string `json:"groupId"`
}

type PlanSettlementResponse struct {
	Transfers []Transfer `json:"transfers"`
}

type ApplySettlementRequest struct {
	GroupId string `json:"groupId"`
}

// ApplySettlementResponse reports AlreadySettled=true, with no settlement, when
// nothing was left to settle.
type ApplySettlementResponse struct {
	SettlementId   string     `json:"settlementId,omitempty"`
	AlreadySettled bool       `json:"alreadySettled"`
	Transfers      []Transfer `json:"transfers"`
	ExpenseCount   int        `json:"expenseCount"`
}

type ListSettlementsRequest struct {
	GroupId string `json:"groupId"`
}

type ListSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
}

type ListRecurrenceFailuresRequest struct {
	GroupId string `json:"groupId"`
}

type ListRecurrenceFailuresResponse struct {
	Failures []*RecurrenceFailure `json:"failures"`
}
