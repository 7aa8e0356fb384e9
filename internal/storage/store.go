// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/mmynk/settleup/internal/models"
)

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser inserts a new user. The user's ID and timestamps must be set.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns models.ErrUserNotFound when no user has the address.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns models.ErrUserNotFound when the user does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUsersByIDs returns the users that exist, keyed by ID.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// UpdatePassword replaces the user's password hash.
	UpdatePassword(ctx context.Context, userID, passwordHash string) error

	// SetEmailVerified marks the user's e-mail as verified.
	SetEmailVerified(ctx context.Context, userID string) error

	// SetLockedUntil locks OTP verification until the given Unix time (0 unlocks).
	SetLockedUntil(ctx context.Context, userID string, until int64) error
}

// GroupStore persists groups and their membership.
type GroupStore interface {
	// CreateGroup inserts the group and its members. ID and CreatedAt are
	// populated by the store when empty.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup returns models.ErrGroupNotFound when the group does not exist.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsForUser returns the groups userID is a member of, newest first.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)

	// DeleteGroup removes the group with its ledger and settlement history.
	DeleteGroup(ctx context.Context, groupID string) error

	// AddMember returns models.ErrDuplicateMember if the user is already a member.
	AddMember(ctx context.Context, groupID, userID string) error

	// RemoveMember refuses with models.ErrMemberHasExpenses while the member pays
	// for or participates in an unsettled expense.
	RemoveMember(ctx context.Context, groupID, userID string) error
}

// ExpenseStore persists the ledger.
type ExpenseStore interface {
	// CreateExpense inserts the expense with its participants. ID and CreatedAt
	// are populated by the store when empty.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense returns models.ErrExpenseNotFound when the expense does not exist.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpenses returns a group's expenses matching filter, newest first.
	ListExpenses(ctx context.Context, groupID string, filter models.ExpenseFilter) ([]models.Expense, error)

	// ListUserExpenses returns every expense userID participates in with a
	// timestamp in [start, end), across all groups.
	ListUserExpenses(ctx context.Context, userID string, start, end int64) ([]models.Expense, error)

	// DeleteExpense refuses with models.ErrExpenseSettled once the expense is settled.
	DeleteExpense(ctx context.Context, expenseID string) error

	// StopRecurring clears the recurrence of a template.
	StopRecurring(ctx context.Context, expenseID string) error
}

// RecurringStore backs the recurring expense processor.
type RecurringStore interface {
	DueRecurringExpenses(ctx context.Context, now int64) ([]models.Expense, error)
	MaterializeOccurrence(ctx context.Context, templateID string, dueAt, nextDueAt int64, occurrence *models.Expense) (bool, error)
	SkipOccurrence(ctx context.Context, templateID string, dueAt, nextDueAt int64, failure *models.RecurrenceFailure) (bool, error)
	ListRecurrenceFailures(ctx context.Context, groupID string) ([]models.RecurrenceFailure, error)
}

// Ledger is a consistent snapshot of a group and its unsettled expenses.
type Ledger struct {
	Group    *models.Group
	Expenses []models.Expense
}

// PlanFunc computes a settlement plan for a ledger snapshot.
type PlanFunc func(ledger *Ledger) ([]models.Transfer, error)

// LedgerStore provides snapshot reads and atomic settlement.
type LedgerStore interface {
	// GroupLedger reads the group, its members and its unsettled expenses in one
	// read transaction.
	GroupLedger(ctx context.Context, groupID string) (*Ledger, error)

	// SettleGroup marks every unsettled expense of the group as settled and records
	// a batch with the plan computed by plan over exactly those expenses, all in one
	// write transaction. It returns models.ErrAlreadySettled, writing nothing, when
	// there are no unsettled expenses.
	SettleGroup(ctx context.Context, groupID, settledBy string, plan PlanFunc) (*models.SettlementBatch, error)

	// ListSettlements returns a group's settlement batches, newest first.
	ListSettlements(ctx context.Context, groupID string) ([]models.SettlementBatch, error)
}

// BudgetStore persists budgets.
type BudgetStore interface {
	// UpsertBudget creates the active budget for (owner, category, month, year) or
	// updates its limit. The stored ID is written back into budget.
	UpsertBudget(ctx context.Context, budget *models.Budget) error

	// GetBudget returns models.ErrBudgetNotFound for missing or deleted budgets.
	GetBudget(ctx context.Context, budgetID string) (*models.Budget, error)

	// ListBudgets returns the active budgets of ownerID for month/year.
	ListBudgets(ctx context.Context, ownerID string, month, year int) ([]models.Budget, error)

	// DeactivateBudget soft-deletes a budget.
	DeactivateBudget(ctx context.Context, budgetID string) error
}

// OtpStore persists one-time codes.
type OtpStore interface {
	CreateOtp(ctx context.Context, otp *models.Otp) error

	// LatestOtp returns the newest unused code for user and purpose, or nil.
	LatestOtp(ctx context.Context, userID string, purpose models.OtpPurpose) (*models.Otp, error)

	// IncrementOtpAttempts returns the attempt count after incrementing.
	IncrementOtpAttempts(ctx context.Context, otpID string) (int, error)

	MarkOtpUsed(ctx context.Context, otpID string) error

	// DeleteExpiredOtps removes codes that expired before now and reports how many.
	DeleteExpiredOtps(ctx context.Context, now int64) (int64, error)
}

// Store combines every storage concern.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	UserStore
	GroupStore
	ExpenseStore
	RecurringStore
	LedgerStore
	BudgetStore
	OtpStore

	// Close releases any resources held by the store.
	Close() error
}
