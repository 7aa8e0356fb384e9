package models

import "errors"

// Ledger and settlement errors.
var (
	// ErrInvalidSplit means an expense's split rule or participant shares are malformed.
	ErrInvalidSplit = errors.New("invalid split")

	// ErrUnbalancedLedger means balances did not sum to zero. It indicates a defect,
	// not bad input, and is never shown to users verbatim.
	ErrUnbalancedLedger = errors.New("ledger is unbalanced")

	ErrGroupNotFound   = errors.New("group not found")
	ErrMemberNotFound  = errors.New("member not found")
	ErrExpenseNotFound = errors.New("expense not found")

	// ErrAlreadySettled means there was nothing left to settle. Callers treat it as success.
	ErrAlreadySettled = errors.New("group already settled")

	// ErrRecurrenceMaterializationFailed means a due occurrence of a recurring expense was
	// skipped and recorded for manual resolution.
	ErrRecurrenceMaterializationFailed = errors.New("recurring expense could not be materialized")

	ErrNotMember         = errors.New("user is not a member of this group")
	ErrExpenseSettled    = errors.New("expense is already settled")
	ErrMemberHasExpenses = errors.New("member has unsettled expenses")
	ErrCannotRemoveOwner = errors.New("group creator cannot be removed")
	ErrInvalidRecurrence = errors.New("invalid recurrence")
	ErrNotRecurring      = errors.New("expense is not recurring")
	ErrDuplicateMember   = errors.New("user is already a member of this group")
)

// Budget errors.
var (
	ErrBudgetNotFound = errors.New("budget not found")
	ErrInvalidBudget  = errors.New("invalid budget")
)

// Account errors.
var (
	ErrUserNotFound = errors.New("user not found")
)
