// Package models defines the core domain models for settleup.
//
// # Ledger
//
// The ledger is a group's list of expenses:
//   - Group: a set of members who share expenses
//   - Expense: one payment by a member, divided among participants by a split rule
//   - Participant: one member's rule input and computed share of an expense
//
// # Settlement
//
//   - Transfer: "From pays To Amount", the unit of a settlement plan
//   - SettlementBatch: the record of one applied settlement
//
// # Budgets
//
//   - Budget: a monthly spending limit for one category of one user
//
// # Accounts
//
//   - User: a registered account, referenced by group members
//   - Otp: a one-time e-mail code for signup, login or password reset
//
// # Conventions
//
//  1. Money is always money.Amount (integer minor units), never float64.
//  2. Relationships are ID strings, never pointers.
//  3. Timestamps are Unix seconds (UTC).
//  4. Failure modes are the sentinel errors in errors.go; callers match them with errors.Is.
package models
