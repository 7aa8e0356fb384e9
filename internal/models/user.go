package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered user account.
// Group members are users; a member's identity is the user ID.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Email is the user's email address (unique, lower-cased).
	// Used for login, OTP delivery and notifications.
	Email string

	// DisplayName is the name shown to other group members.
	DisplayName string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// EmailVerified is set once a signup OTP has been verified.
	EmailVerified bool

	// LockedUntil is the Unix timestamp until which OTP verification is refused.
	// Zero means the account is not locked.
	LockedUntil int64

	// CreatedAt is the Unix timestamp when the user account was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last change to the account.
	UpdatedAt int64
}

// NewUser creates a user with a fresh ID and timestamps.
func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsLocked reports whether the account is locked at the given time.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil > now.Unix()
}
