// Package auth provides password authentication, JWT sessions and e-mail
// one-time codes.
package auth

import (
	"context"

	"github.com/mmynk/settleup/internal/models"
)

// Authenticator is the credential check behind Register, Login and ResetPassword.
// The service layer only talks to this interface, so another credential type
// can replace passwords without touching RPC code.
type Authenticator interface {
	// Register creates an account. The new user starts with an unverified e-mail.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the user when email and credential match.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ChangeCredential replaces the credential of an existing user.
	ChangeCredential(ctx context.Context, userID, credential string) error

	// ValidateCredential rejects credentials that do not meet policy.
	ValidateCredential(credential string) error
}
