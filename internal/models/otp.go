package models

import (
	"fmt"
	"strings"
)

// OtpPurpose says what a one-time code unlocks.
type OtpPurpose string

const (
	OtpSignup OtpPurpose = "signup"
	OtpLogin  OtpPurpose = "login"
	OtpReset  OtpPurpose = "reset"
)

// ParseOtpPurpose accepts the lower- or upper-case purpose name.
func ParseOtpPurpose(s string) (OtpPurpose, error) {
	switch p := OtpPurpose(strings.ToLower(strings.TrimSpace(s))); p {
	case OtpSignup, OtpLogin, OtpReset:
		return p, nil
	default:
		return "", fmt.Errorf("unknown OTP purpose %q", s)
	}
}

// Otp is a one-time code sent by e-mail.
type Otp struct {
	ID        string
	UserID    string
	Code      string
	Purpose   OtpPurpose
	ExpiresAt int64
	Attempts  int
	Used      bool
	CreatedAt int64
}
