package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/mmynk/settleup/internal/models"
)

var otpSubjects = map[models.OtpPurpose]string{
	models.OtpSignup: "Verify your settleup account",
	models.OtpLogin:  "Your settleup sign-in code",
	models.OtpReset:  "Reset your settleup password",
}

// Emails renders the application's messages and hands them to a Mailer.
type Emails struct {
	mailer Mailer
}

// NewEmails wraps mailer.
func NewEmails(mailer Mailer) *Emails {
	return &Emails{mailer: mailer}
}

// SendOtp e-mails a one-time code.
func (e *Emails) SendOtp(ctx context.Context, to, code string, purpose models.OtpPurpose, validFor time.Duration) error {
	subject, ok := otpSubjects[purpose]
	if !ok {
		subject = "Your settleup code"
	}
	text := fmt.Sprintf(`Your code is %s

It expires in %s. If you did not ask for it, ignore this e-mail.`, code, validFor)
	html := fmt.Sprintf(`<p>Your code is <strong style="font-size:1.4em;letter-spacing:0.2em">%s</strong></p>
<p>It expires in %s. If you did not ask for it, ignore this e-mail.</p>`, code, validFor)

	return e.mailer.Send(ctx, Message{
		To:      to,
		Subject: subject,
		Text:    text,
		HTML:    html,
		Tag:     "otp-" + string(purpose),
	})
}

// SendRecurrenceFailure tells a payer that an occurrence of their recurring
// expense was skipped.
func (e *Emails) SendRecurrenceFailure(ctx context.Context, to string, expense *models.Expense, f models.RecurrenceFailure) error {
	when := time.Unix(f.OccurrenceAt, 0).UTC().Format("2 Jan 2006")
	text := fmt.Sprintf(`The recurring expense %q (%s) was not added on %s.

Reason: %s

Add it by hand if it is still owed, or stop the recurrence.`,
		expense.Description, expense.Amount, when, f.Reason)

	return e.mailer.Send(ctx, Message{
		To:      to,
		Subject: fmt.Sprintf("Recurring expense skipped: %s", expense.Description),
		Text:    text,
		Tag:     "recurrence-failure",
	})
}
