package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/money"
)

var errInternal = errors.New("internal error")

var errorCodes = []struct {
	target error
	code   connect.Code
}{
	{models.ErrInvalidSplit, connect.CodeInvalidArgument},
	{models.ErrInvalidRecurrence, connect.CodeInvalidArgument},
	{models.ErrInvalidBudget, connect.CodeInvalidArgument},
	{money.ErrInvalidAmount, connect.CodeInvalidArgument},
	{auth.ErrWeakPassword, connect.CodeInvalidArgument},
	{auth.ErrInvalidEmail, connect.CodeInvalidArgument},
	{auth.ErrInvalidOtp, connect.CodeInvalidArgument},
	{auth.ErrOtpExpired, connect.CodeInvalidArgument},

	{models.ErrGroupNotFound, connect.CodeNotFound},
	{models.ErrMemberNotFound, connect.CodeNotFound},
	{models.ErrExpenseNotFound, connect.CodeNotFound},
	{models.ErrBudgetNotFound, connect.CodeNotFound},
	{models.ErrUserNotFound, connect.CodeNotFound},

	{models.ErrNotMember, connect.CodePermissionDenied},
	{auth.ErrAccountLocked, connect.CodePermissionDenied},

	{models.ErrMemberHasExpenses, connect.CodeFailedPrecondition},
	{models.ErrExpenseSettled, connect.CodeFailedPrecondition},
	{models.ErrNotRecurring, connect.CodeFailedPrecondition},
	{models.ErrCannotRemoveOwner, connect.CodeFailedPrecondition},

	{models.ErrDuplicateMember, connect.CodeAlreadyExists},
	{auth.ErrEmailExists, connect.CodeAlreadyExists},

	{auth.ErrInvalidCredentials, connect.CodeUnauthenticated},
	{auth.ErrTooManyRequests, connect.CodeResourceExhausted},

	{context.Canceled, connect.CodeCanceled},
	{context.DeadlineExceeded, connect.CodeDeadlineExceeded},
}

// toConnectError maps a domain error to its Connect code. Anything unrecognized,
// and every unbalanced ledger, is logged and returned as a bare internal error.
func toConnectError(ctx context.Context, m *metrics.Metrics, op string, err error) error {
	var ce *connect.Error
	if errors.As(err, &ce) {
		return ce
	}

	if errors.Is(err, models.ErrUnbalancedLedger) {
		m.Invariant("unbalanced_ledger")
		slog.ErrorContext(ctx, op+" hit an unbalanced ledger", "error", err)
		return connect.NewError(connect.CodeInternal, errInternal)
	}

	for _, ec := range errorCodes {
		if errors.Is(err, ec.target) {
			slog.DebugContext(ctx, op+" rejected", "code", ec.code.String(), "error", err)
			return connect.NewError(ec.code, err)
		}
	}

	slog.ErrorContext(ctx, op+" failed", "error", err)
	return connect.NewError(connect.CodeInternal, errInternal)
}

// invalidArgument reports a malformed request field.
func invalidArgument(msg string) error {
	return connect.NewError(connect.CodeInvalidArgument, errors.New(msg))
}
