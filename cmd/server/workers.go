package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/recurring"
)

// runRecurring processes due recurring expenses at startup and then on every tick.
func runRecurring(ctx context.Context, processor *recurring.Processor, every time.Duration) {
	slog.Info("Recurring expense scheduler started", "interval", every)

	process := func() {
		report, err := processor.ProcessDue(ctx, time.Now())
		if err != nil {
			if ctx.Err() == nil {
				slog.Error("Recurring expense run failed", "error", err)
			}
			return
		}
		for _, f := range report.Failures {
			if recurring.IsSkip(f) {
				slog.Warn("Recurring occurrence needs manual resolution", "error", f)
			}
		}
	}

	process()

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			process()
		}
	}
}

// runOtpCleanup purges expired one-time codes.
func runOtpCleanup(ctx context.Context, otp *auth.OtpManager, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := otp.Cleanup(ctx)
			if err != nil {
				slog.Error("OTP cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("Expired OTPs removed", "count", n)
			}
		}
	}
}
