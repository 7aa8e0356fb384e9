// Command notifier consumes recurrence failure events and e-mails the payer
// of the affected recurring expense.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mmynk/settleup/internal/config"
	"github.com/mmynk/settleup/internal/notify"
	"github.com/mmynk/settleup/internal/storage/sqlite"
	"github.com/mmynk/settleup/pkg/logging"
)

func main() {
	cfg := config.Load()
	logging.SetupWith(logging.ParseLevel(cfg.LogLevel), logging.ParseFormat(cfg.LogFormat))

	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		slog.Error("AMQP_URL is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	emails := notify.NewEmails(notify.NewMailer(notify.MailConfig{
		Domain:      cfg.MailgunDomain,
		APIKey:      cfg.MailgunAPIKey,
		SenderEmail: cfg.SenderEmail,
		SenderName:  cfg.SenderName,
	}))
	notifier := notify.NewFailureNotifier(store, emails)

	consume(ctx, cfg, notifier)
	slog.Info("Notifier stopped")
}

// consume keeps a consumer attached to the broker, reconnecting with backoff
// until ctx is cancelled.
func consume(ctx context.Context, cfg *config.Config, notifier *notify.FailureNotifier) {
	attempt := 0
	for ctx.Err() == nil {
		client, err := notify.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			wait := notify.Backoff(attempt)
			slog.Warn("Failed to connect to AMQP, retrying", "error", err, "retry_in", wait)
			attempt++
			if !sleep(ctx, wait) {
				return
			}
			continue
		}

		attempt = 0
		err = client.ConsumeRecurrenceFailures(ctx, notifier.Handle)
		client.Close()

		switch {
		case errors.Is(err, context.Canceled):
			return
		case notify.IsConnectionError(err):
			slog.Warn("Lost AMQP connection, reconnecting", "error", err)
		default:
			slog.Error("Consumer stopped", "error", err)
		}
		if !sleep(ctx, notify.Backoff(attempt)) {
			return
		}
		attempt++
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
