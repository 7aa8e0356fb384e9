package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/config"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/notify"
	"github.com/mmynk/settleup/internal/recurring"
	"github.com/mmynk/settleup/internal/service"
	"github.com/mmynk/settleup/internal/storage/sqlite"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
	"github.com/mmynk/settleup/pkg/logging"
)

const (
	shutdownTimeout = 10 * time.Second
	otpCleanupEvery = 10 * time.Minute
)

func main() {
	cfg := config.Load()
	logging.SetupWith(logging.ParseLevel(cfg.LogLevel), logging.ParseFormat(cfg.LogFormat))

	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	emails := notify.NewEmails(notify.NewMailer(notify.MailConfig{
		Domain:      cfg.MailgunDomain,
		APIKey:      cfg.MailgunAPIKey,
		SenderEmail: cfg.SenderEmail,
		SenderName:  cfg.SenderName,
	}))

	var publisher recurring.Publisher = notify.NopPublisher{}
	if cfg.AMQPURL != "" {
		client, err := notify.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			slog.Warn("AMQP unavailable, recurrence failures will not be published", "error", err)
		} else {
			defer client.Close()
			publisher = client
			slog.Info("AMQP publisher ready", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)
	otp := auth.NewOtpManager(store, emails, auth.OtpConfig{
		Length:      cfg.OtpLength,
		Expiry:      cfg.OtpExpiry,
		MaxAttempts: cfg.OtpMaxAttempts,
		Lockout:     cfg.OtpLockout,
		MaxPerHour:  cfg.OtpMaxPerHour,
	}, m)
	processor := recurring.NewProcessor(store, publisher, m, cfg.RecurringMaxCatchUp)

	authSvc := service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, otp, store, m, slog.Default())
	groupSvc := service.NewGroupService(store, m)
	budgetSvc := service.NewBudgetService(store, calculator.Thresholds{NearingPercent: int64(cfg.BudgetNearingPercent)}, m)

	// Auth runs before logging so the logged user is known.
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
	publicOpts := connect.WithInterceptors(
		limiter.Interceptor(),
		middleware.MetricsInterceptor(m),
		middleware.OptionalAuth(jwtManager),
		middleware.LoggingInterceptor(),
	)
	privateOpts := connect.WithInterceptors(
		limiter.Interceptor(),
		middleware.MetricsInterceptor(m),
		middleware.RequireAuth(jwtManager),
		middleware.LoggingInterceptor(),
	)

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAuthServiceHandler(authSvc, publicOpts))
	mux.Handle(apiconnect.NewGroupServiceHandler(groupSvc, privateOpts))
	mux.Handle(apiconnect.NewBudgetServiceHandler(budgetSvc, privateOpts))
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	static, err := staticHandler(cfg.StaticPath)
	if err != nil {
		return err
	}
	mux.Handle("/", static)

	server := &http.Server{
		Addr: cfg.Addr(),
		// h2c serves HTTP/2 without TLS, which Connect's gRPC protocol needs.
		Handler:           h2c.NewHandler(loggingMiddleware(corsMiddleware(mux)), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Connect server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		runRecurring(ctx, processor, cfg.RecurringInterval)
		return nil
	})

	g.Go(func() error {
		runOtpCleanup(ctx, otp, otpCleanupEvery)
		return nil
	})

	return g.Wait()
}
