// Package config loads server settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP server
	Port       string
	StaticPath string

	// Database
	DBPath string

	// Sessions
	JWTSecret     string
	TokenDuration time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// AMQP, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Mailgun, optional
	MailgunDomain string
	MailgunAPIKey string
	SenderEmail   string
	SenderName    string

	// One-time codes
	OtpLength      int
	OtpExpiry      time.Duration
	OtpMaxAttempts int
	OtpLockout     time.Duration
	OtpMaxPerHour  int

	// Budgets
	BudgetNearingPercent int

	// Recurring expenses
	RecurringInterval   time.Duration
	RecurringMaxCatchUp int

	// Rate limiting, per client
	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads .env (if present) and then the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:       getEnv("PORT", "8080"),
		StaticPath: getEnv("STATIC_PATH", "./frontend/static"),

		DBPath: getEnv("DB_PATH", "./data/settleup.db"),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		TokenDuration: getEnvDuration("TOKEN_DURATION", 24*time.Hour),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "settleup"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "recurrence_failures"),

		MailgunDomain: getEnv("MAILGUN_DOMAIN", ""),
		MailgunAPIKey: getEnv("MAILGUN_API_KEY", ""),
		SenderEmail:   getEnv("SENDER_EMAIL", ""),
		SenderName:    getEnv("SENDER_NAME", "settleup"),

		OtpLength:      getEnvInt("OTP_LENGTH", 6),
		OtpExpiry:      getEnvDuration("OTP_EXPIRY", 5*time.Minute),
		OtpMaxAttempts: getEnvInt("OTP_MAX_ATTEMPTS", 3),
		OtpLockout:     getEnvDuration("OTP_LOCKOUT", 30*time.Minute),
		OtpMaxPerHour:  getEnvInt("OTP_MAX_PER_HOUR", 5),

		BudgetNearingPercent: getEnvInt("BUDGET_NEARING_PERCENT", 80),

		RecurringInterval:   getEnvDuration("RECURRING_INTERVAL", time.Minute),
		RecurringMaxCatchUp: getEnvInt("RECURRING_MAX_CATCH_UP", 12),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 20),
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DBPath == "" {
		problems = append(problems, "DB_PATH cannot be empty")
	}

	if len(c.JWTSecret) < 32 {
		problems = append(problems, "JWT_SECRET must be at least 32 characters")
	}
	if c.TokenDuration < time.Minute {
		problems = append(problems, fmt.Sprintf("invalid token duration %v: must be at least 1 minute", c.TokenDuration))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" || c.AMQPQueue == "" {
			problems = append(problems, "AMQP exchange and queue names are required when AMQP_URL is set")
		}
	}

	if c.OtpLength < 4 || c.OtpLength > 10 {
		problems = append(problems, fmt.Sprintf("invalid OTP length %d: must be between 4 and 10", c.OtpLength))
	}
	if c.OtpExpiry <= 0 || c.OtpLockout <= 0 {
		problems = append(problems, "OTP expiry and lockout must be positive")
	}
	if c.OtpMaxAttempts < 1 {
		problems = append(problems, fmt.Sprintf("invalid OTP max attempts %d: must be at least 1", c.OtpMaxAttempts))
	}

	if c.BudgetNearingPercent < 1 || c.BudgetNearingPercent > 99 {
		problems = append(problems, fmt.Sprintf("invalid budget nearing percent %d: must be between 1 and 99", c.BudgetNearingPercent))
	}

	if c.RecurringInterval < time.Second {
		problems = append(problems, fmt.Sprintf("invalid recurring interval %v: must be at least 1 second", c.RecurringInterval))
	}
	if c.RecurringMaxCatchUp < 1 {
		problems = append(problems, fmt.Sprintf("invalid recurring catch-up %d: must be at least 1", c.RecurringMaxCatchUp))
	}

	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		problems = append(problems, "rate limit RPS and burst must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// Addr is the listen address for Port.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
