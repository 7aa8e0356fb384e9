package config

import (
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg := Load()
	if cfg.Port != "8080" || cfg.OtpLength != 6 || cfg.OtpExpiry != 5*time.Minute || cfg.BudgetNearingPercent != 80 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("PORT", "9090")
	t.Setenv("OTP_LOCKOUT", "1h")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RECURRING_MAX_CATCH_UP", "not-a-number")

	cfg := Load()
	if cfg.Port != "9090" || cfg.OtpLockout != time.Hour || cfg.RateLimitRPS != 2.5 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.RecurringMaxCatchUp != 12 {
		t.Errorf("bad integer should fall back to default, got %d", cfg.RecurringMaxCatchUp)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	valid := func() *Config { return Load() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Port = "abc" }, "invalid port"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "between 1 and 65535"},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, "JWT_SECRET"},
		{"bad amqp scheme", func(c *Config) { c.AMQPURL = "http://localhost" }, "scheme"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "log format"},
		{"nearing percent", func(c *Config) { c.BudgetNearingPercent = 100 }, "nearing percent"},
		{"rate limit", func(c *Config) { c.RateLimitBurst = 0 }, "rate limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := &Config{Port: "x", LogFormat: "text"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if n := strings.Count(err.Error(), "\n- "); n < 5 {
		t.Errorf("got %d problems, want several:\n%v", n, err)
	}
}
