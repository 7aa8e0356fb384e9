package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/models"
)

var (
	ErrInvalidOtp      = errors.New("invalid verification code")
	ErrOtpExpired      = errors.New("verification code expired")
	ErrAccountLocked   = errors.New("too many failed attempts, try again later")
	ErrTooManyRequests = errors.New("too many verification codes requested, try again later")
)

// OtpConfig is the one-time code policy.
type OtpConfig struct {
	Length      int
	Expiry      time.Duration
	MaxAttempts int
	Lockout     time.Duration
	MaxPerHour  int
}

// DefaultOtpConfig: 6 digits, valid 5 minutes, 3 wrong guesses lock the
// account for 30 minutes, at most 5 codes per hour.
func DefaultOtpConfig() OtpConfig {
	return OtpConfig{
		Length:      6,
		Expiry:      5 * time.Minute,
		MaxAttempts: 3,
		Lockout:     30 * time.Minute,
		MaxPerHour:  5,
	}
}

// OtpStorage is the persistence the OTP flow needs.
type OtpStorage interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SetEmailVerified(ctx context.Context, userID string) error
	SetLockedUntil(ctx context.Context, userID string, until int64) error

	CreateOtp(ctx context.Context, otp *models.Otp) error
	LatestOtp(ctx context.Context, userID string, purpose models.OtpPurpose) (*models.Otp, error)
	IncrementOtpAttempts(ctx context.Context, otpID string) (int, error)
	MarkOtpUsed(ctx context.Context, otpID string) error
	DeleteExpiredOtps(ctx context.Context, now int64) (int64, error)
}

// Sender delivers a code to the user.
type Sender interface {
	SendOtp(ctx context.Context, to, code string, purpose models.OtpPurpose, validFor time.Duration) error
}

// OtpManager issues and verifies e-mail one-time codes.
type OtpManager struct {
	store    OtpStorage
	sender   Sender
	cfg      OtpConfig
	metrics  *metrics.Metrics
	requests *cache.Cache
	now      func() time.Time
}

// NewOtpManager creates a manager. m may be nil.
func NewOtpManager(store OtpStorage, sender Sender, cfg OtpConfig, m *metrics.Metrics) *OtpManager {
	return &OtpManager{
		store:    store,
		sender:   sender,
		cfg:      cfg,
		metrics:  m,
		requests: cache.New(time.Hour, 10*time.Minute),
		now:      time.Now,
	}
}

// Request creates a fresh code for purpose and e-mails it. Any older unused code
// for the same purpose stops working.
func (m *OtpManager) Request(ctx context.Context, email string, purpose models.OtpPurpose) error {
	user, err := m.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	now := m.now()
	if user.IsLocked(now) {
		return ErrAccountLocked
	}
	if err := m.countRequest(user.ID); err != nil {
		return err
	}

	code, err := generateCode(m.cfg.Length)
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	otp := &models.Otp{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: now.Add(m.cfg.Expiry).Unix(),
		CreatedAt: now.Unix(),
	}
	if err := m.store.CreateOtp(ctx, otp); err != nil {
		return err
	}
	if err := m.sender.SendOtp(ctx, user.Email, code, purpose, m.cfg.Expiry); err != nil {
		return fmt.Errorf("failed to send code: %w", err)
	}

	m.metrics.Otp(string(purpose))
	slog.Info("OTP issued", "user_id", user.ID, "purpose", purpose)
	return nil
}

// countRequest enforces MaxPerHour with a fixed window that starts at the
// first request.
func (m *OtpManager) countRequest(userID string) error {
	if m.cfg.MaxPerHour <= 0 {
		return nil
	}
	if v, found := m.requests.Get(userID); found {
		if v.(int) >= m.cfg.MaxPerHour {
			return ErrTooManyRequests
		}
		if _, err := m.requests.IncrementInt(userID, 1); err == nil {
			return nil
		}
	}
	m.requests.Set(userID, 1, time.Hour)
	return nil
}

// Verify consumes a code. A signup code also marks the e-mail verified.
// The MaxAttempts-th wrong guess locks the account for Lockout.
func (m *OtpManager) Verify(ctx context.Context, email, code string, purpose models.OtpPurpose) (*models.User, error) {
	user, err := m.store.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, ErrInvalidOtp
	}
	if err != nil {
		return nil, err
	}
	now := m.now()
	if user.IsLocked(now) {
		return nil, ErrAccountLocked
	}

	otp, err := m.store.LatestOtp(ctx, user.ID, purpose)
	if err != nil {
		return nil, err
	}
	if otp == nil {
		return nil, ErrInvalidOtp
	}
	if now.Unix() >= otp.ExpiresAt {
		return nil, ErrOtpExpired
	}

	if subtle.ConstantTimeCompare([]byte(otp.Code), []byte(strings.TrimSpace(code))) != 1 {
		attempts, err := m.store.IncrementOtpAttempts(ctx, otp.ID)
		if err != nil {
			return nil, err
		}
		if attempts >= m.cfg.MaxAttempts {
			if err := m.store.MarkOtpUsed(ctx, otp.ID); err != nil {
				return nil, err
			}
			until := now.Add(m.cfg.Lockout).Unix()
			if err := m.store.SetLockedUntil(ctx, user.ID, until); err != nil {
				return nil, err
			}
			slog.Warn("Account locked after failed OTP attempts", "user_id", user.ID, "attempts", attempts)
			return nil, ErrAccountLocked
		}
		return nil, ErrInvalidOtp
	}

	if err := m.store.MarkOtpUsed(ctx, otp.ID); err != nil {
		return nil, err
	}
	if purpose == models.OtpSignup && !user.EmailVerified {
		if err := m.store.SetEmailVerified(ctx, user.ID); err != nil {
			return nil, err
		}
		user.EmailVerified = true
	}
	return user, nil
}

// ValidFor is how long a freshly issued code stays valid.
func (m *OtpManager) ValidFor() time.Duration {
	return m.cfg.Expiry
}

// Cleanup deletes expired codes and returns how many were removed.
func (m *OtpManager) Cleanup(ctx context.Context) (int64, error) {
	return m.store.DeleteExpiredOtps(ctx, m.now().Unix())
}

func generateCode(length int) (string, error) {
	var b strings.Builder
	b.Grow(length)
	ten := big.NewInt(10)
	for range length {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
