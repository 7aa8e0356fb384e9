package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/settleup/internal/models"
)

// CreateOtp stores a new code and invalidates older unused codes for the same purpose.
func (s *SQLiteStore) CreateOtp(ctx context.Context, otp *models.Otp) error {
	return s.withTx(ctx, nil, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"UPDATE otps SET used = 1 WHERE user_id = ? AND purpose = ? AND used = 0",
			otp.UserID, string(otp.Purpose),
		); err != nil {
			return fmt.Errorf("failed to invalidate old codes: %w", err)
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO otps (id, user_id, code, purpose, expires_at, attempts, used, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			otp.ID, otp.UserID, otp.Code, string(otp.Purpose), otp.ExpiresAt, otp.Attempts, boolToInt(otp.Used), otp.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert otp: %w", err)
		}
		return nil
	})
}

// LatestOtp returns the newest unused code, or nil if there is none.
func (s *SQLiteStore) LatestOtp(ctx context.Context, userID string, purpose models.OtpPurpose) (*models.Otp, error) {
	var (
		otp     models.Otp
		purpStr string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, code, purpose, expires_at, attempts, used, created_at
		 FROM otps WHERE user_id = ? AND purpose = ? AND used = 0
		 ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		userID, string(purpose),
	).Scan(&otp.ID, &otp.UserID, &otp.Code, &purpStr, &otp.ExpiresAt, &otp.Attempts, &otp.Used, &otp.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get otp: %w", err)
	}
	otp.Purpose = models.OtpPurpose(purpStr)
	return &otp, nil
}

// IncrementOtpAttempts records a wrong guess and returns the new attempt count.
func (s *SQLiteStore) IncrementOtpAttempts(ctx context.Context, otpID string) (int, error) {
	var attempts int
	err := s.withTx(ctx, nil, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "UPDATE otps SET attempts = attempts + 1 WHERE id = ?", otpID); err != nil {
			return fmt.Errorf("failed to increment attempts: %w", err)
		}
		return tx.QueryRowContext(ctx, "SELECT attempts FROM otps WHERE id = ?", otpID).Scan(&attempts)
	})
	return attempts, err
}

// MarkOtpUsed consumes a code.
func (s *SQLiteStore) MarkOtpUsed(ctx context.Context, otpID string) error {
	if _, err := s.db.ExecContext(ctx, "UPDATE otps SET used = 1 WHERE id = ?", otpID); err != nil {
		return fmt.Errorf("failed to mark otp used: %w", err)
	}
	return nil
}

// DeleteExpiredOtps purges codes that expired before now.
func (s *SQLiteStore) DeleteExpiredOtps(ctx context.Context, now int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM otps WHERE expires_at < ?", now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired otps: %w", err)
	}
	return result.RowsAffected()
}
