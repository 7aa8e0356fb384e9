package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/settleup/internal/models"
)

// DueRecurringExpenses lists active templates due at or before now.
func (s *SQLiteStore) DueRecurringExpenses(ctx context.Context, now int64) ([]models.Expense, error) {
	return queryExpenses(ctx, s.db,
		`SELECT `+expenseColumns+` FROM expenses e
		 WHERE e.is_recurring = 1 AND e.next_due_at <= ?
		 ORDER BY e.next_due_at, e.id`,
		now,
	)
}

// MaterializeOccurrence inserts the occurrence and advances the template in one
// transaction, provided the template is still due at dueAt.
func (s *SQLiteStore) MaterializeOccurrence(ctx context.Context, templateID string, dueAt, nextDueAt int64, occurrence *models.Expense) (bool, error) {
	var advanced bool
	err := s.withTx(ctx, nil, func(tx *sql.Tx) error {
		ok, err := advanceTemplate(ctx, tx, templateID, dueAt, nextDueAt)
		if err != nil || !ok {
			return err
		}

		// The unique (source_expense_id, occurrence_at) index rejects a second copy.
		var exists int
		err = tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM expenses WHERE source_expense_id = ? AND occurrence_at = ?",
			templateID, occurrence.OccurrenceAt,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check occurrence: %w", err)
		}
		if exists == 0 {
			if err := insertExpense(ctx, tx, occurrence); err != nil {
				return err
			}
		}

		advanced = true
		return nil
	})
	return advanced, err
}

// SkipOccurrence records a failure and advances the template in one transaction,
// provided the template is still due at dueAt.
func (s *SQLiteStore) SkipOccurrence(ctx context.Context, templateID string, dueAt, nextDueAt int64, failure *models.RecurrenceFailure) (bool, error) {
	var advanced bool
	err := s.withTx(ctx, nil, func(tx *sql.Tx) error {
		ok, err := advanceTemplate(ctx, tx, templateID, dueAt, nextDueAt)
		if err != nil || !ok {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO recurrence_failures (id, expense_id, group_id, occurrence_at, reason, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			failure.ID, failure.ExpenseID, failure.GroupID, failure.OccurrenceAt, failure.Reason, failure.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to record recurrence failure: %w", err)
		}

		advanced = true
		return nil
	})
	return advanced, err
}

// advanceTemplate is a compare-and-set on next_due_at.
func advanceTemplate(ctx context.Context, tx *sql.Tx, templateID string, dueAt, nextDueAt int64) (bool, error) {
	result, err := tx.ExecContext(ctx,
		"UPDATE expenses SET next_due_at = ? WHERE id = ? AND is_recurring = 1 AND next_due_at = ?",
		nextDueAt, templateID, dueAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to advance recurring expense: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to advance recurring expense: %w", err)
	}
	return n == 1, nil
}

// ListRecurrenceFailures returns a group's skipped occurrences, newest first.
func (s *SQLiteStore) ListRecurrenceFailures(ctx context.Context, groupID string) ([]models.RecurrenceFailure, error) {
	if err := groupExists(ctx, s.db, groupID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, expense_id, group_id, occurrence_at, reason, created_at
		 FROM recurrence_failures WHERE group_id = ?
		 ORDER BY occurrence_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurrence failures: %w", err)
	}
	defer rows.Close()

	var failures []models.RecurrenceFailure
	for rows.Next() {
		var f models.RecurrenceFailure
		if err := rows.Scan(&f.ID, &f.ExpenseID, &f.GroupID, &f.OccurrenceAt, &f.Reason, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recurrence failure: %w", err)
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}
