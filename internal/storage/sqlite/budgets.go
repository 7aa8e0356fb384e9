package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/money"
)

const budgetColumns = `id, owner_id, category, monthly_limit, month, year, active, created_at, updated_at`

func scanBudget(row rowScanner) (models.Budget, error) {
	var (
		b     models.Budget
		limit int64
	)
	err := row.Scan(&b.ID, &b.OwnerID, &b.Category, &limit, &b.Month, &b.Year, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	b.MonthlyLimit = money.Amount(limit)
	return b, err
}

// UpsertBudget creates or updates the active budget for owner/category/month/year.
func (s *SQLiteStore) UpsertBudget(ctx context.Context, budget *models.Budget) error {
	budget.Category = strings.ToLower(strings.TrimSpace(budget.Category))
	now := time.Now().Unix()

	return s.withTx(ctx, nil, func(tx *sql.Tx) error {
		var existingID string
		var createdAt int64
		err := tx.QueryRowContext(ctx,
			`SELECT id, created_at FROM budgets
			 WHERE owner_id = ? AND category = ? AND month = ? AND year = ? AND active = 1`,
			budget.OwnerID, budget.Category, budget.Month, budget.Year,
		).Scan(&existingID, &createdAt)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			if budget.ID == "" {
				budget.ID = uuid.New().String()
			}
			budget.Active = true
			budget.CreatedAt = now
			budget.UpdatedAt = now
			_, err = tx.ExecContext(ctx,
				`INSERT INTO budgets (`+budgetColumns+`) VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
				budget.ID, budget.OwnerID, budget.Category, int64(budget.MonthlyLimit),
				budget.Month, budget.Year, budget.CreatedAt, budget.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert budget: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to look up budget: %w", err)
		default:
			budget.ID = existingID
			budget.Active = true
			budget.CreatedAt = createdAt
			budget.UpdatedAt = now
			_, err = tx.ExecContext(ctx,
				"UPDATE budgets SET monthly_limit = ?, updated_at = ? WHERE id = ?",
				int64(budget.MonthlyLimit), now, existingID,
			)
			if err != nil {
				return fmt.Errorf("failed to update budget: %w", err)
			}
		}
		return nil
	})
}

// GetBudget retrieves an active budget by ID.
func (s *SQLiteStore) GetBudget(ctx context.Context, budgetID string) (*models.Budget, error) {
	b, err := scanBudget(s.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND active = 1`, budgetID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrBudgetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}
	return &b, nil
}

// ListBudgets returns a user's active budgets for one month, by category.
func (s *SQLiteStore) ListBudgets(ctx context.Context, ownerID string, month, year int) ([]models.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets
		 WHERE owner_id = ? AND month = ? AND year = ? AND active = 1
		 ORDER BY category`,
		ownerID, month, year,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []models.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// DeactivateBudget soft-deletes a budget.
func (s *SQLiteStore) DeactivateBudget(ctx context.Context, budgetID string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE budgets SET active = 0, updated_at = ? WHERE id = ? AND active = 1",
		time.Now().Unix(), budgetID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return models.ErrBudgetNotFound
	}
	return nil
}
