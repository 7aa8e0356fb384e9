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

const expenseColumns = `e.id, e.group_id, e.description, e.amount, e.paid_by, e.split_type, e.category, e.notes,
	e.timestamp, e.settled, e.settlement_id, e.is_recurring, e.recurrence_interval, e.next_due_at, e.anchor_day,
	e.source_expense_id, e.occurrence_at, e.created_by, e.created_at`

// CreateExpense persists a new expense with its participants.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	return s.withTx(ctx, nil, func(tx *sql.Tx) error {
		if err := groupExists(ctx, tx, expense.GroupID); err != nil {
			return err
		}
		return insertExpense(ctx, tx, expense)
	})
}

func insertExpense(ctx context.Context, q querier, e *models.Expense) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}
	if e.Category == "" {
		e.Category = models.DefaultCategory
	}

	var (
		isRecurring int
		interval    sql.NullString
		nextDueAt   sql.NullInt64
		anchorDay   sql.NullInt64
		occurrence  sql.NullInt64
	)
	if r := e.Recurrence; r != nil {
		isRecurring = 1
		interval = sql.NullString{String: string(r.Interval), Valid: true}
		nextDueAt = sql.NullInt64{Int64: r.NextDueAt, Valid: true}
		anchorDay = sql.NullInt64{Int64: int64(r.AnchorDay), Valid: true}
	}
	if e.SourceExpenseID != "" {
		occurrence = sql.NullInt64{Int64: e.OccurrenceAt, Valid: true}
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, description, amount, paid_by, split_type, category, notes,
			timestamp, settled, settlement_id, is_recurring, recurrence_interval, next_due_at, anchor_day,
			source_expense_id, occurrence_at, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.GroupID, e.Description, int64(e.Amount), e.PaidBy, string(e.SplitType), strings.ToLower(e.Category), e.Notes,
		e.Timestamp, boolToInt(e.Settled), nullString(e.SettlementID), isRecurring, interval, nextDueAt, anchorDay,
		nullString(e.SourceExpenseID), occurrence, e.CreatedBy, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for _, p := range e.Participants {
		_, err = q.ExecContext(ctx,
			`INSERT INTO expense_participants (expense_id, user_id, percentage, exact_amount, shares, share_amount)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID, p.UserID, int64(p.Percentage), int64(p.ExactAmount), p.Shares, int64(p.ShareAmount),
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant %s: %w", p.UserID, err)
		}
	}
	return nil
}

// GetExpense retrieves an expense by ID, including its participants.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expenses, err := queryExpenses(ctx, s.db,
		`SELECT `+expenseColumns+` FROM expenses e WHERE e.id = ?`, expenseID)
	if err != nil {
		return nil, err
	}
	if len(expenses) == 0 {
		return nil, models.ErrExpenseNotFound
	}
	return &expenses[0], nil
}

// ListExpenses returns a group's expenses, newest first.
func (s *SQLiteStore) ListExpenses(ctx context.Context, groupID string, filter models.ExpenseFilter) ([]models.Expense, error) {
	if err := groupExists(ctx, s.db, groupID); err != nil {
		return nil, err
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses e WHERE e.group_id = ?`
	args := []any{groupID}
	if !filter.IncludeSettled {
		query += ` AND e.settled = 0`
	}
	if filter.Category != "" {
		query += ` AND e.category = ?`
		args = append(args, strings.ToLower(filter.Category))
	}
	if filter.Start != 0 {
		query += ` AND e.timestamp >= ?`
		args = append(args, filter.Start)
	}
	if filter.End != 0 {
		query += ` AND e.timestamp < ?`
		args = append(args, filter.End)
	}
	query += ` ORDER BY e.timestamp DESC, e.id`

	return queryExpenses(ctx, s.db, query, args...)
}

// ListUserExpenses returns the expenses a user participates in within [start, end).
func (s *SQLiteStore) ListUserExpenses(ctx context.Context, userID string, start, end int64) ([]models.Expense, error) {
	return queryExpenses(ctx, s.db,
		`SELECT `+expenseColumns+` FROM expenses e
		 JOIN expense_participants p ON p.expense_id = e.id
		 WHERE p.user_id = ? AND e.timestamp >= ? AND e.timestamp < ?
		 ORDER BY e.timestamp, e.id`,
		userID, start, end,
	)
}

// DeleteExpense removes an unsettled expense.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	return s.withTx(ctx, nil, func(tx *sql.Tx) error {
		var settled bool
		err := tx.QueryRowContext(ctx, "SELECT settled FROM expenses WHERE id = ?", expenseID).Scan(&settled)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrExpenseNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get expense: %w", err)
		}
		if settled {
			return models.ErrExpenseSettled
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID); err != nil {
			return fmt.Errorf("failed to delete expense: %w", err)
		}
		return nil
	})
}

// StopRecurring turns a recurring template back into a plain expense.
func (s *SQLiteStore) StopRecurring(ctx context.Context, expenseID string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE expenses SET is_recurring = 0, next_due_at = NULL WHERE id = ? AND is_recurring = 1",
		expenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to stop recurring expense: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		if _, err := s.GetExpense(ctx, expenseID); err != nil {
			return err
		}
		return models.ErrNotRecurring
	}
	return nil
}

// queryExpenses runs query and then loads participants for every returned
// expense. The expense rows are closed before the participant query runs.
func queryExpenses(ctx context.Context, q querier, query string, args ...any) ([]models.Expense, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}

	var expenses []models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		expenses = append(expenses, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}

	if err := loadParticipants(ctx, q, expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

func scanExpense(row rowScanner) (models.Expense, error) {
	var (
		e            models.Expense
		amount       int64
		splitType    string
		settlementID sql.NullString
		isRecurring  bool
		interval     sql.NullString
		nextDueAt    sql.NullInt64
		anchorDay    sql.NullInt64
		sourceID     sql.NullString
		occurrenceAt sql.NullInt64
	)
	err := row.Scan(
		&e.ID, &e.GroupID, &e.Description, &amount, &e.PaidBy, &splitType, &e.Category, &e.Notes,
		&e.Timestamp, &e.Settled, &settlementID, &isRecurring, &interval, &nextDueAt, &anchorDay,
		&sourceID, &occurrenceAt, &e.CreatedBy, &e.CreatedAt,
	)
	if err != nil {
		return e, fmt.Errorf("failed to scan expense: %w", err)
	}

	e.Amount = money.Amount(amount)
	e.SplitType = models.SplitType(splitType)
	e.SettlementID = settlementID.String
	e.SourceExpenseID = sourceID.String
	e.OccurrenceAt = occurrenceAt.Int64
	if isRecurring {
		e.Recurrence = &models.Recurrence{
			Interval:  models.Interval(interval.String),
			NextDueAt: nextDueAt.Int64,
			AnchorDay: int(anchorDay.Int64),
		}
	}
	return e, nil
}

func loadParticipants(ctx context.Context, q querier, expenses []models.Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	index := make(map[string]int, len(expenses))
	ids := make([]string, len(expenses))
	for i, e := range expenses {
		index[e.ID] = i
		ids[i] = e.ID
	}

	rows, err := q.QueryContext(ctx,
		`SELECT expense_id, user_id, percentage, exact_amount, shares, share_amount
		 FROM expense_participants
		 WHERE expense_id IN (`+placeholders(len(ids))+`)
		 ORDER BY expense_id, user_id`,
		stringArgs(ids)...,
	)
	if err != nil {
		return fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			expenseID                      string
			p                              models.Participant
			percentage, exact, shareAmount int64
		)
		if err := rows.Scan(&expenseID, &p.UserID, &percentage, &exact, &p.Shares, &shareAmount); err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		p.Percentage = money.Percent(percentage)
		p.ExactAmount = money.Amount(exact)
		p.ShareAmount = money.Amount(shareAmount)

		i := index[expenseID]
		expenses[i].Participants = append(expenses[i].Participants, p)
	}
	return rows.Err()
}
