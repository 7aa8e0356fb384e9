package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/money"
	"github.com/mmynk/settleup/internal/storage"
)

// GroupLedger reads the group and its unsettled expenses in one transaction.
func (s *SQLiteStore) GroupLedger(ctx context.Context, groupID string) (*storage.Ledger, error) {
	var ledger *storage.Ledger
	err := s.withTx(ctx, nil, func(tx *sql.Tx) error {
		var err error
		ledger, err = readLedger(ctx, tx, groupID)
		return err
	})
	return ledger, err
}

func readLedger(ctx context.Context, q querier, groupID string) (*storage.Ledger, error) {
	group, err := getGroup(ctx, q, groupID)
	if err != nil {
		return nil, err
	}

	expenses, err := queryExpenses(ctx, q,
		`SELECT `+expenseColumns+` FROM expenses e
		 WHERE e.group_id = ? AND e.settled = 0
		 ORDER BY e.timestamp, e.id`,
		groupID,
	)
	if err != nil {
		return nil, err
	}

	return &storage.Ledger{Group: group, Expenses: expenses}, nil
}

// SettleGroup plans and applies a settlement atomically.
// Expenses are marked with "UPDATE ... WHERE settled = 0", so of two concurrent
// calls exactly one records a batch and the other sees models.ErrAlreadySettled.
func (s *SQLiteStore) SettleGroup(ctx context.Context, groupID, settledBy string, plan storage.PlanFunc) (*models.SettlementBatch, error) {
	var batch *models.SettlementBatch
	err := s.withTx(ctx, nil, func(tx *sql.Tx) error {
		ledger, err := readLedger(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if len(ledger.Expenses) == 0 {
			return models.ErrAlreadySettled
		}

		transfers, err := plan(ledger)
		if err != nil {
			return err
		}

		batch = &models.SettlementBatch{
			ID:        uuid.New().String(),
			GroupID:   groupID,
			SettledBy: settledBy,
			Transfers: transfers,
			CreatedAt: time.Now().Unix(),
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO settlement_batches (id, group_id, settled_by, expense_count, created_at) VALUES (?, ?, ?, 0, ?)",
			batch.ID, batch.GroupID, batch.SettledBy, batch.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert settlement batch: %w", err)
		}

		ids := make([]string, len(ledger.Expenses))
		for i, e := range ledger.Expenses {
			ids[i] = e.ID
		}
		result, err := tx.ExecContext(ctx,
			`UPDATE expenses SET settled = 1, settlement_id = ?
			 WHERE settled = 0 AND id IN (`+placeholders(len(ids))+`)`,
			append([]any{batch.ID}, stringArgs(ids)...)...,
		)
		if err != nil {
			return fmt.Errorf("failed to mark expenses settled: %w", err)
		}
		marked, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to mark expenses settled: %w", err)
		}
		if marked == 0 {
			return models.ErrAlreadySettled
		}
		batch.ExpenseCount = int(marked)

		if _, err := tx.ExecContext(ctx,
			"UPDATE settlement_batches SET expense_count = ? WHERE id = ?",
			batch.ExpenseCount, batch.ID,
		); err != nil {
			return fmt.Errorf("failed to update settlement batch: %w", err)
		}

		for i, t := range transfers {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO settlement_transfers (batch_id, seq, from_user_id, to_user_id, amount)
				 VALUES (?, ?, ?, ?, ?)`,
				batch.ID, i, t.From, t.To, int64(t.Amount),
			)
			if err != nil {
				return fmt.Errorf("failed to insert transfer: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// ListSettlements returns a group's settlement batches with their transfers, newest first.
func (s *SQLiteStore) ListSettlements(ctx context.Context, groupID string) ([]models.SettlementBatch, error) {
	if err := groupExists(ctx, s.db, groupID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, settled_by, expense_count, created_at
		 FROM settlement_batches WHERE group_id = ?
		 ORDER BY created_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}

	var batches []models.SettlementBatch
	index := make(map[string]int)
	for rows.Next() {
		var b models.SettlementBatch
		if err := rows.Scan(&b.ID, &b.GroupID, &b.SettledBy, &b.ExpenseCount, &b.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		index[b.ID] = len(batches)
		batches = append(batches, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settlements: %w", err)
	}

	tRows, err := s.db.QueryContext(ctx,
		`SELECT t.batch_id, t.from_user_id, t.to_user_id, t.amount
		 FROM settlement_transfers t JOIN settlement_batches b ON b.id = t.batch_id
		 WHERE b.group_id = ?
		 ORDER BY t.batch_id, t.seq`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	defer tRows.Close()

	for tRows.Next() {
		var (
			batchID string
			t       models.Transfer
			amount  int64
		)
		if err := tRows.Scan(&batchID, &t.From, &t.To, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		t.Amount = money.Amount(amount)
		i := index[batchID]
		batches[i].Transfers = append(batches[i].Transfers, t)
	}
	return batches, tRows.Err()
}
