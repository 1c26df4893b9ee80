package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// ErrStagedRowMissing is returned when a classified row no longer has a staged
// counterpart, usually because a newer upload replaced the staging area.
var ErrStagedRowMissing = errors.New("staged transaction no longer exists")

// ReplaceStaging clears all three staging tables and writes the result in a
// single transaction.
func (s *SQLiteStorage) ReplaceStaging(ctx context.Context, result *model.ReconcileResult) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateReconcileResult(result); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.replaceStagingTx(ctx, tx, result); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStorage) replaceStagingTx(ctx context.Context, q queryable, result *model.ReconcileResult) error {
	for _, table := range []string{"staged_new_transactions", "staged_edit_transactions", "staged_unmatched_transactions"} {
		if _, err := q.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, c := range result.New {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO staged_new_transactions (date, amount, description)
			VALUES (?, ?, ?)
		`, c.Date.UTC(), c.Amount.String(), c.Description); err != nil {
			return fmt.Errorf("failed to stage new transaction: %w", err)
		}
	}

	for _, c := range result.Changed {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO staged_edit_transactions (date, amount, description, transaction_id, match_tier)
			VALUES (?, ?, ?, ?, ?)
		`, c.Candidate.Date.UTC(), c.Candidate.Amount.String(), c.Candidate.Description, c.TargetID, string(c.Tier)); err != nil {
			return fmt.Errorf("failed to stage edit for transaction %d: %w", c.TargetID, err)
		}
	}

	for _, u := range result.Unmatched {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO staged_unmatched_transactions (transaction_id)
			VALUES (?)
		`, u.TargetID); err != nil {
			return fmt.Errorf("failed to stage unmatched transaction %d: %w", u.TargetID, err)
		}
	}

	slog.Debug("Replaced staging area",
		"new", len(result.New),
		"edits", len(result.Changed),
		"unmatched", len(result.Unmatched))

	return nil
}

// GetStagedNew returns the staged new transactions in staging order.
func (s *SQLiteStorage) GetStagedNew(ctx context.Context) ([]model.StagedNew, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, amount, description
		FROM staged_new_transactions
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query staged transactions: %w", err)
	}
	defer rows.Close()

	var staged []model.StagedNew
	for rows.Next() {
		var row model.StagedNew
		var amount string
		if err := rows.Scan(&row.ID, &row.Date, &amount, &row.Description); err != nil {
			return nil, fmt.Errorf("failed to scan staged transaction: %w", err)
		}
		if row.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("staged transaction %d has invalid amount %q: %w", row.ID, amount, err)
		}
		row.Date = row.Date.UTC()
		staged = append(staged, row)
	}

	return staged, rows.Err()
}

// GetStagedEdits returns proposed edits of stored transactions.
func (s *SQLiteStorage) GetStagedEdits(ctx context.Context) ([]model.StagedEdit, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, amount, description, transaction_id, match_tier
		FROM staged_edit_transactions
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query staged edits: %w", err)
	}
	defer rows.Close()

	var edits []model.StagedEdit
	for rows.Next() {
		var edit model.StagedEdit
		var amount, tier string
		if err := rows.Scan(&edit.ID, &edit.Date, &amount, &edit.Description, &edit.TransactionID, &tier); err != nil {
			return nil, fmt.Errorf("failed to scan staged edit: %w", err)
		}
		if edit.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("staged edit %d has invalid amount %q: %w", edit.ID, amount, err)
		}
		edit.Date = edit.Date.UTC()
		edit.Tier = model.MatchTier(tier)
		edits = append(edits, edit)
	}

	return edits, rows.Err()
}

// GetStagedUnmatched returns stored transactions missing from the latest upload.
func (s *SQLiteStorage) GetStagedUnmatched(ctx context.Context) ([]model.StagedUnmatched, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, transaction_id
		FROM staged_unmatched_transactions
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query unmatched transactions: %w", err)
	}
	defer rows.Close()

	var unmatched []model.StagedUnmatched
	for rows.Next() {
		var u model.StagedUnmatched
		if err := rows.Scan(&u.ID, &u.TransactionID); err != nil {
			return nil, fmt.Errorf("failed to scan unmatched transaction: %w", err)
		}
		unmatched = append(unmatched, u)
	}

	return unmatched, rows.Err()
}

// GetStagingCounts returns how many rows each staging table holds.
func (s *SQLiteStorage) GetStagingCounts(ctx context.Context) (*model.StagingCounts, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var counts model.StagingCounts
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM staged_new_transactions),
			(SELECT COUNT(*) FROM staged_edit_transactions),
			(SELECT COUNT(*) FROM staged_unmatched_transactions)
	`).Scan(&counts.New, &counts.Edits, &counts.Unmatched)
	if err != nil {
		return nil, fmt.Errorf("failed to count staged rows: %w", err)
	}
	return &counts, nil
}

// CommitClassifiedBatch moves classified rows from staging into the history.
// Every insert and its staged-row delete share one transaction; if any staged
// row has vanished the whole batch is rolled back.
func (s *SQLiteStorage) CommitClassifiedBatch(ctx context.Context, rows []model.ClassifiedTransaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	if err := validateClassified(rows); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, row := range rows {
		if _, err := s.insertTransactionTx(ctx, tx, row); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM staged_new_transactions WHERE id = ?`, row.StagedID)
		if err != nil {
			return fmt.Errorf("failed to delete staged transaction %d: %w", row.StagedID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check staged delete: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: id %d", ErrStagedRowMissing, row.StagedID)
		}
	}

	return tx.Commit()
}
