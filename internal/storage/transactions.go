package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// GetTransactionHistory returns every stored transaction, newest first.
func (s *SQLiteStorage) GetTransactionHistory(ctx context.Context) ([]model.StoredTransaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getTransactionHistoryTx(ctx, s.db)
}

func (s *SQLiteStorage) getTransactionHistoryTx(ctx context.Context, q queryable) ([]model.StoredTransaction, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, date, amount, description, merchant_id, category_id, subcategory_id
		FROM transactions
		ORDER BY date DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []model.StoredTransaction
	for rows.Next() {
		var txn model.StoredTransaction
		var amount string
		var merchantID, categoryID, subcategoryID sql.NullInt64
		if err := rows.Scan(&txn.ID, &txn.Date, &amount, &txn.Description, &merchantID, &categoryID, &subcategoryID); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if txn.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("transaction %d has invalid amount %q: %w", txn.ID, amount, err)
		}
		txn.Date = txn.Date.UTC()
		txn.MerchantID = nullableID(merchantID)
		txn.CategoryID = nullableID(categoryID)
		txn.SubcategoryID = nullableID(subcategoryID)
		transactions = append(transactions, txn)
	}

	return transactions, rows.Err()
}

// GetTransactionCount returns the number of stored transactions.
func (s *SQLiteStorage) GetTransactionCount(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return s.getTransactionCountTx(ctx, s.db)
}

func (s *SQLiteStorage) getTransactionCountTx(ctx context.Context, q queryable) (int, error) {
	var count int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// insertTransactionTx writes one finalized transaction and returns its id.
func (s *SQLiteStorage) insertTransactionTx(ctx context.Context, q queryable, txn model.ClassifiedTransaction) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO transactions (date, amount, description, merchant_id, category_id, subcategory_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`, txn.Date.UTC(), txn.Amount.String(), txn.Description,
		nullInt(txn.MerchantID), nullInt(txn.CategoryID), nullInt(txn.SubcategoryID))
	if err != nil {
		return 0, fmt.Errorf("failed to insert transaction: %w", err)
	}
	return res.LastInsertId()
}

func nullableID(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

func nullInt(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}
