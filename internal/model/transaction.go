package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// StoredTransaction is a finalized transaction in the permanent history.
type StoredTransaction struct {
	Date          time.Time
	Amount        decimal.Decimal
	MerchantID    *int64
	CategoryID    *int64
	SubcategoryID *int64
	Description   string
	ID            int64
}

// Key returns the exact-identity key used for duplicate detection.
func (t StoredTransaction) Key() string {
	return TransactionKey(t.Description, t.Amount, t.Date)
}

// CandidateTransaction is a row read from an uploaded statement.
// TempID is assigned during reconciliation and is only meaningful within one run.
type CandidateTransaction struct {
	Date        time.Time
	Amount      decimal.Decimal
	Description string
	TempID      int
}

// Key returns the exact-identity key used for duplicate detection.
func (c CandidateTransaction) Key() string {
	return TransactionKey(c.Description, c.Amount, c.Date)
}

// TransactionKey builds the exact-identity key of a transaction: its
// description, canonical decimal amount and timestamp in epoch milliseconds.
func TransactionKey(description string, amount decimal.Decimal, date time.Time) string {
	return fmt.Sprintf("%s|%s|%d", description, amount.String(), date.UnixMilli())
}
