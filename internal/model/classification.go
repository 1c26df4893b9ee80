// Package model defines the core domain models used throughout the application.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchRow is the minimal view of a staged transaction sent to a classifier.
type BatchRow struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	ID          int64           `json:"id"`
}

// BatchRequest is one classification request.
type BatchRequest struct {
	Rows           []BatchRow
	Labels         []string
	KnownMerchants []string
}

// ClassifiedRow is a classifier's answer for one row.
type ClassifiedRow struct {
	Merchant string `json:"merchant"`
	Category string `json:"category"`
	ID       int64  `json:"id"`
}

// ClassifiedTransaction is a staged row ready to be committed to history.
type ClassifiedTransaction struct {
	Date          time.Time
	Amount        decimal.Decimal
	MerchantID    *int64
	CategoryID    *int64
	SubcategoryID *int64
	Description   string
	StagedID      int64
}
