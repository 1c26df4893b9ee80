// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// HistoryReader reads the finalized transaction history.
type HistoryReader interface {
	// GetTransactionHistory returns every stored transaction, newest first.
	GetTransactionHistory(ctx context.Context) ([]model.StoredTransaction, error)
	GetTransactionCount(ctx context.Context) (int, error)
}

// StagingWriter replaces the staging area with a reconciliation result.
type StagingWriter interface {
	// ReplaceStaging discards all staged rows and writes the new result atomically.
	ReplaceStaging(ctx context.Context, result *model.ReconcileResult) error
}

// UploadRecorder keeps the audit trail of uploads.
type UploadRecorder interface {
	SaveUploadRun(ctx context.Context, run *model.UploadRun) error
}

// ClassificationStore is the persistence the classification drain needs.
type ClassificationStore interface {
	GetStagedNew(ctx context.Context) ([]model.StagedNew, error)
	GetMerchants(ctx context.Context) ([]model.Merchant, error)
	EnsureMerchants(ctx context.Context, names []string) (map[string]int64, error)
	GetTaxonomy(ctx context.Context) ([]model.Category, error)
	// CommitClassifiedBatch inserts the finalized rows and deletes their staged
	// counterparts in one transaction. Either every row commits or none does.
	CommitClassifiedBatch(ctx context.Context, rows []model.ClassifiedTransaction) error
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	HistoryReader
	StagingWriter
	UploadRecorder
	ClassificationStore

	// Staging inspection
	GetStagedEdits(ctx context.Context) ([]model.StagedEdit, error)
	GetStagedUnmatched(ctx context.Context) ([]model.StagedUnmatched, error)
	GetStagingCounts(ctx context.Context) (*model.StagingCounts, error)

	// Merchant operations
	GetMerchantByName(ctx context.Context, name string) (*model.Merchant, error)
	CreateMerchant(ctx context.Context, name string) (*model.Merchant, error)

	// Taxonomy operations
	SeedTaxonomy(ctx context.Context, categories []model.Category) (bool, error)

	// Upload audit
	GetRecentUploadRuns(ctx context.Context, limit int) ([]model.UploadRun, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction spanning one upload: the
// history snapshot it reconciles against and the staging rows it writes.
type Transaction interface {
	HistoryReader
	StagingWriter
	UploadRecorder
	Commit() error
	Rollback() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
