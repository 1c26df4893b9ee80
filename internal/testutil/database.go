// Package testutil provides shared fixtures for tests that need a real database.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/Veraticus/spice-ledger/internal/storage"
)

// TestDB is a migrated in-memory database with a seeded taxonomy.
type TestDB struct {
	Storage  *storage.SQLiteStorage
	t        *testing.T
	Taxonomy []model.Category
}

// SetupTestDB creates a new in-memory database seeded with the given taxonomy.
// The database is closed when the test ends.
//
// Example:
//
//	db := testutil.SetupTestDB(t, testutil.NewTaxonomyBuilder().WithBasicTaxonomy().Build())
func SetupTestDB(t *testing.T, taxonomy []model.Category) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	if len(taxonomy) > 0 {
		if _, err := store.SeedTaxonomy(ctx, taxonomy); err != nil {
			t.Fatalf("failed to seed taxonomy: %v", err)
		}
	}

	seeded, err := store.GetTaxonomy(ctx)
	if err != nil {
		t.Fatalf("failed to load taxonomy: %v", err)
	}

	return &TestDB{
		Storage:  store,
		Taxonomy: seeded,
		t:        t,
	}
}

// Stage replaces the staging area with the given new rows and returns them as stored.
func (db *TestDB) Stage(rows ...model.CandidateTransaction) []model.StagedNew {
	db.t.Helper()
	ctx := context.Background()

	if err := db.Storage.ReplaceStaging(ctx, &model.ReconcileResult{New: rows}); err != nil {
		db.t.Fatalf("failed to stage rows: %v", err)
	}
	staged, err := db.Storage.GetStagedNew(ctx)
	if err != nil {
		db.t.Fatalf("failed to read staged rows: %v", err)
	}
	return staged
}

// AddHistory commits rows straight into the permanent history and returns the
// full history. It goes through the staging area, so anything staged before
// is discarded.
func (db *TestDB) AddHistory(rows ...model.CandidateTransaction) []model.StoredTransaction {
	db.t.Helper()
	ctx := context.Background()

	staged := db.Stage(rows...)
	classified := make([]model.ClassifiedTransaction, len(staged))
	for i, s := range staged {
		classified[i] = model.ClassifiedTransaction{
			StagedID:    s.ID,
			Date:        s.Date,
			Amount:      s.Amount,
			Description: s.Description,
		}
	}
	if err := db.Storage.CommitClassifiedBatch(ctx, classified); err != nil {
		db.t.Fatalf("failed to commit history: %v", err)
	}

	history, err := db.Storage.GetTransactionHistory(ctx)
	if err != nil {
		db.t.Fatalf("failed to read history: %v", err)
	}
	return history
}

// MustResolve returns the stored ids for a "<Category> - <Subcategory>" label.
func (db *TestDB) MustResolve(label string) model.CategoryRef {
	db.t.Helper()
	ref, ok := model.NewTaxonomy(db.Taxonomy).Resolve(label)
	if !ok {
		db.t.Fatalf("label %q not found in test taxonomy", label)
	}
	return ref
}

// WithTransaction executes fn within a database transaction that is always
// rolled back afterwards.
func (db *TestDB) WithTransaction(fn func(tx service.Transaction) error) error {
	tx, err := db.Storage.BeginTx(context.Background())
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}

// Txn is shorthand for building a candidate transaction in tests.
// Dates use the YYYY-MM-DD layout.
func Txn(date, amount, description string) model.CandidateTransaction {
	d, err := time.Parse(time.DateOnly, date)
	if err != nil {
		panic(err)
	}
	return model.CandidateTransaction{
		Date:        d,
		Amount:      decimal.RequireFromString(amount),
		Description: description,
	}
}
