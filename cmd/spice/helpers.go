package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/Veraticus/spice-ledger/internal/config"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/storage"
)

func databasePath() string {
	return config.DatabasePath(viper.GetString("database.path"))
}

// initStorage opens the database, runs migrations and seeds the default
// taxonomy into an empty database.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(databasePath())
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if _, err := seedTaxonomy(ctx, store); err != nil {
		_ = store.Close()
		return nil, err
	}

	return store, nil
}

// seedTaxonomy loads categories from taxonomy.path, or the built-in set, into
// an empty database.
func seedTaxonomy(ctx context.Context, store *storage.SQLiteStorage) (bool, error) {
	categories, err := loadTaxonomy()
	if err != nil {
		return false, err
	}

	seeded, err := store.SeedTaxonomy(ctx, categories)
	if err != nil {
		return false, fmt.Errorf("failed to seed taxonomy: %w", err)
	}
	if seeded {
		slog.Info("Seeded category taxonomy", "categories", len(categories))
	}
	return seeded, nil
}

func loadTaxonomy() ([]model.Category, error) {
	if path := viper.GetString("taxonomy.path"); path != "" {
		return config.LoadTaxonomy(path)
	}
	return config.DefaultTaxonomy()
}
