package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

This command ensures your local database has the history, staging and
audit tables the application needs.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := storageWithoutSeed(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			slog.Info("✅ Database migrations completed successfully!",
				"database", databasePath(),
				"schema_version", storage.ExpectedSchemaVersion)
			return nil
		},
	}
}

// storageWithoutSeed opens and migrates the database but leaves the taxonomy alone.
func storageWithoutSeed(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := databasePath()
	slog.Debug("Opening database", "database", dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return store, nil
}
