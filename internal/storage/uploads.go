package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// SaveUploadRun records the outcome of an upload.
func (s *SQLiteStorage) SaveUploadRun(ctx context.Context, run *model.UploadRun) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUploadRun(run); err != nil {
		return err
	}
	return s.saveUploadRunTx(ctx, s.db, run)
}

func (s *SQLiteStorage) saveUploadRunTx(ctx context.Context, q queryable, run *model.UploadRun) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO upload_runs (id, started_at, filename, format, status, message,
			new_count, changed_count, unmatched_count, duplicate_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			message = excluded.message,
			new_count = excluded.new_count,
			changed_count = excluded.changed_count,
			unmatched_count = excluded.unmatched_count,
			duplicate_count = excluded.duplicate_count
	`, run.ID, run.StartedAt.UTC(), run.Filename, run.Format, string(run.Status), run.Message,
		run.NewCount, run.ChangedCount, run.UnmatchedCount, run.DuplicateCount)
	if err != nil {
		return fmt.Errorf("failed to save upload run: %w", err)
	}
	return nil
}

// GetRecentUploadRuns returns the most recent upload runs, newest first.
func (s *SQLiteStorage) GetRecentUploadRuns(ctx context.Context, limit int) ([]model.UploadRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, filename, format, status, message,
			new_count, changed_count, unmatched_count, duplicate_count
		FROM upload_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query upload runs: %w", err)
	}
	defer rows.Close()

	var runs []model.UploadRun
	for rows.Next() {
		var run model.UploadRun
		var status string
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.Filename, &run.Format, &status, &run.Message,
			&run.NewCount, &run.ChangedCount, &run.UnmatchedCount, &run.DuplicateCount); err != nil {
			return nil, fmt.Errorf("failed to scan upload run: %w", err)
		}
		run.Status = model.UploadStatus(status)
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
