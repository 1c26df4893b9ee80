// Package pipeline wires parsing, reconciliation, staging and classification
// into the two entry points callers use: upload a statement, classify what
// is staged.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/config"
	"github.com/Veraticus/spice-ledger/internal/ingest"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/reconcile"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// UploadRequest is one statement to ingest. An empty Format is detected from
// the file name.
type UploadRequest struct {
	Data     io.Reader
	Filename string
	Format   ingest.Format
}

// Result is the outcome reported to the caller of an upload.
type Result struct {
	Status     model.UploadStatus `json:"status"`
	Message    string             `json:"message,omitempty"`
	RunID      string             `json:"run_id"`
	New        int                `json:"new"`
	Changed    int                `json:"changed"`
	Unmatched  int                `json:"unmatched"`
	Duplicates int                `json:"duplicates"`
}

// OK reports whether the upload succeeded.
func (r Result) OK() bool {
	return r.Status == model.UploadSuccess
}

// Uploader turns uploaded statements into staged reconciliation results.
type Uploader struct {
	store    service.Storage
	now      func() time.Time
	settings config.UploadSettings
}

// NewUploader creates an uploader that reads settings once, at construction.
func NewUploader(store service.Storage, settings config.UploadSettings) *Uploader {
	return &Uploader{store: store, settings: settings, now: time.Now}
}

// Upload parses the statement, reconciles it against the stored history and
// replaces the staging area with the outcome. Every failure is reported in the
// Result; configuration and row errors carry a message naming the problem,
// anything else is reported generically.
func (u *Uploader) Upload(ctx context.Context, req UploadRequest) Result {
	run := &model.UploadRun{
		ID:        uuid.NewString(),
		StartedAt: u.now().UTC(),
		Filename:  req.Filename,
		Format:    string(u.format(req)),
	}

	counts, err := u.upload(ctx, req, run)
	if err != nil {
		message := common.UserMessage(err, common.MsgUploadFailed)
		common.LogError(err, "Upload failed", common.Fields{
			"run_id":   run.ID,
			"filename": req.Filename,
		})

		run.Status = model.UploadError
		run.Message = message
		if saveErr := u.store.SaveUploadRun(context.WithoutCancel(ctx), run); saveErr != nil {
			slog.Warn("Failed to record failed upload", "run_id", run.ID, "error", saveErr)
		}

		return Result{Status: model.UploadError, Message: message, RunID: run.ID}
	}

	common.LogInfo("Upload staged", common.Fields{
		"run_id":     run.ID,
		"filename":   req.Filename,
		"new":        counts.New,
		"changed":    counts.Changed,
		"unmatched":  counts.Unmatched,
		"duplicates": counts.Duplicates,
	})

	return Result{
		Status:     model.UploadSuccess,
		Message:    common.MsgUploadSuccess,
		RunID:      run.ID,
		New:        counts.New,
		Changed:    counts.Changed,
		Unmatched:  counts.Unmatched,
		Duplicates: counts.Duplicates,
	}
}

type uploadCounts struct {
	New        int
	Changed    int
	Unmatched  int
	Duplicates int
}

func (u *Uploader) upload(ctx context.Context, req UploadRequest, run *model.UploadRun) (counts uploadCounts, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during upload: %v", r)
		}
	}()

	if err := u.settings.Validate(); err != nil {
		return counts, common.NewUserError(fmt.Sprintf("Invalid upload settings: %v", err), err)
	}
	if req.Data == nil {
		return counts, common.NewUserError(common.MsgEmptyInput, common.ErrEmptyInput)
	}

	parser := ingest.NewParser(u.settings.Columns(), u.settings.DateFormat)
	candidates, err := parser.Parse(ctx, req.Data, u.format(req))
	if err != nil {
		return counts, err
	}

	tx, err := u.store.BeginTx(ctx)
	if err != nil {
		return counts, fmt.Errorf("failed to begin upload transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	history, err := tx.GetTransactionHistory(ctx)
	if err != nil {
		return counts, fmt.Errorf("failed to read history: %w", err)
	}

	result := reconcile.Reconcile(history, candidates, u.settings.PendingDaysBuffer)

	if err = tx.ReplaceStaging(ctx, &result); err != nil {
		return counts, fmt.Errorf("failed to stage results: %w", err)
	}

	counts = uploadCounts{
		New:        len(result.New),
		Changed:    len(result.Changed),
		Unmatched:  len(result.Unmatched),
		Duplicates: result.Duplicates,
	}
	run.Status = model.UploadSuccess
	run.NewCount = counts.New
	run.ChangedCount = counts.Changed
	run.UnmatchedCount = counts.Unmatched
	run.DuplicateCount = counts.Duplicates

	if err = tx.SaveUploadRun(ctx, run); err != nil {
		return counts, fmt.Errorf("failed to record upload: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return counts, fmt.Errorf("failed to commit upload: %w", err)
	}
	committed = true

	return counts, nil
}

func (u *Uploader) format(req UploadRequest) ingest.Format {
	if req.Format != "" {
		return req.Format
	}
	return ingest.DetectFormat(req.Filename)
}
