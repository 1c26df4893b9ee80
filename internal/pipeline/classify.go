package pipeline

import (
	"context"
	"log/slog"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/engine"
)

// Runner drains the staging area. *engine.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context) (*engine.Summary, error)
}

// Classify runs one classification pass and never fails: errors are logged
// and the rows involved stay staged for the next pass. The summary is nil only
// if the pass could not start.
func Classify(ctx context.Context, runner Runner) *engine.Summary {
	summary, err := runner.Run(ctx)
	if err != nil {
		common.LogError(err, "Classification pass finished with errors", nil)
	}
	if summary != nil && summary.Staged > 0 {
		slog.Info("Classification pass complete",
			"staged", summary.Staged,
			"committed", summary.Committed,
			"failed_batches", len(summary.FailedBatches))
	}
	return summary
}

// ClassifyAsync runs Classify in a goroutine. The channel yields the summary
// once and is then closed.
func ClassifyAsync(ctx context.Context, runner Runner) <-chan *engine.Summary {
	done := make(chan *engine.Summary, 1)
	go func() {
		defer close(done)
		done <- Classify(ctx, runner)
	}()
	return done
}

// ProcessAndClassify uploads a statement and, only if the upload succeeded,
// classifies the rows it staged. Reconciliation has fully committed its
// staging before classification starts.
func ProcessAndClassify(ctx context.Context, uploader *Uploader, runner Runner, req UploadRequest) (Result, *engine.Summary) {
	result := uploader.Upload(ctx, req)
	if !result.OK() {
		return result, nil
	}
	return result, Classify(ctx, runner)
}
