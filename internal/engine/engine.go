// Package engine drains the staging area by classifying new transactions in
// batches and committing them to the permanent history.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// Default batching parameters.
const (
	DefaultBatchSize    = 300
	DefaultBatchTimeout = 2 * time.Minute
)

// Options configures an Orchestrator.
type Options struct {
	Progress     Progress
	BatchSize    int
	BatchTimeout time.Duration
}

// Summary reports what one run did.
type Summary struct {
	FailedBatches    []BatchFailure
	Staged           int
	Batches          int
	Committed        int
	Skipped          int
	Uncategorised    int
	MerchantsCreated int
}

// BatchFailure records a batch that was left staged.
type BatchFailure struct {
	Err   error
	Index int
	Size  int
}

// Orchestrator classifies staged rows batch by batch.
type Orchestrator struct {
	store        service.ClassificationStore
	classifier   Classifier
	progress     Progress
	batchSize    int
	batchTimeout time.Duration
}

// NewOrchestrator creates an orchestrator over the given store and classifier.
func NewOrchestrator(store service.ClassificationStore, classifier Classifier, opts Options) *Orchestrator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = DefaultBatchTimeout
	}
	if opts.Progress == nil {
		opts.Progress = noopProgress{}
	}

	return &Orchestrator{
		store:        store,
		classifier:   classifier,
		progress:     opts.Progress,
		batchSize:    opts.BatchSize,
		batchTimeout: opts.BatchTimeout,
	}
}

// Run classifies every staged new transaction. Batches are processed in
// staging order, one at a time. A failed batch does not stop the run; its
// rows stay staged and the failure is returned joined with any others once
// every batch has been attempted.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	staged, err := o.store.GetStagedNew(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load staged transactions: %w", err)
	}

	summary := &Summary{Staged: len(staged)}
	if len(staged) == 0 {
		common.LogDebug("No staged transactions to classify", nil)
		return summary, nil
	}

	merchants, err := o.store.GetMerchants(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load merchants: %w", err)
	}
	categories, err := o.store.GetTaxonomy(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load taxonomy: %w", err)
	}

	known := make(map[string]int64, len(merchants))
	names := make([]string, 0, len(merchants))
	for _, m := range merchants {
		known[m.Name] = m.ID
		names = append(names, m.Name)
	}

	b := &batchRun{
		Orchestrator: o,
		taxonomy:     model.NewTaxonomy(categories),
		known:        known,
		names:        names,
		summary:      summary,
	}

	batches := chunk(staged, o.batchSize)
	summary.Batches = len(batches)

	slog.Info("Starting classification",
		"staged", len(staged),
		"batches", len(batches),
		"batch_size", o.batchSize)

	var errs []error
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		o.progress.BatchStarted(i, len(batches), len(batch))
		committed, batchErr := b.process(ctx, batch)
		o.progress.BatchFinished(i, committed, batchErr)

		if batchErr != nil {
			common.LogError(batchErr, "Batch failed; rows left staged", common.Fields{
				"batch": i,
				"size":  len(batch),
			})
			summary.FailedBatches = append(summary.FailedBatches, BatchFailure{Index: i, Size: len(batch), Err: batchErr})
			errs = append(errs, fmt.Errorf("batch %d: %w", i, batchErr))
			continue
		}
		summary.Committed += committed
	}

	slog.Info("Classification finished",
		"committed", summary.Committed,
		"skipped", summary.Skipped,
		"uncategorised", summary.Uncategorised,
		"merchants_created", summary.MerchantsCreated,
		"failed_batches", len(summary.FailedBatches))

	return summary, errors.Join(errs...)
}

type batchRun struct {
	*Orchestrator
	taxonomy *model.Taxonomy
	known    map[string]int64
	summary  *Summary
	names    []string
}

func (b *batchRun) process(ctx context.Context, batch []model.StagedNew) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, b.batchTimeout)
	defer cancel()

	byID := make(map[int64]model.StagedNew, len(batch))
	rows := make([]model.BatchRow, len(batch))
	for i, s := range batch {
		byID[s.ID] = s
		rows[i] = model.BatchRow{ID: s.ID, Description: s.Description, Amount: s.Amount}
	}

	answers, err := b.classifier.ClassifyBatch(ctx, model.BatchRequest{
		Rows:           rows,
		Labels:         b.taxonomy.Labels(),
		KnownMerchants: b.names,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", common.ErrClassificationFailed, err)
	}

	var accepted []model.ClassifiedRow
	seen := make(map[int64]bool, len(answers))
	var newNames []string
	for _, answer := range answers {
		answer.Merchant = strings.TrimSpace(answer.Merchant)
		if _, ok := byID[answer.ID]; !ok || seen[answer.ID] {
			slog.Warn("Classifier returned an id outside the batch", "id", answer.ID)
			b.summary.Skipped++
			continue
		}
		seen[answer.ID] = true
		accepted = append(accepted, answer)

		if !model.IsUnknownMerchant(answer.Merchant) {
			if _, ok := b.known[answer.Merchant]; !ok {
				newNames = append(newNames, answer.Merchant)
			}
		}
	}
	if omitted := len(batch) - len(accepted); omitted > 0 {
		slog.Warn("Classifier omitted rows; they stay staged", "count", omitted)
	}
	if len(accepted) == 0 {
		return 0, nil
	}

	if len(newNames) > 0 {
		created, err := b.store.EnsureMerchants(ctx, newNames)
		if err != nil {
			return 0, fmt.Errorf("failed to create merchants: %w", err)
		}
		for name, id := range created {
			if _, ok := b.known[name]; !ok {
				b.known[name] = id
				b.names = append(b.names, name)
				b.summary.MerchantsCreated++
			}
		}
	}

	out := make([]model.ClassifiedTransaction, 0, len(accepted))
	uncategorised := 0
	for _, answer := range accepted {
		s := byID[answer.ID]
		txn := model.ClassifiedTransaction{
			StagedID:    s.ID,
			Date:        s.Date,
			Amount:      s.Amount,
			Description: s.Description,
		}

		if id, ok := b.known[answer.Merchant]; ok && !model.IsUnknownMerchant(answer.Merchant) {
			txn.MerchantID = &id
		}

		if ref, ok := b.taxonomy.Resolve(answer.Category); ok {
			txn.CategoryID = &ref.CategoryID
			txn.SubcategoryID = &ref.SubcategoryID
		} else {
			if answer.Category != model.UncategorisedLabel {
				slog.Warn("Classifier returned a label outside the taxonomy; leaving uncategorised",
					"id", answer.ID,
					"label", answer.Category)
			}
			uncategorised++
		}

		out = append(out, txn)
	}

	if err := b.store.CommitClassifiedBatch(ctx, out); err != nil {
		return 0, fmt.Errorf("failed to commit batch: %w", err)
	}
	b.summary.Uncategorised += uncategorised

	return len(out), nil
}

func chunk(rows []model.StagedNew, size int) [][]model.StagedNew {
	batches := make([][]model.StagedNew, 0, (len(rows)+size-1)/size)
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		batches = append(batches, rows[start:end])
	}
	return batches
}
