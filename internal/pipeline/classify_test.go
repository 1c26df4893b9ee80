package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/engine"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/testutil"
)

type runnerFunc func(context.Context) (*engine.Summary, error)

func (f runnerFunc) Run(ctx context.Context) (*engine.Summary, error) {
	return f(ctx)
}

func TestClassify_SwallowsErrors(t *testing.T) {
	runner := runnerFunc(func(context.Context) (*engine.Summary, error) {
		return &engine.Summary{Staged: 3, Committed: 1}, errors.New("batch 1: boom")
	})

	summary := Classify(context.Background(), runner)
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Committed)
}

func TestClassifyAsync(t *testing.T) {
	runner := runnerFunc(func(context.Context) (*engine.Summary, error) {
		return &engine.Summary{Staged: 1, Committed: 1}, nil
	})

	summary, ok := <-ClassifyAsync(context.Background(), runner)
	require.True(t, ok)
	assert.Equal(t, 1, summary.Committed)

	_, ok = <-ClassifyAsync(context.Background(), runner)
	assert.True(t, ok)
}

func TestProcessAndClassify(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.NewTaxonomyBuilder().WithBasicTaxonomy().Build())
	classifier := engine.NewMockClassifier(engine.MockRule{Keyword: "netflix", Merchant: "Netflix", Label: testutil.LabelStreaming})
	orchestrator := engine.NewOrchestrator(db.Storage, classifier, engine.Options{})
	uploader := NewUploader(db.Storage, defaultSettings())
	ctx := context.Background()

	result, summary := ProcessAndClassify(ctx, uploader, orchestrator, csvUpload(
		"Date,Amount,Description",
		"2025-05-01,-12.99,NETFLIX.COM",
		"2025-05-02,-3,KIOSK",
	))
	require.True(t, result.OK(), result.Message)
	require.NotNil(t, summary)
	assert.Equal(t, 2, summary.Committed)

	counts, err := db.Storage.GetStagingCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.StagingCounts{}, *counts)

	count, err := db.Storage.GetTransactionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestProcessAndClassify_SkipsClassificationOnFailedUpload(t *testing.T) {
	db := testutil.SetupTestDB(t, nil)
	called := false
	runner := runnerFunc(func(context.Context) (*engine.Summary, error) {
		called = true
		return &engine.Summary{}, nil
	})

	result, summary := ProcessAndClassify(context.Background(), NewUploader(db.Storage, defaultSettings()), runner,
		csvUpload("Nope,Amount,Description", "2025-05-01,-1,A"))
	assert.False(t, result.OK())
	assert.Nil(t, summary)
	assert.False(t, called)
}
