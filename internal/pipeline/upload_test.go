package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/config"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/Veraticus/spice-ledger/internal/testutil"
)

func defaultSettings() config.UploadSettings {
	return config.UploadSettings{PendingDaysBuffer: config.DefaultPendingDaysBuffer}
}

func csvUpload(lines ...string) UploadRequest {
	return UploadRequest{
		Filename: "statement.csv",
		Data:     strings.NewReader(strings.Join(lines, "\n")),
	}
}

func TestUpload_EmptyHistoryStagesEverything(t *testing.T) {
	db := testutil.SetupTestDB(t, nil)
	uploader := NewUploader(db.Storage, defaultSettings())

	result := uploader.Upload(context.Background(), csvUpload(
		"Date,Amount,Description",
		"2025-05-01,-12.99,NETFLIX.COM",
		"2025-05-02,\"$1,250.00\",SALARY ACME",
	))

	require.True(t, result.OK(), result.Message)
	assert.Equal(t, common.MsgUploadSuccess, result.Message)
	assert.Equal(t, 2, result.New)
	assert.NotEmpty(t, result.RunID)

	ctx := context.Background()
	staged, err := db.Storage.GetStagedNew(ctx)
	require.NoError(t, err)
	require.Len(t, staged, 2)
	assert.Equal(t, "NETFLIX.COM", staged[0].Description)
	assert.Equal(t, "1250", staged[1].Amount.String())

	runs, err := db.Storage.GetRecentUploadRuns(ctx, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, result.RunID, runs[0].ID)
	assert.Equal(t, model.UploadSuccess, runs[0].Status)
	assert.Equal(t, "csv", runs[0].Format)
	assert.Equal(t, 2, runs[0].NewCount)
}

func TestUpload_ReconcilesAgainstHistory(t *testing.T) {
	db := testutil.SetupTestDB(t, nil)
	history := db.AddHistory(
		testutil.Txn("2025-04-01", "-1500", "RENT APRIL"),
		testutil.Txn("2025-05-20", "-5", "DISCORD* NITRO 05/20"),
		testutil.Txn("2025-05-25", "-30", "CITY GYM"),
	)
	require.Len(t, history, 3)
	gym, discord := history[0], history[1]

	uploader := NewUploader(db.Storage, defaultSettings())
	result := uploader.Upload(context.Background(), csvUpload(
		"Date,Amount,Description",
		"2025-04-01,-1500,RENT APRIL",
		"2025-05-21,-5,DISCORD* NITRO 05/21",
		"2025-05-26,-7,CINEMA",
	))

	require.True(t, result.OK(), result.Message)
	assert.Equal(t, 1, result.New)
	assert.Equal(t, 1, result.Changed)
	assert.Equal(t, 1, result.Unmatched)
	assert.Equal(t, 1, result.Duplicates)

	ctx := context.Background()
	edits, err := db.Storage.GetStagedEdits(ctx)
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, discord.ID, edits[0].TransactionID)
	assert.Equal(t, model.MatchFuzzyDescription, edits[0].Tier)

	unmatched, err := db.Storage.GetStagedUnmatched(ctx)
	require.NoError(t, err)
	require.Len(t, unmatched, 1)
	assert.Equal(t, gym.ID, unmatched[0].TransactionID)

	staged, err := db.Storage.GetStagedNew(ctx)
	require.NoError(t, err)
	require.Len(t, staged, 1)
	assert.Equal(t, "CINEMA", staged[0].Description)
}

func TestUpload_SecondUploadReplacesStaging(t *testing.T) {
	db := testutil.SetupTestDB(t, nil)
	uploader := NewUploader(db.Storage, defaultSettings())
	ctx := context.Background()

	first := uploader.Upload(ctx, csvUpload("Date,Amount,Description", "2025-05-01,-1,A", "2025-05-02,-2,B"))
	require.True(t, first.OK())
	second := uploader.Upload(ctx, csvUpload("Date,Amount,Description", "2025-05-03,-3,C"))
	require.True(t, second.OK())

	staged, err := db.Storage.GetStagedNew(ctx)
	require.NoError(t, err)
	require.Len(t, staged, 1)
	assert.Equal(t, "C", staged[0].Description)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestUpload_UserFacingErrors(t *testing.T) {
	tests := []struct {
		name     string
		settings config.UploadSettings
		request  UploadRequest
		message  string
	}{
		{
			name:     "missing column",
			settings: defaultSettings(),
			request:  csvUpload("When,Amount,Description", "2025-05-01,-1,A"),
			message:  common.MsgColumnNotFound,
		},
		{
			name:     "header only",
			settings: defaultSettings(),
			request:  csvUpload("Date,Amount,Description"),
			message:  common.MsgEmptyInput,
		},
		{
			name:     "bad date names the row",
			settings: defaultSettings(),
			request:  csvUpload("Date,Amount,Description", "2025-05-01,-1,A", "yesterday,-2,B"),
			message:  `Row 3: invalid date "yesterday"`,
		},
		{
			name:     "missing amount",
			settings: defaultSettings(),
			request:  csvUpload("Date,Amount,Description", "2025-05-01,,A"),
			message:  "Row 2: missing amount",
		},
		{
			name:     "invalid buffer",
			settings: config.UploadSettings{PendingDaysBuffer: -1},
			request:  csvUpload("Date,Amount,Description", "2025-05-01,-1,A"),
			message:  "Invalid upload settings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t, nil)
			ctx := context.Background()
			db.Stage(testutil.Txn("2025-01-01", "-9", "PREVIOUSLY STAGED"))

			result := NewUploader(db.Storage, tt.settings).Upload(ctx, tt.request)
			assert.Equal(t, model.UploadError, result.Status)
			assert.Contains(t, result.Message, tt.message)

			// Nothing staged before the failed upload is touched.
			staged, err := db.Storage.GetStagedNew(ctx)
			require.NoError(t, err)
			require.Len(t, staged, 1)
			assert.Equal(t, "PREVIOUSLY STAGED", staged[0].Description)

			runs, err := db.Storage.GetRecentUploadRuns(ctx, 5)
			require.NoError(t, err)
			require.Len(t, runs, 1)
			assert.Equal(t, model.UploadError, runs[0].Status)
			assert.Equal(t, result.Message, runs[0].Message)
		})
	}
}

func TestUpload_ExplicitColumns(t *testing.T) {
	db := testutil.SetupTestDB(t, nil)
	settings := config.UploadSettings{
		DateColumn:        2,
		AmountColumn:      3,
		DescriptionColumn: 1,
		DateFormat:        "02.01.2006",
		PendingDaysBuffer: 14,
	}

	result := NewUploader(db.Storage, settings).Upload(context.Background(), csvUpload(
		"Details,Posted,Value",
		"COFFEE,21.05.2025,-4.50",
	))
	require.True(t, result.OK(), result.Message)

	staged, err := db.Storage.GetStagedNew(context.Background())
	require.NoError(t, err)
	require.Len(t, staged, 1)
	assert.Equal(t, "COFFEE", staged[0].Description)
	assert.Equal(t, 21, staged[0].Date.Day())
}

type panickingStore struct {
	service.Storage
}

func (p panickingStore) BeginTx(ctx context.Context) (service.Transaction, error) {
	tx, err := p.Storage.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return panickingTx{Transaction: tx}, nil
}

type panickingTx struct {
	service.Transaction
}

func (panickingTx) GetTransactionHistory(context.Context) ([]model.StoredTransaction, error) {
	panic("history exploded")
}

func TestUpload_PanicBecomesGenericFailure(t *testing.T) {
	db := testutil.SetupTestDB(t, nil)
	uploader := NewUploader(panickingStore{Storage: db.Storage}, defaultSettings())

	result := uploader.Upload(context.Background(), csvUpload("Date,Amount,Description", "2025-05-01,-1,A"))
	assert.Equal(t, model.UploadError, result.Status)
	assert.Equal(t, common.MsgUploadFailed, result.Message)

	// The transaction was rolled back, so the database is still usable.
	runs, err := db.Storage.GetRecentUploadRuns(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, common.MsgUploadFailed, runs[0].Message)
}
