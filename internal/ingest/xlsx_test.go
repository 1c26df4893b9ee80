package ingest

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/config"
)

func buildWorkbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellRef, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParse_XLSX(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"Date", "Amount", "Description"},
		{"2025-05-26", "-5.00", "DISCORD* SPIRITEMBERS"},
		{45803, -12.5, "Serial date"},
	})

	txns, err := NewParser(config.ColumnIndexes{}, "").Parse(context.Background(), buf, FormatXLSX)
	require.NoError(t, err)
	require.Len(t, txns, 2)

	assert.Equal(t, "DISCORD* SPIRITEMBERS", txns[0].Description)
	assert.Equal(t, "2025-05-26", txns[0].Date.Format("2006-01-02"))
	assert.Equal(t, "-5", txns[0].Amount.String())

	assert.Equal(t, "2025-05-26", txns[1].Date.Format("2006-01-02"))
	assert.Equal(t, "-12.5", txns[1].Amount.String())
}

func TestParse_XLSXRowError(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"Date", "Amount", "Description"},
		{"2025-05-26", "-5.00", "Ok"},
		{"yesterday", "1", "Bad"},
	})

	_, err := NewParser(config.ColumnIndexes{}, "").Parse(context.Background(), buf, FormatXLSX)
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 3, rowErr.Row)
	assert.Equal(t, "date", rowErr.Field)
}

func TestParse_XLSXInvalid(t *testing.T) {
	_, err := NewParser(config.ColumnIndexes{}, "").Parse(context.Background(),
		bytes.NewBufferString("definitely not a zip"), FormatXLSX)
	require.Error(t, err)
	assert.Equal(t, "File is not a valid Excel workbook", common.UserMessage(err, ""))
}
