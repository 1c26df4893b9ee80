package ingest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/config"
)

func intPtr(i int) *int { return &i }

func parseCSV(t *testing.T, p *Parser, data string) ([]candidateView, error) {
	t.Helper()
	txns, err := p.Parse(context.Background(), strings.NewReader(data), FormatCSV)
	if err != nil {
		return nil, err
	}
	views := make([]candidateView, len(txns))
	for i, tx := range txns {
		views[i] = candidateView{Date: tx.Date.Format("2006-01-02"), Amount: tx.Amount.String(), Description: tx.Description}
	}
	return views, nil
}

type candidateView struct {
	Date        string
	Amount      string
	Description string
}

func TestParse_AutoDetectHeaders(t *testing.T) {
	data := "Date,Description,Amount\n" +
		"2025-05-26,DISCORD* SPIRITEMBERS 24999999999,-5.00\n" +
		"\n" +
		"2025-05-27,\"Woolworths 1234, Sydney\",\"$1,234.50\"\n"

	got, err := parseCSV(t, NewParser(config.ColumnIndexes{}, ""), data)
	require.NoError(t, err)

	assert.Equal(t, []candidateView{
		{Date: "2025-05-26", Amount: "-5", Description: "DISCORD* SPIRITEMBERS 24999999999"},
		{Date: "2025-05-27", Amount: "1234.5", Description: "Woolworths 1234, Sydney"},
	}, got)
}

func TestParse_HeaderMatchIsCaseInsensitive(t *testing.T) {
	data := "AMOUNT,DATE, description \n12.00,2025-01-02,Coffee\n"

	got, err := parseCSV(t, NewParser(config.ColumnIndexes{}, ""), data)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Coffee", got[0].Description)
	assert.Equal(t, "12", got[0].Amount)
}

func TestParse_ExplicitColumnsOverrideHeaders(t *testing.T) {
	data := "Posted,Details,Debit,Description\n02/01/2025,Coffee,-3.20,ignored\n"
	cols := config.ColumnIndexes{Date: intPtr(0), Amount: intPtr(2), Description: intPtr(1)}

	got, err := parseCSV(t, NewParser(cols, "02/01/2006"), data)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, candidateView{Date: "2025-01-02", Amount: "-3.2", Description: "Coffee"}, got[0])
}

func TestParse_MissingColumn(t *testing.T) {
	data := "Date,Amount,Memo\n2025-01-02,1.00,Coffee\n"

	_, err := parseCSV(t, NewParser(config.ColumnIndexes{}, ""), data)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrColumnNotFound)
	assert.Equal(t, "Date, amount, or description column not found", common.UserMessage(err, ""))
}

func TestParse_EmptyInput(t *testing.T) {
	for _, data := range []string{"", "Date,Amount,Description\n", "Date,Amount,Description\n\n\n"} {
		_, err := parseCSV(t, NewParser(config.ColumnIndexes{}, ""), data)
		assert.ErrorIs(t, err, common.ErrEmptyInput, "input %q", data)
	}
}

func TestParse_RowErrors(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantRow   int
		wantField string
		wantValue string
		wantMsg   string
	}{
		{
			name:      "bad date",
			data:      "Date,Amount,Description\n2025-01-02,1.00,Ok\nnot-a-date,2.00,Bad\n",
			wantRow:   3,
			wantField: "date",
			wantValue: "not-a-date",
			wantMsg:   `Row 3: invalid date "not-a-date"`,
		},
		{
			name:      "non numeric amount",
			data:      "Date,Amount,Description\n2025-01-02,abc,Bad\n",
			wantRow:   2,
			wantField: "amount",
			wantValue: "abc",
			wantMsg:   `Row 2: invalid amount "abc"`,
		},
		{
			name:      "malformed amount",
			data:      "Date,Amount,Description\n2025-01-02,1.2.3,Bad\n",
			wantRow:   2,
			wantField: "amount",
			wantValue: "1.2.3",
			wantMsg:   `Row 2: invalid amount "1.2.3"`,
		},
		{
			name:      "missing cell",
			data:      "Date,Amount,Description\n2025-01-02,1.00\n",
			wantRow:   2,
			wantField: "description",
			wantMsg:   "Row 2: missing description",
		},
		{
			name:      "row number counts blank lines",
			data:      "Date,Amount,Description\n\n\n2025-01-02,,Coffee\n",
			wantRow:   4,
			wantField: "amount",
			wantMsg:   "Row 4: missing amount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseCSV(t, NewParser(config.ColumnIndexes{}, ""), tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidRow)

			var rowErr *RowError
			require.ErrorAs(t, err, &rowErr)
			assert.Equal(t, tt.wantRow, rowErr.Row)
			assert.Equal(t, tt.wantField, rowErr.Field)
			assert.Equal(t, tt.wantValue, rowErr.Value)
			assert.Equal(t, tt.wantMsg, common.UserMessage(err, ""))
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"-5.00", "-5", true},
		{"$1,234.56", "1234.56", true},
		{"AUD 12", "12", true},
		{" -0.10 ", "-0.1", true},
		{"(5.00)", "5", true},
		{"", "", false},
		{"n/a", "", false},
		{"--1", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestParseDate_Layouts(t *testing.T) {
	p := NewParser(config.ColumnIndexes{}, "")
	want := time.Date(2025, 5, 26, 0, 0, 0, 0, time.UTC)

	for _, raw := range []string{"2025-05-26", "05/26/2025", "5/26/2025", "26 May 2025", "May 26, 2025", "2025/05/26"} {
		got, err := p.parseDate(raw, false)
		require.NoError(t, err, raw)
		assert.True(t, want.Equal(got), "%s parsed as %s", raw, got)
	}

	got, err := p.parseDate("2025-05-26T10:00:00+10:00", false)
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	_, err = p.parseDate("45803", false)
	assert.ErrorIs(t, err, errBadDate)
}

func TestParse_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser(config.ColumnIndexes{}, "").Parse(ctx,
		strings.NewReader("Date,Amount,Description\n2025-01-02,1,Coffee\n"), FormatCSV)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatCSV, DetectFormat("statement.csv"))
	assert.Equal(t, FormatCSV, DetectFormat("statement"))
	assert.Equal(t, FormatXLSX, DetectFormat("Statement.XLSX"))
	assert.Equal(t, FormatOFX, DetectFormat("export.qfx"))
	assert.Equal(t, FormatOFX, DetectFormat("export.ofx"))

	f, err := ParseFormat("QFX")
	require.NoError(t, err)
	assert.Equal(t, FormatOFX, f)

	_, err = ParseFormat("pdf")
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}
