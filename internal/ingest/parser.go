package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/config"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/ofx"
)

// Header names recognised when columns are not configured.
const (
	headerDate        = "date"
	headerAmount      = "amount"
	headerDescription = "description"
)

// DefaultDateLayouts are tried in order when parsing a date cell.
var DefaultDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"1/2/06",
	"02 Jan 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

var (
	errMissingCell = errors.New("missing value")
	errBadDate     = errors.New("unrecognised date")
	errNoDigits    = errors.New("no numeric content")
)

// record is one non-blank row of a tabular statement.
type record struct {
	cells []string
	line  int
}

// Parser reads statements using a column mapping.
type Parser struct {
	ofx         *ofx.Parser
	columns     config.ColumnIndexes
	dateLayouts []string
}

// NewParser creates a parser. A non-empty dateFormat is tried before the
// default layouts.
func NewParser(columns config.ColumnIndexes, dateFormat string) *Parser {
	layouts := DefaultDateLayouts
	if dateFormat != "" {
		layouts = append([]string{dateFormat}, DefaultDateLayouts...)
	}
	return &Parser{
		columns:     columns,
		dateLayouts: layouts,
		ofx:         ofx.NewParser(),
	}
}

// Parse reads a statement in the given format.
func (p *Parser) Parse(ctx context.Context, r io.Reader, format Format) ([]model.CandidateTransaction, error) {
	switch format {
	case FormatOFX:
		return p.ofx.ParseFile(ctx, r)
	case FormatXLSX:
		records, err := readXLSX(r)
		if err != nil {
			return nil, err
		}
		return p.parseRecords(ctx, records, true)
	case FormatCSV, "":
		records, err := readCSV(r)
		if err != nil {
			return nil, err
		}
		return p.parseRecords(ctx, records, false)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", common.ErrInvalidConfig, format)
	}
}

// parseRecords converts a header row plus data rows into candidates. The
// first bad row aborts the whole parse.
func (p *Parser) parseRecords(ctx context.Context, records []record, spreadsheet bool) ([]model.CandidateTransaction, error) {
	if len(records) < 2 {
		return nil, common.NewUserError(common.MsgEmptyInput, common.ErrEmptyInput)
	}

	cols, err := p.resolveColumns(records[0].cells)
	if err != nil {
		return nil, err
	}

	candidates := make([]model.CandidateTransaction, 0, len(records)-1)
	for _, rec := range records[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		candidate, err := p.parseRow(rec, cols, spreadsheet)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

type resolvedColumns struct {
	date, amount, description int
}

// resolveColumns applies explicit overrides first and falls back to header names.
func (p *Parser) resolveColumns(header []string) (resolvedColumns, error) {
	detected := map[string]int{}
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff")))
		if _, seen := detected[name]; !seen {
			detected[name] = i
		}
	}

	pick := func(override *int, name string) (int, bool) {
		if override != nil {
			return *override, *override >= 0
		}
		idx, ok := detected[name]
		return idx, ok
	}

	var cols resolvedColumns
	var okDate, okAmount, okDesc bool
	cols.date, okDate = pick(p.columns.Date, headerDate)
	cols.amount, okAmount = pick(p.columns.Amount, headerAmount)
	cols.description, okDesc = pick(p.columns.Description, headerDescription)

	if !okDate || !okAmount || !okDesc {
		return resolvedColumns{}, common.NewUserError(common.MsgColumnNotFound, common.ErrColumnNotFound)
	}
	return cols, nil
}

func (p *Parser) parseRow(rec record, cols resolvedColumns, spreadsheet bool) (model.CandidateTransaction, error) {
	rawDate, ok := cell(rec.cells, cols.date)
	if !ok {
		return model.CandidateTransaction{}, newRowError(rec.line, headerDate, "", errMissingCell)
	}
	rawAmount, ok := cell(rec.cells, cols.amount)
	if !ok {
		return model.CandidateTransaction{}, newRowError(rec.line, headerAmount, "", errMissingCell)
	}
	description, ok := cell(rec.cells, cols.description)
	if !ok {
		return model.CandidateTransaction{}, newRowError(rec.line, headerDescription, "", errMissingCell)
	}

	date, err := p.parseDate(rawDate, spreadsheet)
	if err != nil {
		return model.CandidateTransaction{}, newRowError(rec.line, headerDate, rawDate, err)
	}

	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return model.CandidateTransaction{}, newRowError(rec.line, headerAmount, rawAmount, err)
	}

	return model.CandidateTransaction{
		Date:        date,
		Amount:      amount,
		Description: description,
	}, nil
}

func cell(cells []string, idx int) (string, bool) {
	if idx >= len(cells) {
		return "", false
	}
	value := strings.TrimSpace(cells[idx])
	return value, value != ""
}

// ParseAmount parses a monetary cell after discarding everything except
// digits, '.' and '-', so "$1,234.50" reads as 1234.50.
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, raw)
	if cleaned == "" {
		return decimal.Zero, errNoDigits
	}
	return decimal.NewFromString(cleaned)
}

// parseDate tries each layout in turn. Values without a zone are UTC.
// Spreadsheet cells may also hold Excel serial dates.
func (p *Parser) parseDate(raw string, spreadsheet bool) (time.Time, error) {
	for _, layout := range p.dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	if spreadsheet {
		if serial, err := strconv.ParseFloat(raw, 64); err == nil {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return t.UTC(), nil
			}
		}
	}
	return time.Time{}, errBadDate
}
