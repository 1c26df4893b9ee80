package ingest

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/spice-ledger/internal/common"
)

// readXLSX reads the first worksheet of a workbook. Sheet row numbers are
// kept so errors point at the row the user sees.
func readXLSX(r io.Reader) ([]record, error) {
	xl, err := excelize.OpenReader(r)
	if err != nil {
		return nil, common.NewUserError("File is not a valid Excel workbook", fmt.Errorf("opening workbook: %w", err))
	}
	defer func() { _ = xl.Close() }()

	sheet := xl.GetSheetName(0)
	if sheet == "" {
		return nil, common.NewUserError(common.MsgEmptyInput, common.ErrEmptyInput)
	}

	rows, err := xl.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}

	records := make([]record, 0, len(rows))
	for i, cells := range rows {
		if isBlank(cells) {
			continue
		}
		records = append(records, record{cells: cells, line: i + 1})
	}
	return records, nil
}
