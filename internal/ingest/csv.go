package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/common"
)

// readCSV reads every non-blank record, remembering the line each began on.
func readCSV(r io.Reader) ([]record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var records []record
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, common.NewUserError(
					fmt.Sprintf("Row %d: malformed CSV", parseErr.StartLine),
					fmt.Errorf("%w: %w", common.ErrInvalidRow, err))
			}
			return nil, fmt.Errorf("reading CSV: %w", err)
		}
		if isBlank(fields) {
			continue
		}
		line, _ := cr.FieldPos(0)
		records = append(records, record{cells: fields, line: line})
	}
	return records, nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
