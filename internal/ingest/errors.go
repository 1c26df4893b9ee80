package ingest

import (
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/common"
)

// RowError reports the first row of a statement that could not be parsed.
// Row is the 1-based line (or sheet row) number; the header is row 1.
type RowError struct {
	Err   error
	Field string
	Value string
	Row   int
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: invalid %s %q: %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// userMessage is the text shown to whoever uploaded the file.
func (e *RowError) userMessage() string {
	if e.Value == "" {
		return fmt.Sprintf("Row %d: missing %s", e.Row, e.Field)
	}
	return fmt.Sprintf("Row %d: invalid %s %q", e.Row, e.Field, e.Value)
}

func newRowError(row int, field, value string, cause error) error {
	rowErr := &RowError{
		Row:   row,
		Field: field,
		Value: value,
		Err:   fmt.Errorf("%w: %w", common.ErrInvalidRow, cause),
	}
	return common.NewUserError(rowErr.userMessage(), rowErr)
}
