// Package ingest turns uploaded bank statements into candidate transactions.
package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/common"
)

// Format identifies a statement file format.
type Format string

// Supported statement formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatOFX  Format = "ofx"
)

// DetectFormat guesses the statement format from a file name, defaulting to CSV.
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".ofx", ".qfx":
		return FormatOFX
	default:
		return FormatCSV
	}
}

// ParseFormat validates a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatCSV, FormatXLSX, FormatOFX:
		return f, nil
	case "qfx":
		return FormatOFX, nil
	default:
		return "", fmt.Errorf("%w: unsupported format %q", common.ErrInvalidConfig, name)
	}
}
