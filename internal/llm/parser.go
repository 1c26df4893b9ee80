package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// ErrInvalidResponse is returned when a provider reply does not satisfy the
// classification contract. The whole batch is rejected.
var ErrInvalidResponse = errors.New("invalid classifier response")

type rawResponse struct {
	Transactions *[]rawRow `json:"transactions"`
}

type rawRow struct {
	Merchant *string         `json:"merchant"`
	Category *string         `json:"category"`
	ID       json.RawMessage `json:"id"`
}

// parseClassifiedRows validates a provider reply and converts it to rows.
// Ids must be positive integers and unique; merchant and category must be
// non-empty strings. Unknown fields anywhere in the document are rejected.
func parseClassifiedRows(content string) ([]model.ClassifiedRow, error) {
	content = cleanMarkdownWrapper(content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty response", ErrInvalidResponse)
	}

	dec := json.NewDecoder(strings.NewReader(content))
	dec.DisallowUnknownFields()

	var resp rawResponse
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON document", ErrInvalidResponse)
	}
	if resp.Transactions == nil {
		return nil, fmt.Errorf("%w: missing transactions array", ErrInvalidResponse)
	}

	rows := make([]model.ClassifiedRow, 0, len(*resp.Transactions))
	seen := make(map[int64]bool, len(*resp.Transactions))
	for i, raw := range *resp.Transactions {
		if len(raw.ID) == 0 {
			return nil, fmt.Errorf("%w: row %d has no id", ErrInvalidResponse, i)
		}
		id, err := strconv.ParseInt(string(raw.ID), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: row %d has invalid id %s", ErrInvalidResponse, i, raw.ID)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrInvalidResponse, id)
		}
		seen[id] = true

		if raw.Merchant == nil || strings.TrimSpace(*raw.Merchant) == "" {
			return nil, fmt.Errorf("%w: row %d has no merchant", ErrInvalidResponse, id)
		}
		if raw.Category == nil || strings.TrimSpace(*raw.Category) == "" {
			return nil, fmt.Errorf("%w: row %d has no category", ErrInvalidResponse, id)
		}

		rows = append(rows, model.ClassifiedRow{
			ID:       id,
			Merchant: strings.TrimSpace(*raw.Merchant),
			Category: strings.TrimSpace(*raw.Category),
		})
	}

	return rows, nil
}

// cleanMarkdownWrapper removes a ```json fence around the document, if present.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	content = strings.TrimPrefix(content, "```")
	if nl := strings.IndexByte(content, '\n'); nl >= 0 {
		content = content[nl+1:]
	} else {
		content = strings.TrimPrefix(content, "json")
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
