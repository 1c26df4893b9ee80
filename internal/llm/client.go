package llm

import (
	"context"
)

// Client sends one prompt to a provider and returns the raw JSON text it produced.
type Client interface {
	CompleteJSON(ctx context.Context, system, user string, schema ResponseSchema) (string, error)
}

// ResponseSchema describes the document a classification call must return:
// an object with a "transactions" array of {id, merchant, category} rows.
type ResponseSchema struct {
	Name       string
	Categories []string
}

// jsonSchema renders the schema as JSON Schema for providers that accept it.
func (s ResponseSchema) jsonSchema() map[string]any {
	category := map[string]any{"type": "string"}
	if len(s.Categories) > 0 {
		category["enum"] = s.Categories
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"transactions"},
		"properties": map[string]any{
			"transactions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"id", "merchant", "category"},
					"properties": map[string]any{
						"id":       map[string]any{"type": "integer"},
						"merchant": map[string]any{"type": "string"},
						"category": category,
					},
				},
			},
		},
	}
}

func (s ResponseSchema) name() string {
	if s.Name == "" {
		return "classified_transactions"
	}
	return s.Name
}
