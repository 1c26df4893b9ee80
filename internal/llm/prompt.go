package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/model"
)

const systemPromptTemplate = `You categorise bank transactions for a personal finance ledger.

For every transaction in the user message return one entry with:
- "id": the transaction id, unchanged
- "merchant": the business the money went to or came from. Reuse a known merchant name when the transaction clearly belongs to it. Use "%[1]s" when no merchant can be identified.
- "category": exactly one label from the category list. Use "%[2]s" when nothing fits.

Known merchants:
%[3]s

Categories:
%[4]s

Respond with a single JSON object of the form {"transactions": [{"id": 1, "merchant": "...", "category": "..."}]}. Do not add commentary.`

// buildPrompts renders the system instruction and the user message for a batch.
func buildPrompts(req model.BatchRequest) (string, string, error) {
	system := fmt.Sprintf(systemPromptTemplate,
		model.UnknownMerchant,
		model.UncategorisedLabel,
		bulletList(req.KnownMerchants, "(none yet)"),
		bulletList(req.Labels, "- "+model.UncategorisedLabel),
	)

	user, err := json.Marshal(req.Rows)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode batch: %w", err)
	}

	return system, string(user), nil
}

func bulletList(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(item)
	}
	return b.String()
}

// schemaInstructions describes the response schema in prose for providers
// without native structured output.
func schemaInstructions(schema ResponseSchema) string {
	encoded, err := json.Marshal(schema.jsonSchema())
	if err != nil {
		return ""
	}
	return "The response must validate against this JSON schema:\n" + string(encoded)
}
