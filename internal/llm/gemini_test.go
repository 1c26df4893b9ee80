package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeminiSchema(t *testing.T) {
	schema := geminiSchema(ResponseSchema{Categories: []string{"Groceries", "Uncategorised"}})

	assert.Equal(t, genai.TypeObject, schema.Type)
	assert.Equal(t, []string{"transactions"}, schema.Required)

	items := schema.Properties["transactions"].Items
	require.NotNil(t, items)
	assert.Equal(t, []string{"id", "merchant", "category"}, items.Required)
	assert.Equal(t, genai.TypeInteger, items.Properties["id"].Type)
	assert.Equal(t, []string{"Groceries", "Uncategorised"}, items.Properties["category"].Enum)
}

func TestGeminiClient_CompleteJSON(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent"), r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"transactions\":[]}"}]}}]}`))
	}))
	defer server.Close()

	client, err := newGeminiClient(context.Background(), Config{APIKey: "k", BaseURL: server.URL, Model: "gemini-test"})
	require.NoError(t, err)

	content, err := client.CompleteJSON(context.Background(), "system", "[]", ResponseSchema{})
	require.NoError(t, err)
	assert.Equal(t, `{"transactions":[]}`, content)

	genConfig, ok := captured["generationConfig"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "application/json", genConfig["responseMimeType"])
	assert.Contains(t, captured, "systemInstruction")
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := newGeminiClient(context.Background(), Config{})
	assert.Error(t, err)
}
