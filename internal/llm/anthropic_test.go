package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/common"
)

func errorIsRateLimit(err error) bool {
	return errors.Is(err, common.ErrRateLimit)
}

func TestAnthropicClient_CompleteJSON(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","content":[{"type":"text","text":"{\"transactions\":"},{"type":"text","text":"[]}"}],"stop_reason":"end_turn"}`))
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	content, err := client.CompleteJSON(context.Background(), "classify these", "[]", ResponseSchema{Categories: []string{"Groceries"}})
	require.NoError(t, err)
	assert.Equal(t, `{"transactions":[]}`, content)

	system, ok := captured["system"].(string)
	require.True(t, ok)
	assert.Contains(t, system, "classify these")
	assert.Contains(t, system, `"Groceries"`)
	assert.InDelta(t, 8192, captured["max_tokens"], 0)
}

func TestAnthropicClient_ServerErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.CompleteJSON(context.Background(), "s", "u", ResponseSchema{})
	assert.True(t, common.IsRetryable(err))
}

func TestAnthropicClient_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.CompleteJSON(context.Background(), "s", "u", ResponseSchema{})
	assert.ErrorIs(t, err, ErrInvalidResponse)
}
