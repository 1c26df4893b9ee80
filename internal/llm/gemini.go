package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/Veraticus/spice-ledger/internal/common"
)

// geminiClient implements Client with the Google Gen AI SDK.
type geminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
}

func newGeminiClient(ctx context.Context, cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: newHTTPClient(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiClient{
		client:      client,
		model:       model,
		temperature: float32(cfg.temperature()),
		maxTokens:   int32(cfg.maxTokens()), //nolint:gosec
	}, nil
}

// CompleteJSON generates content with a JSON response schema.
func (c *geminiClient) CompleteJSON(ctx context.Context, system, user string, schema ResponseSchema) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(c.temperature),
		MaxOutputTokens:   c.maxTokens,
		ResponseMIMEType:  "application/json",
		ResponseSchema:    geminiSchema(schema),
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(user), config)
	if err != nil {
		return "", classifyGeminiError(err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: no content in response", ErrInvalidResponse)
	}
	return text, nil
}

func geminiSchema(schema ResponseSchema) *genai.Schema {
	category := &genai.Schema{Type: genai.TypeString}
	if len(schema.Categories) > 0 {
		category.Format = "enum"
		category.Enum = schema.Categories
	}

	return &genai.Schema{
		Type:     genai.TypeObject,
		Required: []string{"transactions"},
		Properties: map[string]*genai.Schema{
			"transactions": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type:             genai.TypeObject,
					Required:         []string{"id", "merchant", "category"},
					PropertyOrdering: []string{"id", "merchant", "category"},
					Properties: map[string]*genai.Schema{
						"id":       {Type: genai.TypeInteger},
						"merchant": {Type: genai.TypeString},
						"category": category,
					},
				},
			},
		},
	}
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		apiErr = *apiErrPtr
	}
	if apiErr.Code != 0 || errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return &common.RetryableError{Err: fmt.Errorf("gemini API: %w", common.ErrRateLimit), Retryable: true}
		case apiErr.Code >= http.StatusInternalServerError:
			return &common.RetryableError{Err: fmt.Errorf("gemini API error (status %d): %s", apiErr.Code, apiErr.Message), Retryable: true}
		default:
			return &common.RetryableError{Err: fmt.Errorf("gemini API error (status %d): %s", apiErr.Code, apiErr.Message)}
		}
	}
	return fmt.Errorf("gemini request failed: %w", err)
}
