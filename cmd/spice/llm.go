package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/config"
	"github.com/Veraticus/spice-ledger/internal/engine"
	"github.com/Veraticus/spice-ledger/internal/llm"
	"github.com/Veraticus/spice-ledger/internal/storage"
)

// apiKeyEnv lists the conventional environment variables checked when
// llm.api_key is not set.
var apiKeyEnv = map[string][]string{
	"openai":    {"OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
	"gemini":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"google":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

// createLLMClient creates an LLM classifier based on configuration.
func createLLMClient(ctx context.Context) (*llm.Classifier, error) {
	provider := strings.ToLower(viper.GetString("llm.provider"))
	if provider == "" {
		provider = "openai"
	}

	cfg := llm.Config{
		Provider:    provider,
		APIKey:      viper.GetString("llm.api_key"),
		Model:       viper.GetString("llm.model"),
		BaseURL:     viper.GetString("llm.base_url"),
		Temperature: viper.GetFloat64("llm.temperature"),
		MaxTokens:   viper.GetInt("llm.max_tokens"),
		MaxRetries:  viper.GetInt("llm.max_retries"),
		RetryDelay:  viper.GetDuration("llm.retry_delay"),
		RateLimit:   viper.GetInt("llm.rate_limit"),
		CacheTTL:    viper.GetDuration("llm.cache_ttl"),
		Timeout:     viper.GetDuration("llm.timeout"),
	}

	if cfg.APIKey == "" {
		for _, name := range apiKeyEnv[provider] {
			if key := os.Getenv(name); key != "" {
				cfg.APIKey = key
				break
			}
		}
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: %s API key not found, set llm.api_key or %s",
			common.ErrMissingConfig, provider, strings.Join(apiKeyEnv[provider], " / "))
	}

	classifier, err := llm.NewClassifier(ctx, cfg, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM classifier: %w", err)
	}
	return classifier, nil
}

// newOrchestrator wires storage and the configured classifier into a
// classification drain. The returned close function releases the classifier.
func newOrchestrator(ctx context.Context, store *storage.SQLiteStorage, progress engine.Progress) (*engine.Orchestrator, func(), error) {
	classifier, err := createLLMClient(ctx)
	if err != nil {
		return nil, nil, err
	}

	settings := config.LoadClassificationSettings()
	orchestrator := engine.NewOrchestrator(store, classifier, engine.Options{
		Progress:     progress,
		BatchSize:    settings.BatchSize,
		BatchTimeout: settings.BatchTimeout,
	})
	return orchestrator, func() { _ = classifier.Close() }, nil
}
