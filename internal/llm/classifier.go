package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// Classifier implements the engine.Classifier interface using LLM APIs.
type Classifier struct {
	client      Client
	cache       *responseCache
	logger      *slog.Logger
	rateLimiter *rateLimiter
	retryOpts   service.RetryOptions
}

// Config holds configuration for the LLM classifier.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	MaxRetries  int
	RetryDelay  time.Duration
	RateLimit   int
	CacheTTL    time.Duration
	Timeout     time.Duration
}

func (c Config) temperature() float64 {
	if c.Temperature == 0 {
		return 0.1
	}
	return c.Temperature
}

func (c Config) maxTokens() int {
	if c.MaxTokens == 0 {
		return 8192
	}
	return c.MaxTokens
}

// NewClassifier creates a new LLM-based classifier.
func NewClassifier(ctx context.Context, cfg Config, logger *slog.Logger) (*Classifier, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return newClassifierWithClient(client, cfg, logger), nil
}

func newClassifierWithClient(client Client, cfg Config, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Classifier{
		client:      client,
		cache:       newResponseCache(cfg.CacheTTL),
		logger:      logger,
		retryOpts:   retryOpts,
		rateLimiter: newRateLimiter(cfg.RateLimit),
	}
}

// ClassifyBatch asks the provider for a merchant and category for every row.
// The reply is validated as a whole; one bad row fails the batch.
func (c *Classifier) ClassifyBatch(ctx context.Context, req model.BatchRequest) ([]model.ClassifiedRow, error) {
	if len(req.Rows) == 0 {
		return nil, common.ErrNoTransactions
	}

	system, user, err := buildPrompts(req)
	if err != nil {
		return nil, err
	}

	key := cacheKey(system, user)
	if rows, found := c.cache.get(key); found {
		c.logger.Debug("cache hit for batch", "rows", len(req.Rows))
		return rows, nil
	}

	schema := ResponseSchema{Categories: req.Labels}

	var rows []model.ClassifiedRow
	err = common.WithRetry(ctx, func() error {
		if waitErr := c.rateLimiter.wait(ctx); waitErr != nil {
			return &common.RetryableError{Err: waitErr}
		}

		content, callErr := c.client.CompleteJSON(ctx, system, user, schema)
		if errors.Is(callErr, ErrInvalidResponse) {
			return &common.RetryableError{Err: callErr}
		}
		if callErr != nil {
			return callErr
		}

		parsed, parseErr := parseClassifiedRows(content)
		if parseErr != nil {
			return &common.RetryableError{Err: parseErr}
		}
		rows = parsed
		return nil
	}, c.retryOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrClassificationFailed, err)
	}

	c.cache.set(key, rows)

	c.logger.Info("batch classified",
		"rows", len(req.Rows),
		"answers", len(rows))

	return rows, nil
}

// Close releases background resources.
func (c *Classifier) Close() error {
	c.cache.Close()
	return nil
}
