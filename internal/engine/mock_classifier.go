package engine

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Veraticus/spice-ledger/internal/model"
)

var errMockBatch = errors.New("mock classifier: batch failed")

// MockClassifier is a deterministic Classifier for tests. It matches
// descriptions against keyword rules and answers Unknown / Uncategorised for
// everything else.
type MockClassifier struct {
	// Err, when set, is returned for every call.
	Err error
	// FailBatches lists zero-based call indexes that fail with Err or a default error.
	FailBatches map[int]bool
	// Transform lets a test rewrite the answer before it is returned.
	Transform func(model.BatchRequest, []model.ClassifiedRow) []model.ClassifiedRow

	rules    []MockRule
	requests []model.BatchRequest
	mu       sync.Mutex
}

// MockRule maps a description keyword to a merchant and label.
type MockRule struct {
	Keyword  string
	Merchant string
	Label    string
}

// NewMockClassifier creates a mock with the given keyword rules.
func NewMockClassifier(rules ...MockRule) *MockClassifier {
	return &MockClassifier{rules: rules, FailBatches: make(map[int]bool)}
}

// ClassifyBatch implements Classifier.
func (m *MockClassifier) ClassifyBatch(ctx context.Context, req model.BatchRequest) ([]model.ClassifiedRow, error) {
	m.mu.Lock()
	call := len(m.requests)
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil && (len(m.FailBatches) == 0 || m.FailBatches[call]) {
		return nil, m.Err
	}
	if m.FailBatches[call] {
		return nil, errMockBatch
	}

	rows := make([]model.ClassifiedRow, 0, len(req.Rows))
	for _, row := range req.Rows {
		answer := model.ClassifiedRow{ID: row.ID, Merchant: model.UnknownMerchant, Category: model.UncategorisedLabel}
		lower := strings.ToLower(row.Description)
		for _, rule := range m.rules {
			if strings.Contains(lower, strings.ToLower(rule.Keyword)) {
				answer.Merchant = rule.Merchant
				answer.Category = rule.Label
				break
			}
		}
		rows = append(rows, answer)
	}

	if m.Transform != nil {
		rows = m.Transform(req, rows)
	}
	return rows, nil
}

// Requests returns a copy of every request received so far.
func (m *MockClassifier) Requests() []model.BatchRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.BatchRequest, len(m.requests))
	copy(out, m.requests)
	return out
}
