// Package storage provides the data persistence layer for the application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidUploadRun   = errors.New("invalid upload run")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateReconcileResult(result *model.ReconcileResult) error {
	if result == nil {
		return fmt.Errorf("%w: result", ErrNilParameter)
	}
	for i, c := range result.New {
		if err := validateTransactionFields(c.Description, c.Date.IsZero()); err != nil {
			return fmt.Errorf("new transaction at index %d: %w", i, err)
		}
	}
	for i, c := range result.Changed {
		if err := validateTransactionFields(c.Candidate.Description, c.Candidate.Date.IsZero()); err != nil {
			return fmt.Errorf("changed transaction at index %d: %w", i, err)
		}
		if c.TargetID <= 0 {
			return fmt.Errorf("changed transaction at index %d: %w: missing target", i, ErrInvalidTransaction)
		}
	}
	for i, u := range result.Unmatched {
		if u.TargetID <= 0 {
			return fmt.Errorf("unmatched transaction at index %d: %w: missing target", i, ErrInvalidTransaction)
		}
	}
	return nil
}

func validateClassified(rows []model.ClassifiedTransaction) error {
	for i, row := range rows {
		if row.StagedID <= 0 {
			return fmt.Errorf("classified transaction at index %d: %w: missing staged id", i, ErrInvalidTransaction)
		}
		if err := validateTransactionFields(row.Description, row.Date.IsZero()); err != nil {
			return fmt.Errorf("classified transaction at index %d: %w", i, err)
		}
	}
	return nil
}

func validateTransactionFields(description string, zeroDate bool) error {
	if zeroDate {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("%w: missing description", ErrInvalidTransaction)
	}
	return nil
}

func validateUploadRun(run *model.UploadRun) error {
	if run == nil {
		return fmt.Errorf("%w: run", ErrNilParameter)
	}
	if run.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidUploadRun)
	}
	if run.StartedAt.IsZero() {
		return fmt.Errorf("%w: missing start time", ErrInvalidUploadRun)
	}
	return nil
}
