package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MatchTier records which reconciliation rule paired a candidate with a stored transaction.
type MatchTier string

// Match tiers in precedence order.
const (
	MatchExact            MatchTier = "exact"
	MatchFuzzyDescription MatchTier = "fuzzy_description"
	MatchFuzzyAmount      MatchTier = "fuzzy_amount"
)

// ChangedTransaction is a candidate believed to be a revised version of a stored transaction.
type ChangedTransaction struct {
	Tier      MatchTier
	Candidate CandidateTransaction
	TargetID  int64
}

// UnmatchedTransaction is a stored transaction inside the pending window that
// the latest upload no longer contains.
type UnmatchedTransaction struct {
	TargetID int64
}

// ReconcileResult is the outcome of comparing one upload with the stored history.
type ReconcileResult struct {
	Cutoff     time.Time
	New        []CandidateTransaction
	Changed    []ChangedTransaction
	Unmatched  []UnmatchedTransaction
	Duplicates int
}

// StagedNew is a new transaction awaiting classification.
type StagedNew struct {
	Date        time.Time
	Amount      decimal.Decimal
	Description string
	ID          int64
}

// StagedEdit is a proposed edit of a stored transaction.
type StagedEdit struct {
	Date          time.Time
	Amount        decimal.Decimal
	Description   string
	Tier          MatchTier
	ID            int64
	TransactionID int64
}

// StagedUnmatched flags a stored transaction missing from the latest upload.
type StagedUnmatched struct {
	ID            int64
	TransactionID int64
}

// StagingCounts summarises the contents of the staging area.
type StagingCounts struct {
	New       int `json:"new"`
	Edits     int `json:"edits"`
	Unmatched int `json:"unmatched"`
}
