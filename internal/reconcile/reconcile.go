// Package reconcile compares a freshly uploaded statement with the stored
// transaction history.
//
// Rows older than the pending cutoff are settled: they either duplicate a
// stored row exactly or are new. Rows inside the pending window are paired
// with stored rows that may since have been revised by the bank, using
// progressively looser matching tiers.
package reconcile

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/similarity"
)

const day = 24 * time.Hour

// AmountTolerance is the largest absolute amount difference the loosest
// matching tier accepts.
var AmountTolerance = decimal.NewFromInt(1)

// Reconcile classifies candidates against history. History is expected newest
// first but only its latest date is relied on. Candidates are assigned TempIDs
// in upload order; the returned New slice preserves that order.
func Reconcile(history []model.StoredTransaction, candidates []model.CandidateTransaction, pendingDaysBuffer int) model.ReconcileResult {
	r := newRun(candidates)

	if len(history) == 0 {
		return model.ReconcileResult{New: r.candidates}
	}

	buffer := time.Duration(pendingDaysBuffer) * day
	cutoff := latest(history).Add(-buffer)

	var result model.ReconcileResult
	result.Cutoff = cutoff

	isNew := make([]bool, len(r.candidates))

	// Settled rows: consume exact duplicates from a multiset of every stored key.
	remaining := make(map[string]int, len(history))
	for _, stored := range history {
		remaining[stored.Key()]++
	}
	var pending []model.CandidateTransaction
	for _, c := range r.candidates {
		if !c.Date.Before(cutoff) {
			pending = append(pending, c)
			continue
		}
		key := c.Key()
		if remaining[key] > 0 {
			remaining[key]--
			result.Duplicates++
			continue
		}
		isNew[c.TempID] = true
	}

	// Pending window: pair each recent stored row with at most one candidate.
	for _, stored := range history {
		if stored.Date.Before(cutoff) {
			continue
		}
		windowEnd := stored.Date.Add(buffer)
		eligible := r.eligible(pending, windowEnd)

		match, tier, ok := findMatch(stored, eligible)
		if !ok {
			result.Unmatched = append(result.Unmatched, model.UnmatchedTransaction{TargetID: stored.ID})
			continue
		}
		r.found[match.TempID] = true
		result.Changed = append(result.Changed, model.ChangedTransaction{
			Candidate: match,
			TargetID:  stored.ID,
			Tier:      tier,
		})
	}

	for _, c := range pending {
		if !r.found[c.TempID] {
			isNew[c.TempID] = true
		}
	}

	for _, c := range r.candidates {
		if isNew[c.TempID] {
			result.New = append(result.New, c)
		}
	}

	return result
}

// run holds the state of one reconciliation; nothing survives between calls.
type run struct {
	found      map[int]bool
	candidates []model.CandidateTransaction
}

func newRun(candidates []model.CandidateTransaction) *run {
	numbered := make([]model.CandidateTransaction, len(candidates))
	for i, c := range candidates {
		c.TempID = i
		numbered[i] = c
	}
	return &run{
		candidates: numbered,
		found:      make(map[int]bool),
	}
}

// eligible returns unmatched pending candidates dated strictly before windowEnd.
func (r *run) eligible(pending []model.CandidateTransaction, windowEnd time.Time) []model.CandidateTransaction {
	var out []model.CandidateTransaction
	for _, c := range pending {
		if c.Date.Before(windowEnd) && !r.found[c.TempID] {
			out = append(out, c)
		}
	}
	return out
}

// findMatch applies the tiers in order; within a tier the first candidate in
// upload order wins.
func findMatch(stored model.StoredTransaction, eligible []model.CandidateTransaction) (model.CandidateTransaction, model.MatchTier, bool) {
	for _, c := range eligible {
		if c.Description == stored.Description && c.Amount.Equal(stored.Amount) && c.Date.Equal(stored.Date) {
			return c, model.MatchExact, true
		}
	}

	similar := func(c model.CandidateTransaction) bool {
		return similarity.Similar(c.Description, stored.Description)
	}

	for _, c := range eligible {
		if c.Amount.Equal(stored.Amount) && similar(c) {
			return c, model.MatchFuzzyDescription, true
		}
	}

	for _, c := range eligible {
		if c.Amount.Sub(stored.Amount).Abs().LessThanOrEqual(AmountTolerance) && similar(c) {
			return c, model.MatchFuzzyAmount, true
		}
	}

	return model.CandidateTransaction{}, "", false
}

func latest(history []model.StoredTransaction) time.Time {
	newest := history[0].Date
	for _, h := range history[1:] {
		if h.Date.After(newest) {
			newest = h.Date
		}
	}
	return newest
}
