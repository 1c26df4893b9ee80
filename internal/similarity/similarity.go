// Package similarity scores how alike two bank transaction descriptions are.
//
// Descriptions are first normalized to drop the volatile fragments banks embed
// in them (reference numbers, card identifiers, posting dates) and then
// compared with the Jaro-Winkler metric.
package similarity

import (
	"regexp"
	"strings"
)

// MatchThreshold is the score a pair of descriptions must exceed to be
// considered the same transaction.
const MatchThreshold = 0.8

const (
	winklerBoostThreshold = 0.7
	winklerPrefixScale    = 0.1
	winklerMaxPrefix      = 4
)

var (
	longDigitRun    = regexp.MustCompile(`\b\d{6,}\b`)
	longIdentifier  = regexp.MustCompile(`\b[a-z]\d{6,}\b`)
	shortBankPrefix = regexp.MustCompile(`\b[a-z]\d{3,}\b`)
	dateFragment    = regexp.MustCompile(`\b\d{1,2}/\d{1,2}(/\d{2,4})?\b`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// Normalize lowercases text and strips reference numbers, identifiers,
// short bank prefixes such as "v7525" and day/month date fragments, then
// collapses whitespace.
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = longDigitRun.ReplaceAllString(text, "")
	text = longIdentifier.ReplaceAllString(text, "")
	text = shortBankPrefix.ReplaceAllString(text, "")
	text = dateFragment.ReplaceAllString(text, "")
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Similarity returns the Jaro-Winkler score of the normalized descriptions.
func Similarity(a, b string) float64 {
	return JaroWinkler(Normalize(a), Normalize(b))
}

// Similar reports whether two descriptions score above MatchThreshold.
func Similar(a, b string) bool {
	return Similarity(a, b) > MatchThreshold
}

// JaroWinkler returns the Jaro-Winkler similarity of a and b in [0, 1].
// Empty input scores 0 and identical input scores 1.
func JaroWinkler(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	s1, s2 := []rune(a), []rune(b)
	len1, len2 := len(s1), len(s2)

	// May be negative for very short strings, leaving an empty window.
	window := max(len1, len2)/2 - 1

	matched1 := make([]bool, len1)
	matched2 := make([]bool, len2)
	matches := 0

	for i := 0; i < len1; i++ {
		low := 0
		if i >= window {
			low = i - window
		}
		high := len2 - 1
		if i+window <= len2-1 {
			high = i + window
		}

		for j := low; j <= high; j++ {
			if !matched2[j] && s1[i] == s2[j] {
				matches++
				matched1[i] = true
				matched2[j] = true
				break
			}
		}
	}

	if matches == 0 {
		return 0
	}

	transpositions := 0
	k := 0
	for i := 0; i < len1; i++ {
		if !matched1[i] {
			continue
		}
		for k < len2 && !matched2[k] {
			k++
		}
		if k < len2 && s1[i] != s2[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	weight := (m/float64(len1) + m/float64(len2) + (m-float64(transpositions)/2)/m) / 3

	if weight > winklerBoostThreshold {
		prefix := 0
		for prefix < winklerMaxPrefix && prefix < len1 && prefix < len2 && s1[prefix] == s2[prefix] {
			prefix++
		}
		weight += float64(prefix) * winklerPrefixScale * (1 - weight)
	}

	return weight
}
