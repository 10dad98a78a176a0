// Package compare provides the pure predicates and scorers used by the
// matching engine: amount tolerance checks, date distance, reference
// equality, and normalized edit-distance similarity for descriptions.
package compare

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AmountsEqual compares two amounts exactly
func AmountsEqual(a, b decimal.Decimal) bool {
	return a.Equal(b)
}

// AmountsWithinTolerance reports whether |a-b| <= tolerance
func AmountsWithinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}

// AmountDifference returns the absolute difference between two amounts
func AmountDifference(a, b decimal.Decimal) decimal.Decimal {
	return a.Sub(b).Abs()
}

// SameDay reports whether two dates fall on the same calendar day
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DateDifferenceInDays returns the absolute day distance between two dates.
// Inputs carry day precision, so the distance is exact.
func DateDifferenceInDays(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)

	diff := au.Sub(bu)
	if diff < 0 {
		diff = -diff
	}
	return int(diff / (24 * time.Hour))
}

// DatesWithinTolerance reports whether two dates are at most toleranceDays apart
func DatesWithinTolerance(a, b time.Time, toleranceDays int) bool {
	return DateDifferenceInDays(a, b) <= toleranceDays
}

// ReferencesMatch compares two references ignoring case and whitespace.
// Two empty references never match; an absent reference carries no signal.
func ReferencesMatch(a, b string) bool {
	ca := normalizeReference(a)
	cb := normalizeReference(b)
	return ca != "" && cb != "" && ca == cb
}

func normalizeReference(ref string) string {
	return strings.ToLower(strings.Join(strings.Fields(ref), ""))
}

// Similarity returns the normalized Levenshtein similarity between two
// strings after lowercasing and trimming: 1 for equal strings, 0 when either
// side is empty, otherwise 1 - distance/max(len).
func Similarity(a, b string) float64 {
	s1 := strings.ToLower(strings.TrimSpace(a))
	s2 := strings.ToLower(strings.TrimSpace(b))

	if s1 == s2 {
		return 1
	}
	if len(s1) == 0 || len(s2) == 0 {
		return 0
	}

	r1 := []rune(s1)
	r2 := []rune(s2)

	maxLen := len(r1)
	if len(r2) > maxLen {
		maxLen = len(r2)
	}

	return 1 - float64(levenshtein(r1, r2))/float64(maxLen)
}

// levenshtein computes the edit distance between two rune slices using a
// two-row rolling matrix.
func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}

			curr[j] = min3(
				prev[j-1]+cost, // substitution
				curr[j-1]+1,    // insertion
				prev[j]+1,      // deletion
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
