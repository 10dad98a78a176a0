// Package matcher implements the multi-pass transaction matching engine.
//
// Matching runs an ordered sequence of passes over two transaction pools,
// each pass progressively relaxing its criteria:
//
//	pass 1: exact amount, same day, matching reference      -> exact (1.00)
//	pass 2: exact amount, same day                          -> amount_date (0.90)
//	pass 3: exact amount, date tolerance, matching reference-> amount_reference (0.85)
//	pass 4: exact amount, date tolerance                    -> amount_fuzzy (0.70)
//	pass 5: amount tolerance, widened date tolerance,
//	        description similarity >= 0.60                  -> fuzzy (0.50)
//
// Within a pass, each source-A transaction claims the eligible source-B
// candidate with the highest tie-break score; claimed transactions are never
// reconsidered by later passes. Pools are kept as arenas with claimed flags
// rather than shrinking slices, so pass iteration order stays stable.
//
// For bank reconciliation, source-B amounts are negated inside the amount
// predicate: a deposit on the statement nets against a debit in the book.
//
// Example usage:
//
//	engine := matcher.NewEngine(matcher.DefaultConfig())
//	outcome := engine.Match(statementTxs, bookTxs)
package matcher

import (
	"fmt"

	"ledger-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// Default tolerances applied when the caller does not override them.
const (
	DefaultDateToleranceDays = 3
	DefaultMinSimilarity     = 0.60
	// fuzzyDateSlackDays widens the date tolerance for the final pass.
	fuzzyDateSlackDays = 2
)

// DefaultAmountTolerance is the default absolute amount tolerance for the
// fuzzy pass, covering rounding differences of a cent.
var DefaultAmountTolerance = decimal.New(1, -2)

// Config holds the tunable parameters of the matching engine
type Config struct {
	// Type selects the sign convention; bank mode negates source-B amounts
	// before every amount comparison.
	Type models.ReconciliationType `json:"type"`

	// DateToleranceDays bounds the day distance for the date-tolerant passes
	DateToleranceDays int `json:"date_tolerance_days"`

	// AmountTolerance is the absolute amount tolerance for the fuzzy pass
	AmountTolerance decimal.Decimal `json:"amount_tolerance"`

	// MinSimilarity is the minimum description similarity for the fuzzy pass
	MinSimilarity float64 `json:"min_similarity"`
}

// DefaultConfig returns a configuration with the documented defaults
func DefaultConfig() *Config {
	return &Config{
		Type:              models.ReconciliationTypeBank,
		DateToleranceDays: DefaultDateToleranceDays,
		AmountTolerance:   DefaultAmountTolerance,
		MinSimilarity:     DefaultMinSimilarity,
	}
}

// Validate checks if the matching configuration is valid
func (c *Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid reconciliation type: %q", c.Type)
	}

	if c.DateToleranceDays < 0 {
		return fmt.Errorf("date tolerance days cannot be negative: %d", c.DateToleranceDays)
	}

	if c.AmountTolerance.IsNegative() {
		return fmt.Errorf("amount tolerance cannot be negative: %s", c.AmountTolerance)
	}

	if c.MinSimilarity < 0 || c.MinSimilarity > 1 {
		return fmt.Errorf("minimum similarity must be between 0.0 and 1.0: %f", c.MinSimilarity)
	}

	return nil
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// String returns a human-readable description of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Type: %s, DateTolerance: %d days, AmountTolerance: %s, MinSimilarity: %.2f}",
		c.Type, c.DateToleranceDays, c.AmountTolerance, c.MinSimilarity)
}

// pass describes one stage of the cascade: its predicate parameters plus the
// method name and confidence recorded on pairs it produces.
type pass struct {
	method            models.MatchMethod
	confidence        float64
	exactAmount       bool
	sameDay           bool
	dateToleranceDays int
	referenceRequired bool
	minSimilarity     float64
}

// passes builds the canonical 5-pass cascade for this configuration.
// Each pass loosens exactly one constraint from the previous one.
func (c *Config) passes() []pass {
	return []pass{
		{
			method:            models.MatchMethodExact,
			confidence:        1.00,
			exactAmount:       true,
			sameDay:           true,
			referenceRequired: true,
		},
		{
			method:      models.MatchMethodAmountDate,
			confidence:  0.90,
			exactAmount: true,
			sameDay:     true,
		},
		{
			method:            models.MatchMethodAmountReference,
			confidence:        0.85,
			exactAmount:       true,
			dateToleranceDays: c.DateToleranceDays,
			referenceRequired: true,
		},
		{
			method:            models.MatchMethodAmountFuzzy,
			confidence:        0.70,
			exactAmount:       true,
			dateToleranceDays: c.DateToleranceDays,
		},
		{
			method:            models.MatchMethodFuzzy,
			confidence:        0.50,
			dateToleranceDays: c.DateToleranceDays + fuzzyDateSlackDays,
			minSimilarity:     c.MinSimilarity,
		},
	}
}
