package matcher

import (
	"ledger-reconciliation-service/internal/compare"
	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// Engine runs the pass cascade over two transaction lists. An Engine holds
// no per-run state and is safe to reuse across independent runs.
type Engine struct {
	config *Config
	logger logger.Logger
}

// Outcome is the result of one matching run: the pairs placed by the passes
// plus the transactions neither side could claim, in original input order.
type Outcome struct {
	Matched    []*models.MatchedPair
	UnmatchedA []*models.Transaction
	UnmatchedB []*models.Transaction
}

// NewEngine creates a matching engine with the given configuration
func NewEngine(config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}

	return &Engine{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("matcher"),
	}
}

// Config returns a copy of the engine configuration
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// Match pairs transactions across the two sides. Pools are arenas indexed by
// input position with claimed flags; a transaction claimed by one pass is
// invisible to every later pass, and iteration always follows input order,
// which keeps the run deterministic.
func (e *Engine) Match(sourceA, sourceB []*models.Transaction) *Outcome {
	claimedA := make([]bool, len(sourceA))
	claimedB := make([]bool, len(sourceB))
	matched := make([]*models.MatchedPair, 0)

	for _, p := range e.config.passes() {
		placed := 0

		for ai, txA := range sourceA {
			if claimedA[ai] {
				continue
			}

			best := -1
			bestScore := 0.0

			for bi, txB := range sourceB {
				if claimedB[bi] {
					continue
				}
				if !e.eligible(p, txA, txB) {
					continue
				}

				// Ties keep the first-encountered candidate.
				if score := tiebreakScore(txA, txB); best == -1 || score > bestScore {
					best = bi
					bestScore = score
				}
			}

			if best == -1 {
				continue
			}

			txB := sourceB[best]
			claimedA[ai] = true
			claimedB[best] = true
			placed++

			matched = append(matched, &models.MatchedPair{
				SourceATransaction:   txA,
				SourceBTransaction:   txB,
				Confidence:           p.confidence,
				MatchMethod:          p.method,
				AmountDifference:     compare.AmountDifference(txA.Amount, e.effectiveAmount(txB)),
				DateDifferenceInDays: compare.DateDifferenceInDays(txA.Date, txB.Date),
			})
		}

		if placed > 0 {
			e.logger.WithFields(logger.Fields{
				"method":  p.method,
				"matched": placed,
			}).Debug("Matching pass placed pairs")
		}
	}

	outcome := &Outcome{
		Matched:    matched,
		UnmatchedA: leftovers(sourceA, claimedA),
		UnmatchedB: leftovers(sourceB, claimedB),
	}

	e.logger.WithFields(logger.Fields{
		"matched":     len(outcome.Matched),
		"unmatched_a": len(outcome.UnmatchedA),
		"unmatched_b": len(outcome.UnmatchedB),
	}).Debug("Matching completed")

	return outcome
}

// effectiveAmount returns the source-B amount as seen by every amount
// comparison. Bank mode flips the sign because the statement and the book
// record the same event from opposite accounting perspectives.
func (e *Engine) effectiveAmount(txB *models.Transaction) decimal.Decimal {
	if e.config.Type == models.ReconciliationTypeBank {
		return txB.Amount.Neg()
	}
	return txB.Amount
}

// eligible applies the pass predicate to one candidate pairing
func (e *Engine) eligible(p pass, txA, txB *models.Transaction) bool {
	amountB := e.effectiveAmount(txB)

	if p.exactAmount {
		if !compare.AmountsEqual(txA.Amount, amountB) {
			return false
		}
	} else if !compare.AmountsWithinTolerance(txA.Amount, amountB, e.config.AmountTolerance) {
		return false
	}

	if p.sameDay {
		if !compare.SameDay(txA.Date, txB.Date) {
			return false
		}
	} else if !compare.DatesWithinTolerance(txA.Date, txB.Date, p.dateToleranceDays) {
		return false
	}

	if p.referenceRequired && !compare.ReferencesMatch(txA.Reference, txB.Reference) {
		return false
	}

	if p.minSimilarity > 0 && compare.Similarity(txA.Description, txB.Description) < p.minSimilarity {
		return false
	}

	return true
}

// tiebreakScore ranks the eligible candidates for one source-A transaction.
// References dominate: a matching reference contributes both the base weight
// and a bonus, then identical dates, then description similarity.
func tiebreakScore(txA, txB *models.Transaction) float64 {
	score := 1.0
	refs := compare.ReferencesMatch(txA.Reference, txB.Reference)

	if refs {
		score = 3
	}

	if compare.SameDay(txA.Date, txB.Date) {
		score += 2
	} else {
		score++
	}

	if refs {
		score += 2
	}

	return score + compare.Similarity(txA.Description, txB.Description)
}

func leftovers(pool []*models.Transaction, claimed []bool) []*models.Transaction {
	out := make([]*models.Transaction, 0)
	for i, tx := range pool {
		if !claimed[i] {
			out = append(out, tx)
		}
	}
	return out
}
