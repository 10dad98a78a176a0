package reconciler

import (
	"ledger-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// buildSummary aggregates one run into counts, absolute amount totals, and
// the reconciliation rate. The rate divides matched pairs by the larger
// source size, clamped to at least one so empty runs stay finite. The
// discrepancy count is the number of matched pairs whose amounts did not
// line up exactly.
func buildSummary(totalA, totalB int, matched []*models.MatchedPair, sourceAOnly, sourceBOnly, bankCharges []*models.Transaction) models.ReconciliationSummary {
	matchedAmount := decimal.Zero
	discrepancies := 0
	for _, pair := range matched {
		matchedAmount = matchedAmount.Add(pair.SourceATransaction.AbsoluteAmount())
		if pair.AmountDifference.IsPositive() {
			discrepancies++
		}
	}

	return models.ReconciliationSummary{
		TotalSourceATransactions: totalA,
		TotalSourceBTransactions: totalB,
		MatchedCount:             len(matched),
		SourceAOnlyCount:         len(sourceAOnly),
		SourceBOnlyCount:         len(sourceBOnly),
		MatchedAmount:            matchedAmount,
		SourceAOnlyAmount:        sumAbsolute(sourceAOnly),
		SourceBOnlyAmount:        sumAbsolute(sourceBOnly),
		BankChargesCount:         len(bankCharges),
		BankChargesAmount:        sumAbsolute(bankCharges),
		ReconciliationRate:       rate(len(matched), totalA, totalB),
		DiscrepancyCount:         discrepancies,
	}
}

func sumAbsolute(transactions []*models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range transactions {
		total = total.Add(tx.AbsoluteAmount())
	}
	return total
}

func rate(matched, totalA, totalB int) float64 {
	denom := totalA
	if totalB > denom {
		denom = totalB
	}
	if denom < 1 {
		denom = 1
	}
	return float64(matched) / float64(denom)
}
