// Package classifier tags unmatched statement transactions as bank charges.
//
// Classification applies only to bank reconciliation, only to the matcher's
// leftover source-A list, and strictly after matching: a matched transaction
// is never reclassified. Detection is a lowercase substring scan against a
// fixed keyword table so locale sets can be swapped without touching the
// control flow.
package classifier

import (
	"strings"

	"ledger-reconciliation-service/internal/models"
)

// bankChargeKeywords covers the commission, tax, and service-fee wordings
// Colombian banks print on statements (GMF is the 4x1000 financial
// transactions tax).
var bankChargeKeywords = []string{
	"gasto bancario", "gastos bancarios",
	"comision", "comisión",
	"gmf", "4x1000", "4 x 1000", "gravamen",
	"cuota de manejo", "cuota manejo",
	"cobro iva", "iva pagos automaticos", "iva pagos automáticos",
	"servicio pago a proveedores", "servicio pagos a proveedores",
	"servicio pagos a terceros", "servicio pago a terceros",
	"servicio por pagos a nequi", "servicio pagos a nequi",
	"cuota plan canal negocios", "iva cuota plan canal",
}

// IsBankCharge reports whether a transaction description names a bank charge
func IsBankCharge(tx *models.Transaction) bool {
	desc := strings.ToLower(tx.Description)
	for _, kw := range bankChargeKeywords {
		if strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}

// Classify splits the leftover source-A transactions into bank charges and
// true leftovers. For accounts reconciliation every transaction stays a
// leftover. The split is a pure filter, so running it again over its own
// output is a no-op.
func Classify(rtype models.ReconciliationType, leftoverA []*models.Transaction) (bankCharges, remaining []*models.Transaction) {
	bankCharges = make([]*models.Transaction, 0)
	remaining = make([]*models.Transaction, 0, len(leftoverA))

	if rtype != models.ReconciliationTypeBank {
		remaining = append(remaining, leftoverA...)
		return bankCharges, remaining
	}

	for _, tx := range leftoverA {
		if IsBankCharge(tx) {
			bankCharges = append(bankCharges, tx)
		} else {
			remaining = append(remaining, tx)
		}
	}

	return bankCharges, remaining
}
