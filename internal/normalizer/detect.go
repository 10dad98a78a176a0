package normalizer

import (
	"strconv"
	"strings"

	"ledger-reconciliation-service/internal/models"
)

// Keyword tables for column auto-detection. Keywords are matched as
// lowercase substrings of the header text. The sets are bilingual (Spanish
// and English) because the target ledgers mix both.
var (
	dateKeywords        = []string{"fecha", "date", "fec", "dia"}
	descriptionKeywords = []string{"descripcion", "descripción", "concepto", "detalle", "description", "desc"}
	referenceKeywords   = []string{"referencia", "ref", "reference", "num", "número", "numero", "documento", "doc"}
	debitKeywords       = []string{"debito", "débito", "debit", "cargo", "egreso", "salida"}
	creditKeywords      = []string{"credito", "crédito", "credit", "abono", "ingreso", "entrada", "haber"}
	amountKeywords      = []string{"monto", "amount", "valor", "importe", "total"}
)

// AutoDetectColumns guesses a column mapping from header text alone.
// Debit and credit keywords are tested before the generic amount keywords,
// and a single amount column is only inferred when neither debit nor credit
// was found; otherwise a header like "Valor Debito" would be misread as a
// generic amount column.
//
// The returned mapping may be partial; callers validate it before use.
func AutoDetectColumns(headers []string) models.ColumnMapping {
	lowered := make([]string, len(headers))
	for i, h := range headers {
		lowered[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var mapping models.ColumnMapping

	if idx := findByKeywords(lowered, dateKeywords); idx != -1 {
		mapping.Date = indexRef(idx)
	}
	if idx := findByKeywords(lowered, descriptionKeywords); idx != -1 {
		mapping.Description = indexRef(idx)
	}
	if idx := findByKeywords(lowered, referenceKeywords); idx != -1 {
		mapping.Reference = indexRef(idx)
	}

	debitIdx := findByKeywords(lowered, debitKeywords)
	if debitIdx != -1 {
		mapping.Debit = indexRef(debitIdx)
	}

	creditIdx := findByKeywords(lowered, creditKeywords)
	if creditIdx != -1 {
		mapping.Credit = indexRef(creditIdx)
	}

	if debitIdx == -1 && creditIdx == -1 {
		if idx := findByKeywords(lowered, amountKeywords); idx != -1 {
			mapping.Amount = indexRef(idx)
		}
	}

	return mapping
}

func findByKeywords(lowered []string, keywords []string) int {
	for i, header := range lowered {
		for _, kw := range keywords {
			if strings.Contains(header, kw) {
				return i
			}
		}
	}
	return -1
}

func indexRef(idx int) models.ColumnRef {
	return models.ColumnRef(strconv.Itoa(idx))
}
