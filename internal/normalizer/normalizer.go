// Package normalizer converts raw tabular rows into typed transactions.
//
// Input rows are plain string cells as produced by the file-parsing layer.
// The normalizer resolves each mapped column, parses locale-ambiguous dates
// and amounts, and silently drops rows that cannot yield a valid
// transaction. Dropped rows are reflected only in a smaller output count;
// they are not errors.
//
// Date parsing policy: for the D/M/Y-shaped pattern (e.g. "01/02/2024") the
// day-first interpretation is fixed. This is a documented policy choice for
// the Latin American ledgers this service targets, not a derived fact.
package normalizer

import (
	"regexp"
	"strings"
	"time"

	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// headerRowOffset converts a zero-based data row index into the 1-based
// position in the source file, accounting for the header row.
const headerRowOffset = 2

var (
	isoPrefixPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	ymdPattern       = regexp.MustCompile(`^(\d{4})[/\-.](\d{1,2})[/\-.](\d{1,2})$`)
	dmyPattern       = regexp.MustCompile(`^(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{2,4})$`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
	amountJunk       = regexp.MustCompile(`[^0-9.,\-]`)
)

// fallbackDateLayouts are tried, in order, for inputs that match none of the
// structured patterns. A fallback parse is accepted only when the resulting
// year is greater than 1900.
var fallbackDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02 Jan 2006",
}

// Normalizer turns raw rows plus a column mapping into transactions
type Normalizer struct {
	logger logger.Logger
}

// New creates a Normalizer
func New() *Normalizer {
	return &Normalizer{
		logger: logger.GetGlobalLogger().WithComponent("normalizer"),
	}
}

// NormalizeDate parses a raw date cell into a day-precision UTC time.
// Rules are tried in order, first match wins:
//
//  1. ISO-prefixed values are truncated to the date part.
//  2. Y-M-D with "/", "-" or "." separators, month/day zero-padded.
//  3. D-M-Y with 2- or 4-digit year; a 2-digit year maps to 19xx when
//     greater than 50, else 20xx.
//  4. Fallback layouts, accepted only when the year is greater than 1900.
//
// The second return value is false when no rule matches.
func NormalizeDate(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}

	if isoPrefixPattern.MatchString(trimmed) {
		datePart := trimmed[:len(models.DateLayout)]
		return parseCanonical(datePart)
	}

	if m := ymdPattern.FindStringSubmatch(trimmed); m != nil {
		return parseCanonical(m[1] + "-" + pad2(m[2]) + "-" + pad2(m[3]))
	}

	if m := dmyPattern.FindStringSubmatch(trimmed); m != nil {
		year := m[3]
		if len(year) == 2 {
			if year > "50" {
				year = "19" + year
			} else {
				year = "20" + year
			}
		}
		return parseCanonical(year + "-" + pad2(m[2]) + "-" + pad2(m[1]))
	}

	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			if t.Year() <= 1900 {
				return time.Time{}, false
			}
			y, mo, d := t.Date()
			return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC), true
		}
	}

	return time.Time{}, false
}

func parseCanonical(value string) (time.Time, bool) {
	t, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// NormalizeAmount parses a raw amount cell into a decimal value.
//
// Everything except digits, ".", "," and "-" is stripped. Whichever of
// "," and "." occurs last is the decimal separator; the other, if present,
// is a thousands separator and is removed. A comma-only value is read as
// decimal when the final comma is followed by at most two digits, otherwise
// every comma is a thousands separator.
//
// An empty cell yields zero with ok=true; a non-empty cell that cannot be
// parsed yields zero with ok=false.
func NormalizeAmount(value string) (decimal.Decimal, bool) {
	if strings.TrimSpace(value) == "" {
		return decimal.Zero, true
	}

	cleaned := amountJunk.ReplaceAllString(value, "")

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")

	switch {
	case lastDot == -1 && lastComma != -1:
		// Commas only: decimal when a single comma is followed by <=2 digits
		if len(cleaned)-lastComma-1 <= 2 && strings.Count(cleaned, ",") == 1 {
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma > lastDot:
		// 1.234,56: comma is the decimal separator
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	case lastDot > lastComma:
		// 1,234.56: dot is the decimal separator
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// CellValue resolves a column reference against a row. Numeric references
// index the row directly; name references match headers case-insensitively
// after trimming, falling back to a numeric reinterpretation of the name.
// Anything unresolvable yields an empty cell.
func CellValue(row, headers []string, ref models.ColumnRef) string {
	if !ref.IsSet() {
		return ""
	}

	if idx := ref.Index(); idx >= 0 {
		return cellAt(row, idx)
	}

	want := strings.ToLower(strings.TrimSpace(string(ref)))
	for i, header := range headers {
		if strings.ToLower(strings.TrimSpace(header)) == want {
			return cellAt(row, i)
		}
	}

	return ""
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// NormalizeTransactions converts raw rows into transactions using the given
// column mapping. Rows with an unparseable date, or with a present but
// unparseable amount column, are skipped.
func (n *Normalizer) NormalizeTransactions(rows [][]string, headers []string, mapping models.ColumnMapping) []*models.Transaction {
	transactions := make([]*models.Transaction, 0, len(rows))
	dropped := 0

	for i, row := range rows {
		tx, ok := n.normalizeRow(row, headers, mapping, i)
		if !ok {
			dropped++
			continue
		}
		transactions = append(transactions, tx)
	}

	if dropped > 0 {
		n.logger.WithFields(logger.Fields{
			"rows":    len(rows),
			"dropped": dropped,
		}).Debug("Skipped rows that did not normalize")
	}

	return transactions
}

func (n *Normalizer) normalizeRow(row, headers []string, mapping models.ColumnMapping, rowIndex int) (*models.Transaction, bool) {
	date, ok := NormalizeDate(CellValue(row, headers, mapping.Date))
	if !ok {
		return nil, false
	}

	rawDescription := CellValue(row, headers, mapping.Description)
	reference := strings.TrimSpace(CellValue(row, headers, mapping.Reference))

	var amount decimal.Decimal
	var rawAmount string

	if mapping.Amount.IsSet() {
		rawAmount = CellValue(row, headers, mapping.Amount)
		amount, ok = NormalizeAmount(rawAmount)
		if !ok {
			return nil, false
		}
	} else {
		rawDebit := CellValue(row, headers, mapping.Debit)
		rawCredit := CellValue(row, headers, mapping.Credit)

		debit, _ := NormalizeAmount(rawDebit)
		credit, _ := NormalizeAmount(rawCredit)

		amount = credit.Sub(debit)
		rawAmount = "D:" + rawDebit + " C:" + rawCredit
	}

	return &models.Transaction{
		ID:             uuid.NewString(),
		Date:           date,
		Description:    collapseWhitespace(rawDescription),
		Reference:      reference,
		Amount:         amount,
		RawAmount:      rawAmount,
		RawDescription: rawDescription,
		SourceRow:      rowIndex + headerRowOffset,
	}, true
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
