// Package config builds component configurations from CLI inputs.
package config

import (
	"fmt"
	"strings"

	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/internal/parsers"
	"ledger-reconciliation-service/internal/reconciler"
	"ledger-reconciliation-service/internal/reporter"

	"github.com/shopspring/decimal"
)

// ParseMappingSpec parses a "field=column" list into a column mapping.
// Columns may be numeric indices or header names, e.g.
// "date=Fecha,description=2,debit=Debito,credit=Credito".
// An empty spec returns a zero mapping, which signals auto-detection.
func ParseMappingSpec(spec string) (models.ColumnMapping, error) {
	var mapping models.ColumnMapping

	spec = strings.TrimSpace(spec)
	if spec == "" {
		return mapping, nil
	}

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		field, column, found := strings.Cut(part, "=")
		if !found {
			return mapping, fmt.Errorf("invalid mapping entry %q, expected field=column", part)
		}

		column = strings.TrimSpace(column)
		switch strings.ToLower(strings.TrimSpace(field)) {
		case "date":
			mapping.Date = models.ColumnRef(column)
		case "description":
			mapping.Description = models.ColumnRef(column)
		case "reference":
			mapping.Reference = models.ColumnRef(column)
		case "amount":
			mapping.Amount = models.ColumnRef(column)
		case "debit":
			mapping.Debit = models.ColumnRef(column)
		case "credit":
			mapping.Credit = models.ColumnRef(column)
		default:
			return mapping, fmt.Errorf("unknown mapping field %q", field)
		}
	}

	return mapping, nil
}

// CreateParserConfig creates a CSV parser configuration for the given
// delimiter
func CreateParserConfig(delimiter string) (*parsers.Config, error) {
	config := parsers.DefaultConfig()

	if delimiter != "" {
		runes := []rune(delimiter)
		if len(runes) != 1 {
			return nil, fmt.Errorf("delimiter must be a single character, got %q", delimiter)
		}
		config.Delimiter = runes[0]
	}

	return config, nil
}

// CreateRunConfig creates a reconciliation run configuration from CLI values
func CreateRunConfig(reconciliationType string, dateTolerance int, amountTolerance float64, minSimilarity float64) (*reconciler.RunConfig, error) {
	rtype := models.ReconciliationType(strings.ToLower(strings.TrimSpace(reconciliationType)))
	if !rtype.IsValid() {
		return nil, fmt.Errorf("invalid reconciliation type %q, expected bank or accounts", reconciliationType)
	}

	config := reconciler.DefaultRunConfig()
	config.Type = rtype
	config.DateToleranceDays = dateTolerance
	config.AmountTolerance = decimal.NewFromFloat(amountTolerance)
	config.MinSimilarity = minSimilarity

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// CreateReportConfig creates a report configuration for the specified output
// format
func CreateReportConfig(format string) (*reporter.ReportConfig, error) {
	config := reporter.DefaultReportConfig()

	switch format {
	case "console":
		config.Format = reporter.FormatConsole
	case "json":
		config.Format = reporter.FormatJSON
		// The JSON export is the full result; listing limits do not apply.
		config.IncludeMatched = true
		config.IncludeUnmatched = true
	case "csv":
		config.Format = reporter.FormatCSV
		config.IncludeMatched = true
		config.IncludeUnmatched = true
	default:
		return nil, fmt.Errorf("invalid output format %q, expected console, json or csv", format)
	}

	return config, nil
}
