// Package reporter renders reconciliation results for human and machine
// consumption.
//
// Supported output formats:
//   - Console: human-readable summary and leftover listings
//   - JSON: the full result, amounts as plain numbers, dates as YYYY-MM-DD
//   - CSV: one row per matched pair and per leftover transaction
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"ledger-reconciliation-service/internal/models"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// Labels names the two sources for a reconciliation type
type Labels struct {
	SourceA string
	SourceB string
	Title   string
}

// LabelsFor returns the display labels for a reconciliation type
func LabelsFor(rtype models.ReconciliationType) Labels {
	if rtype == models.ReconciliationTypeBank {
		return Labels{
			SourceA: "Bank Statement",
			SourceB: "Book Ledger",
			Title:   "Bank Reconciliation",
		}
	}
	return Labels{
		SourceA: "Account A",
		SourceB: "Account B",
		Title:   "Account Reconciliation",
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format            OutputFormat `json:"format"`
	IncludeMatched    bool         `json:"include_matched"`
	IncludeUnmatched  bool         `json:"include_unmatched"`
	MaxListedPerGroup int          `json:"max_listed_per_group"`
	CSVDelimiter      rune         `json:"csv_delimiter"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:            FormatConsole,
		IncludeMatched:    true,
		IncludeUnmatched:  true,
		MaxListedPerGroup: 10,
		CSVDelimiter:      ',',
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if c.MaxListedPerGroup < 1 {
		return fmt.Errorf("max listed per group must be at least 1, got %d", c.MaxListedPerGroup)
	}
	return nil
}

// ReportGenerator renders reconciliation results in the configured format
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a report generator with the given configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{config: config}, nil
}

// GenerateReport writes the result to the writer in the configured format
func (rg *ReportGenerator) GenerateReport(result *models.ReconciliationResult, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("reconciliation result cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(result, writer)
	case FormatJSON:
		return rg.generateJSONReport(result, writer)
	case FormatCSV:
		return rg.generateCSVReport(result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) generateConsoleReport(result *models.ReconciliationResult, writer io.Writer) error {
	labels := LabelsFor(result.ReconciliationType)
	summary := result.Summary

	fmt.Fprintf(writer, "%s\n", labels.Title)
	fmt.Fprintf(writer, "Generated: %s\n\n", result.CreatedAt.Format(time.RFC3339))

	fmt.Fprintf(writer, "=== SUMMARY ===\n")
	fmt.Fprintf(writer, "%s:\n", labels.SourceA)
	fmt.Fprintf(writer, "  Total:     %d\n", summary.TotalSourceATransactions)
	fmt.Fprintf(writer, "  Matched:   %d\n", summary.MatchedCount)
	fmt.Fprintf(writer, "  Unmatched: %d\n", summary.SourceAOnlyCount)
	if result.ReconciliationType == models.ReconciliationTypeBank {
		fmt.Fprintf(writer, "  Charges:   %d\n", summary.BankChargesCount)
	}
	fmt.Fprintf(writer, "%s:\n", labels.SourceB)
	fmt.Fprintf(writer, "  Total:     %d\n", summary.TotalSourceBTransactions)
	fmt.Fprintf(writer, "  Matched:   %d\n", summary.MatchedCount)
	fmt.Fprintf(writer, "  Unmatched: %d\n\n", summary.SourceBOnlyCount)

	fmt.Fprintf(writer, "=== FINANCIAL SUMMARY ===\n")
	fmt.Fprintf(writer, "Matched Amount:        %s\n", summary.MatchedAmount.StringFixed(2))
	fmt.Fprintf(writer, "%s Only:   %s\n", labels.SourceA, summary.SourceAOnlyAmount.StringFixed(2))
	fmt.Fprintf(writer, "%s Only:       %s\n", labels.SourceB, summary.SourceBOnlyAmount.StringFixed(2))
	if summary.BankChargesCount > 0 {
		fmt.Fprintf(writer, "Bank Charges:          %s\n", summary.BankChargesAmount.StringFixed(2))
	}
	fmt.Fprintf(writer, "Reconciliation Rate:   %.1f%%\n", summary.ReconciliationRate*100)
	fmt.Fprintf(writer, "Discrepancies:         %d\n\n", summary.DiscrepancyCount)

	if rg.config.IncludeMatched && len(result.Matched) > 0 {
		fmt.Fprintf(writer, "=== MATCHED PAIRS ===\n")
		rg.printMatchedPairs(result.Matched, writer)
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeUnmatched {
		if len(result.SourceAOnly) > 0 {
			fmt.Fprintf(writer, "=== %s ONLY ===\n", labels.SourceA)
			rg.printTransactionList(result.SourceAOnly, writer)
			fmt.Fprintf(writer, "\n")
		}
		if len(result.SourceBOnly) > 0 {
			fmt.Fprintf(writer, "=== %s ONLY ===\n", labels.SourceB)
			rg.printTransactionList(result.SourceBOnly, writer)
			fmt.Fprintf(writer, "\n")
		}
		if len(result.BankCharges) > 0 {
			fmt.Fprintf(writer, "=== BANK CHARGES ===\n")
			rg.printTransactionList(result.BankCharges, writer)
			fmt.Fprintf(writer, "\n")
		}
	}

	return nil
}

func (rg *ReportGenerator) generateJSONReport(result *models.ReconciliationResult, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func (rg *ReportGenerator) generateCSVReport(result *models.ReconciliationResult, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	headers := []string{
		"Type",
		"Date",
		"Description",
		"Reference",
		"Amount",
		"Match_Method",
		"Confidence",
		"Amount_Difference",
		"Date_Difference_Days",
	}
	if err := csvWriter.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	if rg.config.IncludeMatched {
		for _, pair := range result.Matched {
			txA := pair.SourceATransaction
			record := []string{
				"Matched",
				txA.Date.Format(models.DateLayout),
				txA.Description,
				txA.Reference,
				txA.Amount.String(),
				string(pair.MatchMethod),
				fmt.Sprintf("%.2f", pair.Confidence),
				pair.AmountDifference.String(),
				strconv.Itoa(pair.DateDifferenceInDays),
			}
			if err := csvWriter.Write(record); err != nil {
				return fmt.Errorf("failed to write matched pair record: %w", err)
			}
		}
	}

	if rg.config.IncludeUnmatched {
		groups := []struct {
			label string
			txs   []*models.Transaction
		}{
			{"Source A Only", result.SourceAOnly},
			{"Source B Only", result.SourceBOnly},
			{"Bank Charge", result.BankCharges},
		}
		for _, group := range groups {
			for _, tx := range group.txs {
				record := []string{
					group.label,
					tx.Date.Format(models.DateLayout),
					tx.Description,
					tx.Reference,
					tx.Amount.String(),
					"",
					"",
					"",
					"",
				}
				if err := csvWriter.Write(record); err != nil {
					return fmt.Errorf("failed to write transaction record: %w", err)
				}
			}
		}
	}

	return nil
}

func (rg *ReportGenerator) printMatchedPairs(pairs []*models.MatchedPair, writer io.Writer) {
	for i, pair := range pairs {
		txA := pair.SourceATransaction
		fmt.Fprintf(writer, "  %d. %s  %s  %s  [%s %.2f]\n",
			i+1,
			txA.Date.Format(models.DateLayout),
			txA.Amount.StringFixed(2),
			txA.Description,
			pair.MatchMethod,
			pair.Confidence)

		if i+1 >= rg.config.MaxListedPerGroup && len(pairs) > rg.config.MaxListedPerGroup {
			fmt.Fprintf(writer, "  ... and %d more\n", len(pairs)-rg.config.MaxListedPerGroup)
			break
		}
	}
}

func (rg *ReportGenerator) printTransactionList(transactions []*models.Transaction, writer io.Writer) {
	for i, tx := range transactions {
		fmt.Fprintf(writer, "  %d. %s  %s  %s\n",
			i+1,
			tx.Date.Format(models.DateLayout),
			tx.Amount.StringFixed(2),
			tx.Description)

		if i+1 >= rg.config.MaxListedPerGroup && len(transactions) > rg.config.MaxListedPerGroup {
			fmt.Fprintf(writer, "  ... and %d more\n", len(transactions)-rg.config.MaxListedPerGroup)
			break
		}
	}
}
