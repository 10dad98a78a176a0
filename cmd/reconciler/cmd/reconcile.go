package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"ledger-reconciliation-service/cmd/reconciler/config"
	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/internal/normalizer"
	"ledger-reconciliation-service/internal/parsers"
	"ledger-reconciliation-service/internal/reconciler"
	"ledger-reconciliation-service/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the reconcile command
var (
	sourceAFile        string
	sourceBFile        string
	reconciliationType string
	mappingSpecA       string
	mappingSpecB       string
	delimiter          string
	outputFormat       string
	outputFile         string
	dateTolerance      int
	amountTolerance    float64
	minSimilarity      float64
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile two transaction ledgers",
	Long: `Reconcile compares two CSV transaction files and pairs entries that
describe the same event, reporting matches, unmatched entries per side,
and (in bank mode) bank charges.

Column mappings use field=column lists where a column is a 0-based index
or a header name. Valid fields: date, description, reference, amount,
debit, credit. When a mapping is omitted, columns are auto-detected from
the header row.

Examples:
  # Bank reconciliation with auto-detected columns
  reconciler reconcile --source-a statement.csv --source-b ledger.csv

  # Explicit mappings with split debit/credit columns
  reconciler reconcile -A extracto.csv -B libro.csv \
    --map-a date=Fecha,description=Concepto,amount=Valor \
    --map-b date=0,description=1,debit=2,credit=3

  # Account-to-account comparison exported as JSON
  reconciler reconcile -A cuenta_a.csv -B cuenta_b.csv \
    --type accounts --output-format json --output-file result.json

  # Wider tolerances for sloppy data
  reconciler reconcile -A a.csv -B b.csv --date-tolerance 5 --amount-tolerance 0.05`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().StringVarP(&sourceAFile, "source-a", "A", "", "path to the source-A CSV file (statement in bank mode; required)")
	reconcileCmd.Flags().StringVarP(&sourceBFile, "source-b", "B", "", "path to the source-B CSV file (book in bank mode; required)")

	reconcileCmd.Flags().StringVarP(&reconciliationType, "type", "t", "bank", "reconciliation type: bank, accounts")
	reconcileCmd.Flags().StringVar(&mappingSpecA, "map-a", "", "source-A column mapping (field=column list; default: auto-detect)")
	reconcileCmd.Flags().StringVar(&mappingSpecB, "map-b", "", "source-B column mapping (field=column list; default: auto-detect)")
	reconcileCmd.Flags().StringVar(&delimiter, "delimiter", ",", "CSV field delimiter")

	reconcileCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	reconcileCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	reconcileCmd.Flags().IntVarP(&dateTolerance, "date-tolerance", "d", 3, "date matching tolerance in days")
	reconcileCmd.Flags().Float64VarP(&amountTolerance, "amount-tolerance", "a", 0.01, "absolute amount tolerance for fuzzy matching")
	reconcileCmd.Flags().Float64Var(&minSimilarity, "min-similarity", 0.6, "minimum description similarity for fuzzy matching (0.0-1.0)")

	reconcileCmd.MarkFlagRequired("source-a")
	reconcileCmd.MarkFlagRequired("source-b")

	viper.BindPFlag("source-a", reconcileCmd.Flags().Lookup("source-a"))
	viper.BindPFlag("source-b", reconcileCmd.Flags().Lookup("source-b"))
	viper.BindPFlag("type", reconcileCmd.Flags().Lookup("type"))
	viper.BindPFlag("map-a", reconcileCmd.Flags().Lookup("map-a"))
	viper.BindPFlag("map-b", reconcileCmd.Flags().Lookup("map-b"))
	viper.BindPFlag("delimiter", reconcileCmd.Flags().Lookup("delimiter"))
	viper.BindPFlag("output-format", reconcileCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", reconcileCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("date-tolerance", reconcileCmd.Flags().Lookup("date-tolerance"))
	viper.BindPFlag("amount-tolerance", reconcileCmd.Flags().Lookup("amount-tolerance"))
	viper.BindPFlag("min-similarity", reconcileCmd.Flags().Lookup("min-similarity"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	// Viper values win so config files and RECONCILER_ env vars can override.
	sourceAFile = viper.GetString("source-a")
	sourceBFile = viper.GetString("source-b")
	reconciliationType = viper.GetString("type")
	mappingSpecA = viper.GetString("map-a")
	mappingSpecB = viper.GetString("map-b")
	delimiter = viper.GetString("delimiter")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	dateTolerance = viper.GetInt("date-tolerance")
	amountTolerance = viper.GetFloat64("amount-tolerance")
	minSimilarity = viper.GetFloat64("min-similarity")

	if sourceAFile == "" {
		return fmt.Errorf("source-a is required")
	}
	if sourceBFile == "" {
		return fmt.Errorf("source-b is required")
	}

	if err := validateFileExists(sourceAFile, "source-A file"); err != nil {
		return err
	}
	if err := validateFileExists(sourceBFile, "source-B file"); err != nil {
		return err
	}

	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	if dateTolerance < 0 {
		return fmt.Errorf("date tolerance cannot be negative")
	}
	if amountTolerance < 0 {
		return fmt.Errorf("amount tolerance cannot be negative")
	}
	if minSimilarity < 0 || minSimilarity > 1 {
		return fmt.Errorf("min similarity must be between 0.0 and 1.0")
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting reconciliation...\n")
		fmt.Fprintf(os.Stderr, "Source A: %s\n", sourceAFile)
		fmt.Fprintf(os.Stderr, "Source B: %s\n", sourceBFile)
		fmt.Fprintf(os.Stderr, "Type: %s\n", reconciliationType)
		if outputFile != "" {
			fmt.Fprintf(os.Stderr, "Output file: %s\n", outputFile)
		}
	}

	parserConfig, err := config.CreateParserConfig(delimiter)
	if err != nil {
		return err
	}

	parser, err := parsers.NewCSVParser(parserConfig)
	if err != nil {
		return err
	}

	tableA, err := parser.ParseFile(sourceAFile)
	if err != nil {
		return err
	}
	tableB, err := parser.ParseFile(sourceBFile)
	if err != nil {
		return err
	}

	mappingA, err := resolveMapping(mappingSpecA, tableA.Headers, "map-a")
	if err != nil {
		return err
	}
	mappingB, err := resolveMapping(mappingSpecB, tableB.Headers, "map-b")
	if err != nil {
		return err
	}

	runConfig, err := config.CreateRunConfig(reconciliationType, dateTolerance, amountTolerance, minSimilarity)
	if err != nil {
		return err
	}

	service, err := reconciler.NewService(runConfig)
	if err != nil {
		return err
	}

	result, err := service.Reconcile(ctx, &reconciler.RunRequest{
		SourceA:  tableA,
		SourceB:  tableB,
		MappingA: mappingA,
		MappingB: mappingB,
	})
	if err != nil {
		return err
	}

	reportConfig, err := config.CreateReportConfig(outputFormat)
	if err != nil {
		return err
	}

	reportGenerator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return err
	}

	output := os.Stdout
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	}

	if err := reportGenerator.GenerateReport(result, output); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nReconciliation completed successfully.\n")
		fmt.Fprintf(os.Stderr, "Processed %d source-A and %d source-B transactions.\n",
			result.Summary.TotalSourceATransactions, result.Summary.TotalSourceBTransactions)
		fmt.Fprintf(os.Stderr, "Found %d matches, %d source-A only, %d source-B only, %d bank charges.\n",
			result.Summary.MatchedCount, result.Summary.SourceAOnlyCount,
			result.Summary.SourceBOnlyCount, result.Summary.BankChargesCount)
	}

	return nil
}

// resolveMapping parses an explicit mapping spec, or auto-detects columns
// from the header row when the spec is empty.
func resolveMapping(spec string, headers []string, flagName string) (models.ColumnMapping, error) {
	mapping, err := config.ParseMappingSpec(spec)
	if err != nil {
		return mapping, fmt.Errorf("invalid --%s: %w", flagName, err)
	}

	if spec == "" {
		mapping = normalizer.AutoDetectColumns(headers)
		if err := mapping.Validate(); err != nil {
			return mapping, fmt.Errorf("could not auto-detect columns from headers %v; provide --%s explicitly: %w", headers, flagName, err)
		}
	}

	return mapping, nil
}
