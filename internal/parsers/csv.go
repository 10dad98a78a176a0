// Package parsers reads ledger CSV exports into raw tables.
//
// Parsing stays deliberately dumb: it splits the file into a header row and
// string cells and nothing else. Locale-aware interpretation of dates and
// amounts belongs to the normalizer, which sees the same raw strings no
// matter which file layout produced them.
package parsers

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"ledger-reconciliation-service/pkg/errors"
	"ledger-reconciliation-service/pkg/logger"
)

// Table is a parsed CSV file: the header row plus every data row as raw
// string cells. Rows may have ragged lengths, column lookups handle that.
type Table struct {
	Headers []string
	Rows    [][]string
}

// RowCount returns the number of data rows in the table
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// Preview is a truncated view of a table for mapping selection
type Preview struct {
	Headers   []string   `json:"headers"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"totalRows"`
}

// Preview returns the headers, at most n leading rows, and the total row
// count of the table
func (t *Table) Preview(n int) *Preview {
	rows := t.Rows
	if n >= 0 && n < len(rows) {
		rows = rows[:n]
	}
	return &Preview{
		Headers:   t.Headers,
		Rows:      rows,
		TotalRows: len(t.Rows),
	}
}

// Config holds configuration for CSV parsing
type Config struct {
	HasHeader        bool
	Delimiter        rune
	TrimLeadingSpace bool
	SkipEmptyRows    bool
	ValidateEncoding bool
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		HasHeader:        true,
		Delimiter:        ',',
		TrimLeadingSpace: true,
		SkipEmptyRows:    true,
		ValidateEncoding: true,
	}
}

// Validate checks if the parser configuration is valid
func (c *Config) Validate() error {
	if c.Delimiter == 0 {
		return fmt.Errorf("delimiter cannot be empty")
	}
	if c.Delimiter == '\n' || c.Delimiter == '\r' {
		return fmt.Errorf("delimiter cannot be a line ending")
	}
	return nil
}

// CSVParser reads ledger CSV files into Tables
type CSVParser struct {
	config *Config
	logger logger.Logger
}

// NewCSVParser creates a parser with the given configuration
func NewCSVParser(config *Config) (*CSVParser, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "parser", config, err)
	}

	log := logger.GetGlobalLogger().WithComponent("csv_parser")
	log.WithFields(logger.Fields{
		"has_header": config.HasHeader,
		"delimiter":  string(config.Delimiter),
	}).Debug("Created CSV parser")

	return &CSVParser{
		config: config,
		logger: log,
	}, nil
}

// ParseFile reads a CSV file from disk into a Table
func (p *CSVParser) ParseFile(filePath string) (*Table, error) {
	p.logger.WithField("file_path", filePath).Debug("Opening CSV file")

	file, err := os.Open(filePath)
	if err != nil {
		p.logger.WithError(err).WithField("file_path", filePath).Error("Failed to open CSV file")

		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, filePath, err)
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, filePath, err)
		}
		return nil, errors.FileError(errors.CodeFileCorrupted, filePath, err)
	}
	defer file.Close()

	if p.config.ValidateEncoding {
		if err := p.validateEncoding(file, filePath); err != nil {
			return nil, err
		}
		if _, err := file.Seek(0, 0); err != nil {
			return nil, errors.FileError(errors.CodeFileCorrupted, filePath, err)
		}
	}

	table, err := p.Parse(file, filePath)
	if err != nil {
		return nil, err
	}

	p.logger.WithFields(logger.Fields{
		"file_path": filePath,
		"columns":   len(table.Headers),
		"rows":      len(table.Rows),
	}).Debug("Parsed CSV file")

	return table, nil
}

// Parse reads CSV data from a reader into a Table. The name argument only
// labels error messages.
func (p *CSVParser) Parse(r io.Reader, name string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = p.config.Delimiter
	reader.TrimLeadingSpace = p.config.TrimLeadingSpace
	reader.FieldsPerRecord = -1

	table := &Table{
		Headers: make([]string, 0),
		Rows:    make([][]string, 0),
	}
	line := 0

	if p.config.HasHeader {
		headers, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				return nil, errors.ValidationError(errors.CodeMissingField, "file content", "empty", nil).
					WithSuggestion("ensure the file contains a header row and data rows").
					WithContext("file", name)
			}
			return nil, errors.ParseError(errors.CodeInvalidFormat, name, 1, err)
		}
		line++
		table.Headers = cleanHeaders(headers)
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			p.logger.WithError(err).WithField("line", line+1).Warn("Failed to read CSV record")
			return nil, errors.ParseError(errors.CodeInvalidFormat, name, line+1, err)
		}
		line++

		if p.config.SkipEmptyRows && isEmptyRecord(record) {
			continue
		}

		table.Rows = append(table.Rows, record)
	}

	return table, nil
}

// validateEncoding checks the leading lines of the file for valid UTF-8
func (p *CSVParser) validateEncoding(file *os.File, filePath string) error {
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() && lineNum < 100 {
		lineNum++
		if !utf8.Valid(scanner.Bytes()) {
			p.logger.WithField("file_path", filePath).Error("File encoding validation failed")
			return errors.ParseError(errors.CodeEncodingError, filePath, lineNum,
				fmt.Errorf("invalid UTF-8 encoding detected"))
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.FileError(errors.CodeFileCorrupted, filePath, err)
	}

	return nil
}

func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		cleaned[i] = strings.TrimSpace(header)
	}
	return cleaned
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
