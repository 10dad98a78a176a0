package parsers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ledger-reconciliation-service/pkg/errors"
)

func TestParse_BasicTable(t *testing.T) {
	input := "Fecha,Descripcion,Monto\n2024-01-15,Pago proveedor,100.50\n2024-01-16,Consignacion,-20.00\n"

	parser, err := NewCSVParser(nil)
	if err != nil {
		t.Fatalf("NewCSVParser failed: %v", err)
	}

	table, err := parser.Parse(strings.NewReader(input), "test.csv")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(table.Headers) != 3 {
		t.Errorf("expected 3 headers, got %d", len(table.Headers))
	}
	if table.Headers[1] != "Descripcion" {
		t.Errorf("unexpected header: %q", table.Headers[1])
	}
	if table.RowCount() != 2 {
		t.Errorf("expected 2 rows, got %d", table.RowCount())
	}
	if table.Rows[0][2] != "100.50" {
		t.Errorf("unexpected cell value: %q", table.Rows[0][2])
	}
}

func TestParse_SkipsEmptyRows(t *testing.T) {
	input := "Fecha,Monto\n2024-01-15,100\n,\n  ,  \n2024-01-16,200\n"

	parser, _ := NewCSVParser(nil)
	table, err := parser.Parse(strings.NewReader(input), "test.csv")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if table.RowCount() != 2 {
		t.Errorf("expected empty rows to be skipped, got %d rows", table.RowCount())
	}
}

func TestParse_RaggedRowsKept(t *testing.T) {
	input := "A,B,C\n1,2,3\n1,2\n1,2,3,4\n"

	parser, _ := NewCSVParser(nil)
	table, err := parser.Parse(strings.NewReader(input), "test.csv")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if table.RowCount() != 3 {
		t.Fatalf("expected 3 rows, got %d", table.RowCount())
	}
	if len(table.Rows[1]) != 2 {
		t.Errorf("expected short row to keep 2 fields, got %d", len(table.Rows[1]))
	}
	if len(table.Rows[2]) != 4 {
		t.Errorf("expected long row to keep 4 fields, got %d", len(table.Rows[2]))
	}
}

func TestParse_TrimsHeaderWhitespace(t *testing.T) {
	input := " Fecha , Monto \n2024-01-15,100\n"

	parser, _ := NewCSVParser(nil)
	table, err := parser.Parse(strings.NewReader(input), "test.csv")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if table.Headers[0] != "Fecha" || table.Headers[1] != "Monto" {
		t.Errorf("expected trimmed headers, got %v", table.Headers)
	}
}

func TestParse_EmptyFile(t *testing.T) {
	parser, _ := NewCSVParser(nil)
	_, err := parser.Parse(strings.NewReader(""), "empty.csv")
	if err == nil {
		t.Fatal("expected error for empty file")
	}

	rerr, ok := errors.AsReconcilerError(err)
	if !ok {
		t.Fatalf("expected ReconcilerError, got %T", err)
	}
	if rerr.Category != errors.CategoryValidation {
		t.Errorf("expected validation category, got %s", rerr.Category)
	}
}

func TestParse_SemicolonDelimiter(t *testing.T) {
	input := "Fecha;Monto\n2024-01-15;1.234,56\n"

	parser, err := NewCSVParser(&Config{
		HasHeader:        true,
		Delimiter:        ';',
		TrimLeadingSpace: true,
		SkipEmptyRows:    true,
	})
	if err != nil {
		t.Fatalf("NewCSVParser failed: %v", err)
	}

	table, err := parser.Parse(strings.NewReader(input), "test.csv")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if table.Rows[0][1] != "1.234,56" {
		t.Errorf("semicolon files must keep comma cells intact, got %q", table.Rows[0][1])
	}
}

func TestParseFile_NotFound(t *testing.T) {
	parser, _ := NewCSVParser(nil)
	_, err := parser.ParseFile(filepath.Join(t.TempDir(), "missing.csv"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}

	rerr, ok := errors.AsReconcilerError(err)
	if !ok {
		t.Fatalf("expected ReconcilerError, got %T", err)
	}
	if rerr.Code != errors.CodeFileNotFound {
		t.Errorf("expected file_not_found code, got %s", rerr.Code)
	}
}

func TestParseFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	content := "Fecha,Descripcion,Valor\n15/01/2024,Pago nomina,-1.500.000\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	parser, _ := NewCSVParser(nil)
	table, err := parser.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	if table.RowCount() != 1 {
		t.Fatalf("expected 1 row, got %d", table.RowCount())
	}
	if table.Rows[0][1] != "Pago nomina" {
		t.Errorf("unexpected cell: %q", table.Rows[0][1])
	}
}

func TestParseFile_RejectsInvalidEncoding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latin1.csv")
	content := append([]byte("Fecha,Descripcion\n2024-01-15,Comisi"), 0xF3, 'n', '\n')
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	parser, _ := NewCSVParser(nil)
	_, err := parser.ParseFile(path)
	if err == nil {
		t.Fatal("expected encoding error")
	}

	rerr, ok := errors.AsReconcilerError(err)
	if !ok {
		t.Fatalf("expected ReconcilerError, got %T", err)
	}
	if rerr.Code != errors.CodeEncodingError {
		t.Errorf("expected encoding_error code, got %s", rerr.Code)
	}
}

func TestTablePreview(t *testing.T) {
	table := &Table{
		Headers: []string{"Fecha", "Monto"},
		Rows: [][]string{
			{"2024-01-01", "1"},
			{"2024-01-02", "2"},
			{"2024-01-03", "3"},
		},
	}

	preview := table.Preview(2)
	if len(preview.Rows) != 2 {
		t.Errorf("expected 2 preview rows, got %d", len(preview.Rows))
	}
	if preview.TotalRows != 3 {
		t.Errorf("expected total 3, got %d", preview.TotalRows)
	}

	all := table.Preview(10)
	if len(all.Rows) != 3 {
		t.Errorf("expected all 3 rows when n exceeds size, got %d", len(all.Rows))
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"semicolon", &Config{Delimiter: ';'}, false},
		{"zero delimiter", &Config{}, true},
		{"newline delimiter", &Config{Delimiter: '\n'}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
