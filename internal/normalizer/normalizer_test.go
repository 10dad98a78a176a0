package normalizer

import (
	"testing"
	"time"

	"ledger-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"already ISO", "2024-01-15", "2024-01-15", true},
		{"ISO with time", "2024-01-15T10:30:00Z", "2024-01-15", true},
		{"year first slashes", "2024/1/5", "2024-01-05", true},
		{"year first dots", "2024.01.15", "2024-01-15", true},
		{"day first slashes", "15/01/2024", "2024-01-15", true},
		{"day first dashes", "5-1-2024", "2024-01-05", true},
		{"day first dots", "15.01.2024", "2024-01-15", true},
		{"ambiguous is day first", "01/02/2024", "2024-02-01", true},
		{"two digit year below cutoff", "15/01/24", "2024-01-15", true},
		{"two digit year above cutoff", "15/01/99", "1999-01-15", true},
		{"text month fallback", "Jan 5, 2024", "2024-01-05", true},
		{"month out of range", "15/13/2024", "", false},
		{"not a date", "hello", "", false},
		{"empty", "", "", false},
		{"whitespace only", "   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeDate(tt.input)
			if ok != tt.ok {
				t.Fatalf("NormalizeDate(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got.Format(models.DateLayout) != tt.want {
				t.Errorf("NormalizeDate(%q) = %s, want %s", tt.input, got.Format(models.DateLayout), tt.want)
			}
		})
	}
}

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"plain", "100", "100", true},
		{"decimal dot", "100.50", "100.5", true},
		{"european format", "1.234,56", "1234.56", true},
		{"us format", "1,234.56", "1234.56", true},
		{"currency symbol", "$1,234.56", "1234.56", true},
		{"negative", "-250.00", "-250", true},
		{"comma decimal", "1,5", "1.5", true},
		{"comma decimal two digits", "499,99", "499.99", true},
		{"comma thousands", "1,234", "1234", true},
		{"comma long tail", "1,2345", "12345", true},
		{"multiple comma groups", "1,234,567", "1234567", true},
		{"big european", "1.234.567,89", "1234567.89", true},
		{"empty is zero", "", "0", true},
		{"letters only", "abc", "0", false},
		{"lone minus", "-", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeAmount(tt.input)
			if ok != tt.ok {
				t.Fatalf("NormalizeAmount(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			want, err := decimal.NewFromString(tt.want)
			if err != nil {
				t.Fatalf("bad expectation %q: %v", tt.want, err)
			}
			if !got.Equal(want) {
				t.Errorf("NormalizeAmount(%q) = %s, want %s", tt.input, got, want)
			}
		})
	}
}

func TestCellValue(t *testing.T) {
	headers := []string{"Fecha", " Concepto ", "Valor"}
	row := []string{"2024-01-15", "Pago proveedor", "100.50"}

	tests := []struct {
		name string
		ref  models.ColumnRef
		want string
	}{
		{"numeric index", "0", "2024-01-15"},
		{"header name exact", "Fecha", "2024-01-15"},
		{"header name case insensitive", "concepto", "Pago proveedor"},
		{"header name with padding", "  VALOR ", "100.50"},
		{"name fallback to index", "2", "100.50"},
		{"unknown name", "Saldo", ""},
		{"index out of bounds", "9", ""},
		{"unset", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CellValue(row, headers, tt.ref); got != tt.want {
				t.Errorf("CellValue(ref=%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestNormalizeTransactions_SingleAmountColumn(t *testing.T) {
	headers := []string{"Fecha", "Concepto", "Referencia", "Valor"}
	rows := [][]string{
		{"2024-01-15", "  Pago   proveedor ", " INV-001 ", "1.234,56"},
		{"no-date", "Fila invalida", "", "100"},
		{"2024-01-16", "Abono cliente", "", "not-a-number"},
		{"16/01/2024", "Consignacion", "REF9", "-500"},
	}
	mapping := models.ColumnMapping{Date: "Fecha", Description: "Concepto", Reference: "Referencia", Amount: "Valor"}

	txs := New().NormalizeTransactions(rows, headers, mapping)

	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions (invalid rows dropped), got %d", len(txs))
	}

	first := txs[0]
	if first.Description != "Pago proveedor" {
		t.Errorf("expected collapsed description, got %q", first.Description)
	}
	if first.RawDescription != "  Pago   proveedor " {
		t.Errorf("raw description should be preserved, got %q", first.RawDescription)
	}
	if first.Reference != "INV-001" {
		t.Errorf("expected trimmed reference, got %q", first.Reference)
	}
	if !first.Amount.Equal(decimal.NewFromFloat(1234.56)) {
		t.Errorf("expected amount 1234.56, got %s", first.Amount)
	}
	if first.RawAmount != "1.234,56" {
		t.Errorf("raw amount should be preserved, got %q", first.RawAmount)
	}
	if first.SourceRow != 2 {
		t.Errorf("expected source row 2 for first data row, got %d", first.SourceRow)
	}
	if first.ID == "" {
		t.Error("expected a generated transaction id")
	}

	second := txs[1]
	if second.SourceRow != 5 {
		t.Errorf("expected source row 5 for fourth data row, got %d", second.SourceRow)
	}
	if !second.Date.Equal(time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected day-first parse of 16/01/2024, got %s", second.Date)
	}
	if !second.Amount.Equal(decimal.NewFromInt(-500)) {
		t.Errorf("expected amount -500, got %s", second.Amount)
	}
}

func TestNormalizeTransactions_DebitCreditNetting(t *testing.T) {
	headers := []string{"Fecha", "Detalle", "Debito", "Credito"}
	rows := [][]string{
		{"2024-01-15", "Cargo", "300", ""},
		{"2024-01-16", "Abono", "", "1.000,00"},
		{"2024-01-17", "Ambos", "100", "250"},
	}
	mapping := models.ColumnMapping{Date: "0", Description: "1", Debit: "2", Credit: "3"}

	txs := New().NormalizeTransactions(rows, headers, mapping)

	if len(txs) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txs))
	}

	wantAmounts := []string{"-300", "1000", "150"}
	for i, want := range wantAmounts {
		expected, _ := decimal.NewFromString(want)
		if !txs[i].Amount.Equal(expected) {
			t.Errorf("row %d: amount = %s, want %s", i, txs[i].Amount, expected)
		}
	}

	if txs[0].RawAmount != "D:300 C:" {
		t.Errorf("expected raw debit/credit encoding, got %q", txs[0].RawAmount)
	}
}

func TestAutoDetectColumns(t *testing.T) {
	t.Run("bilingual headers", func(t *testing.T) {
		headers := []string{"Fecha", "Concepto", "Nro Documento", "Valor Total"}
		m := AutoDetectColumns(headers)

		if m.Date.Index() != 0 {
			t.Errorf("date column = %q, want index 0", m.Date)
		}
		if m.Description.Index() != 1 {
			t.Errorf("description column = %q, want index 1", m.Description)
		}
		if m.Reference.Index() != 2 {
			t.Errorf("reference column = %q, want index 2", m.Reference)
		}
		if m.Amount.Index() != 3 {
			t.Errorf("amount column = %q, want index 3", m.Amount)
		}
	})

	t.Run("debit credit beats amount", func(t *testing.T) {
		headers := []string{"Date", "Description", "Valor Debito", "Valor Credito"}
		m := AutoDetectColumns(headers)

		if m.Debit.Index() != 2 {
			t.Errorf("debit column = %q, want index 2", m.Debit)
		}
		if m.Credit.Index() != 3 {
			t.Errorf("credit column = %q, want index 3", m.Credit)
		}
		if m.Amount.IsSet() {
			t.Errorf("amount should not be inferred when debit/credit exist, got %q", m.Amount)
		}
	})

	t.Run("debit only still suppresses amount", func(t *testing.T) {
		headers := []string{"Fecha", "Detalle", "Cargo", "Saldo"}
		m := AutoDetectColumns(headers)

		if m.Debit.Index() != 2 {
			t.Errorf("debit column = %q, want index 2", m.Debit)
		}
		if m.Amount.IsSet() {
			t.Error("amount should not be inferred when a debit column exists")
		}
	})

	t.Run("nothing recognized", func(t *testing.T) {
		m := AutoDetectColumns([]string{"A", "B", "C"})
		if err := m.Validate(); err == nil {
			t.Error("expected partial mapping to fail validation")
		}
	})
}
