package reconciler

import (
	"context"
	"testing"

	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/internal/parsers"
	"ledger-reconciliation-service/pkg/errors"
)

func bankRequest(rowsA, rowsB [][]string) *RunRequest {
	headers := []string{"Fecha", "Descripcion", "Referencia", "Monto"}
	mapping := models.ColumnMapping{
		Date:        "0",
		Description: "1",
		Reference:   "2",
		Amount:      "3",
	}
	return &RunRequest{
		SourceA:  &parsers.Table{Headers: headers, Rows: rowsA},
		SourceB:  &parsers.Table{Headers: headers, Rows: rowsB},
		MappingA: mapping,
		MappingB: mapping,
	}
}

func TestReconcile_BankEndToEnd(t *testing.T) {
	service, err := NewService(nil)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	req := bankRequest(
		[][]string{
			{"2024-01-15", "Pago factura", "INV-1", "100.00"},
			{"2024-01-16", "Comision transferencia", "", "-4.50"},
			{"2024-01-17", "Deposito cliente", "", "250.00"},
		},
		[][]string{
			{"2024-01-15", "Pago factura", "INV-1", "-100.00"},
			{"2024-01-20", "Arriendo oficina", "", "-800.00"},
		},
	)

	result, err := service.Reconcile(context.Background(), req)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if result.ID == "" {
		t.Error("expected result id to be set")
	}
	if result.ReconciliationType != models.ReconciliationTypeBank {
		t.Errorf("expected bank type, got %s", result.ReconciliationType)
	}

	if len(result.Matched) != 1 {
		t.Fatalf("expected 1 matched pair, got %d", len(result.Matched))
	}
	pair := result.Matched[0]
	if pair.MatchMethod != models.MatchMethodExact {
		t.Errorf("expected exact match, got %s", pair.MatchMethod)
	}
	if !pair.AmountDifference.IsZero() {
		t.Errorf("expected zero amount difference, got %s", pair.AmountDifference)
	}

	if len(result.BankCharges) != 1 {
		t.Fatalf("expected 1 bank charge, got %d", len(result.BankCharges))
	}
	if result.BankCharges[0].Description != "Comision transferencia" {
		t.Errorf("wrong transaction classified as charge: %q", result.BankCharges[0].Description)
	}

	if len(result.SourceAOnly) != 1 {
		t.Errorf("expected 1 source-A leftover, got %d", len(result.SourceAOnly))
	}
	if len(result.SourceBOnly) != 1 {
		t.Errorf("expected 1 source-B leftover, got %d", len(result.SourceBOnly))
	}

	s := result.Summary
	if s.TotalSourceATransactions != 3 || s.TotalSourceBTransactions != 2 {
		t.Errorf("wrong totals: %d / %d", s.TotalSourceATransactions, s.TotalSourceBTransactions)
	}
	if s.MatchedCount != 1 || s.BankChargesCount != 1 {
		t.Errorf("wrong counts: matched=%d charges=%d", s.MatchedCount, s.BankChargesCount)
	}
	if got, want := s.ReconciliationRate, 1.0/3.0; got != want {
		t.Errorf("expected rate %v, got %v", want, got)
	}
	if s.DiscrepancyCount != 0 {
		t.Errorf("exact matches must not count as discrepancies, got %d", s.DiscrepancyCount)
	}
}

func TestReconcile_PartitionInvariant(t *testing.T) {
	service, err := NewService(nil)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	req := bankRequest(
		[][]string{
			{"2024-01-15", "Pago factura", "INV-1", "100.00"},
			{"2024-01-16", "Comision transferencia", "", "-4.50"},
			{"2024-01-17", "Deposito cliente", "", "250.00"},
			{"2024-01-18", "GMF 4x1000", "", "-1.20"},
		},
		[][]string{
			{"2024-01-15", "Pago factura", "INV-1", "-100.00"},
			{"2024-01-17", "Deposito cliente", "", "-250.00"},
		},
	)

	result, err := service.Reconcile(context.Background(), req)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	totalA := len(result.Matched) + len(result.SourceAOnly) + len(result.BankCharges)
	if totalA != result.Summary.TotalSourceATransactions {
		t.Errorf("source A partition broken: %d buckets vs %d total", totalA, result.Summary.TotalSourceATransactions)
	}

	totalB := len(result.Matched) + len(result.SourceBOnly)
	if totalB != result.Summary.TotalSourceBTransactions {
		t.Errorf("source B partition broken: %d buckets vs %d total", totalB, result.Summary.TotalSourceBTransactions)
	}

	seen := make(map[string]bool)
	for _, pair := range result.Matched {
		seen[pair.SourceATransaction.ID] = true
	}
	for _, tx := range result.SourceAOnly {
		if seen[tx.ID] {
			t.Errorf("transaction %s appears in two buckets", tx.ID)
		}
		seen[tx.ID] = true
	}
	for _, tx := range result.BankCharges {
		if seen[tx.ID] {
			t.Errorf("transaction %s appears in two buckets", tx.ID)
		}
	}
}

func TestReconcile_EmptySourceA(t *testing.T) {
	service, err := NewService(nil)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	// Every source-A row has an unparseable date, so normalization drops all.
	req := bankRequest(
		[][]string{
			{"not-a-date", "Pago factura", "", "100.00"},
		},
		[][]string{
			{"2024-01-15", "Pago factura", "", "-100.00"},
		},
	)

	_, err = service.Reconcile(context.Background(), req)
	if err == nil {
		t.Fatal("expected error for empty source A")
	}

	rerr, ok := errors.AsReconcilerError(err)
	if !ok {
		t.Fatalf("expected ReconcilerError, got %T", err)
	}
	if rerr.Code != errors.CodeEmptySource {
		t.Errorf("expected empty_source code, got %s", rerr.Code)
	}
	if rerr.Context["field"] != "source A" {
		t.Errorf("error must name the empty side, got %v", rerr.Context["field"])
	}
	if rerr.Suggestion == "" {
		t.Error("expected a mapping suggestion on the error")
	}
}

func TestReconcile_EmptySourceB(t *testing.T) {
	service, _ := NewService(nil)

	req := bankRequest(
		[][]string{
			{"2024-01-15", "Pago factura", "", "100.00"},
		},
		[][]string{
			{"not-a-date", "Pago factura", "", "-100.00"},
		},
	)

	_, err := service.Reconcile(context.Background(), req)
	if err == nil {
		t.Fatal("expected error for empty source B")
	}

	rerr, ok := errors.AsReconcilerError(err)
	if !ok {
		t.Fatalf("expected ReconcilerError, got %T", err)
	}
	if rerr.Code != errors.CodeEmptySource {
		t.Errorf("expected empty_source code, got %s", rerr.Code)
	}
	if rerr.Context["field"] != "source B" {
		t.Errorf("error must name the empty side, got %v", rerr.Context["field"])
	}
}

func TestReconcile_InvalidMapping(t *testing.T) {
	service, _ := NewService(nil)

	req := bankRequest(
		[][]string{{"2024-01-15", "Pago", "", "100.00"}},
		[][]string{{"2024-01-15", "Pago", "", "-100.00"}},
	)
	req.MappingA = models.ColumnMapping{Date: "0"}

	_, err := service.Reconcile(context.Background(), req)
	if err == nil {
		t.Fatal("expected error for invalid mapping")
	}

	rerr, ok := errors.AsReconcilerError(err)
	if !ok {
		t.Fatalf("expected ReconcilerError, got %T", err)
	}
	if rerr.Code != errors.CodeInvalidMapping {
		t.Errorf("expected invalid_mapping code, got %s", rerr.Code)
	}
}

func TestReconcile_AccountsMode(t *testing.T) {
	config := DefaultRunConfig()
	config.Type = models.ReconciliationTypeAccounts

	service, err := NewService(config)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	// Accounts mode: same sign on both sides, and charge-like descriptions
	// stay plain leftovers.
	req := bankRequest(
		[][]string{
			{"2024-01-15", "Pago factura", "INV-1", "100.00"},
			{"2024-01-16", "Comision transferencia", "", "-4.50"},
		},
		[][]string{
			{"2024-01-15", "Pago factura", "INV-1", "100.00"},
		},
	)

	result, err := service.Reconcile(context.Background(), req)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if len(result.Matched) != 1 {
		t.Fatalf("expected 1 matched pair, got %d", len(result.Matched))
	}
	if len(result.BankCharges) != 0 {
		t.Errorf("accounts mode must not classify bank charges, got %d", len(result.BankCharges))
	}
	if len(result.SourceAOnly) != 1 {
		t.Errorf("expected 1 source-A leftover, got %d", len(result.SourceAOnly))
	}
}

func TestReconcile_DiscrepancyCount(t *testing.T) {
	service, _ := NewService(nil)

	// Amounts differ by a cent, only the fuzzy pass can pair them.
	req := bankRequest(
		[][]string{
			{"2024-01-15", "Pago nomina enero", "", "100.00"},
		},
		[][]string{
			{"2024-01-15", "Pago nomina enero", "", "-100.01"},
		},
	)

	result, err := service.Reconcile(context.Background(), req)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if len(result.Matched) != 1 {
		t.Fatalf("expected 1 matched pair, got %d", len(result.Matched))
	}
	if result.Matched[0].MatchMethod != models.MatchMethodFuzzy {
		t.Errorf("expected fuzzy match, got %s", result.Matched[0].MatchMethod)
	}
	if result.Summary.DiscrepancyCount != 1 {
		t.Errorf("expected 1 discrepancy, got %d", result.Summary.DiscrepancyCount)
	}
}

func TestReconcile_CancelledContext(t *testing.T) {
	service, _ := NewService(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := bankRequest(
		[][]string{{"2024-01-15", "Pago", "", "100.00"}},
		[][]string{{"2024-01-15", "Pago", "", "-100.00"}},
	)

	if _, err := service.Reconcile(ctx, req); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestRunConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RunConfig)
		wantErr bool
	}{
		{"defaults", func(c *RunConfig) {}, false},
		{"negative tolerance", func(c *RunConfig) { c.DateToleranceDays = -1 }, true},
		{"invalid type", func(c *RunConfig) { c.Type = "ledger" }, true},
		{"similarity above one", func(c *RunConfig) { c.MinSimilarity = 1.5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultRunConfig()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
