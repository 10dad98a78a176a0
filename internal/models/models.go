// Package models defines the core data types shared across the reconciliation
// pipeline: normalized transactions, column mappings, matched pairs, and the
// final reconciliation result.
//
// All amounts are decimal.Decimal values; a positive amount is a credit
// (inflow) and a negative amount is a debit (outflow). Dates carry day
// precision only and serialize as YYYY-MM-DD strings. Amounts serialize as
// plain JSON numbers so downstream consumers can read them without string
// conversion.
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical serialization format for transaction dates.
const DateLayout = "2006-01-02"

// ReconciliationType selects the bookkeeping perspective of the two sources.
type ReconciliationType string

const (
	// ReconciliationTypeBank reconciles a bank statement (source A) against an
	// accounting book (source B). The two ledgers record the same economic
	// event with opposite signs, so source-B amounts are negated before
	// amount comparison.
	ReconciliationTypeBank ReconciliationType = "bank"

	// ReconciliationTypeAccounts reconciles two accounts that share the same
	// sign convention. No negation is applied.
	ReconciliationTypeAccounts ReconciliationType = "accounts"
)

// String returns the string representation of ReconciliationType
func (rt ReconciliationType) String() string {
	return string(rt)
}

// IsValid checks if the reconciliation type is valid
func (rt ReconciliationType) IsValid() bool {
	return rt == ReconciliationTypeBank || rt == ReconciliationTypeAccounts
}

// MatchMethod identifies the matching pass that produced a pair. The names
// and the 0-1 confidence scale are part of the export contract and must not
// change without updating downstream consumers.
type MatchMethod string

const (
	MatchMethodExact           MatchMethod = "exact"
	MatchMethodAmountDate      MatchMethod = "amount_date"
	MatchMethodAmountReference MatchMethod = "amount_reference"
	MatchMethodAmountFuzzy     MatchMethod = "amount_fuzzy"
	MatchMethodFuzzy           MatchMethod = "fuzzy"
)

// String returns the string representation of MatchMethod
func (mm MatchMethod) String() string {
	return string(mm)
}

// Transaction is a single normalized ledger row. Instances are created once
// by the normalizer and never mutated afterwards.
type Transaction struct {
	ID             string          `json:"id"`
	Date           time.Time       `json:"date"`
	Description    string          `json:"description"`
	Reference      string          `json:"reference"`
	Amount         decimal.Decimal `json:"amount"`
	RawAmount      string          `json:"rawAmount"`
	RawDescription string          `json:"rawDescription"`
	SourceRow      int             `json:"sourceRow"`
}

// String returns a string representation of the Transaction
func (t *Transaction) String() string {
	return fmt.Sprintf("Transaction{ID: %s, Date: %s, Amount: %s, Ref: %q}",
		t.ID, t.Date.Format(DateLayout), t.Amount.String(), t.Reference)
}

// MarshalJSON implements custom JSON marshaling for Transaction. The date is
// emitted day-precision and the amount as an unquoted decimal number.
func (t *Transaction) MarshalJSON() ([]byte, error) {
	type Alias Transaction
	return json.Marshal(&struct {
		Date   string      `json:"date"`
		Amount json.Number `json:"amount"`
		*Alias
	}{
		Date:   t.Date.Format(DateLayout),
		Amount: json.Number(t.Amount.String()),
		Alias:  (*Alias)(t),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for Transaction
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type Alias Transaction
	aux := &struct {
		Date   string      `json:"date"`
		Amount json.Number `json:"amount"`
		*Alias
	}{
		Alias: (*Alias)(t),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	t.Amount, err = decimal.NewFromString(aux.Amount.String())
	if err != nil {
		return fmt.Errorf("invalid amount format: %w", err)
	}

	t.Date, err = time.Parse(DateLayout, aux.Date)
	if err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}

	return nil
}

// AbsoluteAmount returns the absolute value of the transaction amount
func (t *Transaction) AbsoluteAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// IsCredit returns true if the transaction is an inflow
func (t *Transaction) IsCredit() bool {
	return t.Amount.IsPositive()
}

// IsDebit returns true if the transaction is an outflow
func (t *Transaction) IsDebit() bool {
	return t.Amount.IsNegative()
}

// ColumnRef addresses a source column either by zero-based index or by
// header name. A name that fails header lookup is retried as a numeric
// index, matching how uploaded mappings arrive from callers.
type ColumnRef string

// IsSet reports whether the reference points at anything
func (cr ColumnRef) IsSet() bool {
	return strings.TrimSpace(string(cr)) != ""
}

// Index returns the numeric interpretation of the reference, or -1 when the
// value is not a plain non-negative integer.
func (cr ColumnRef) Index() int {
	idx, err := strconv.Atoi(strings.TrimSpace(string(cr)))
	if err != nil || idx < 0 {
		return -1
	}
	return idx
}

// UnmarshalJSON accepts both JSON numbers and strings, since mappings built
// by auto-detection use indices while user-edited mappings use header names.
func (cr *ColumnRef) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*cr = ColumnRef(asString)
		return nil
	}

	var asNumber int
	if err := json.Unmarshal(data, &asNumber); err == nil {
		*cr = ColumnRef(strconv.Itoa(asNumber))
		return nil
	}

	return fmt.Errorf("column reference must be a string or a number: %s", string(data))
}

// ColumnMapping associates the semantic transaction fields with source
// columns. Date and description are mandatory; the amount must come either
// from a single amount column or from split debit/credit columns.
type ColumnMapping struct {
	Date        ColumnRef `json:"date"`
	Description ColumnRef `json:"description"`
	Reference   ColumnRef `json:"reference,omitempty"`
	Amount      ColumnRef `json:"amount,omitempty"`
	Debit       ColumnRef `json:"debit,omitempty"`
	Credit      ColumnRef `json:"credit,omitempty"`
}

// HasAmountSource reports whether the mapping can yield an amount
func (m *ColumnMapping) HasAmountSource() bool {
	return m.Amount.IsSet() || m.Debit.IsSet() || m.Credit.IsSet()
}

// Validate checks that the mapping is usable for normalization
func (m *ColumnMapping) Validate() error {
	if !m.Date.IsSet() {
		return fmt.Errorf("column mapping requires a date column")
	}
	if !m.Description.IsSet() {
		return fmt.Errorf("column mapping requires a description column")
	}
	if !m.HasAmountSource() {
		return fmt.Errorf("column mapping requires an amount column or debit/credit columns")
	}
	return nil
}

// MatchedPair links one source-A transaction with one source-B transaction.
// A transaction appears in at most one pair per reconciliation run.
type MatchedPair struct {
	SourceATransaction   *Transaction    `json:"sourceATransaction"`
	SourceBTransaction   *Transaction    `json:"sourceBTransaction"`
	Confidence           float64         `json:"confidence"`
	MatchMethod          MatchMethod     `json:"matchMethod"`
	AmountDifference     decimal.Decimal `json:"amountDifference"`
	DateDifferenceInDays int             `json:"dateDifferenceInDays"`
}

// MarshalJSON emits the amount difference as an unquoted decimal number
func (mp *MatchedPair) MarshalJSON() ([]byte, error) {
	type Alias MatchedPair
	return json.Marshal(&struct {
		AmountDifference json.Number `json:"amountDifference"`
		*Alias
	}{
		AmountDifference: json.Number(mp.AmountDifference.String()),
		Alias:            (*Alias)(mp),
	})
}

// ReconciliationSummary holds aggregate statistics derived from the other
// result fields. It carries no independent state.
type ReconciliationSummary struct {
	TotalSourceATransactions int             `json:"totalSourceATransactions"`
	TotalSourceBTransactions int             `json:"totalSourceBTransactions"`
	MatchedCount             int             `json:"matchedCount"`
	SourceAOnlyCount         int             `json:"sourceAOnlyCount"`
	SourceBOnlyCount         int             `json:"sourceBOnlyCount"`
	MatchedAmount            decimal.Decimal `json:"matchedAmount"`
	SourceAOnlyAmount        decimal.Decimal `json:"sourceAOnlyAmount"`
	SourceBOnlyAmount        decimal.Decimal `json:"sourceBOnlyAmount"`
	BankChargesCount         int             `json:"bankChargesCount"`
	BankChargesAmount        decimal.Decimal `json:"bankChargesAmount"`
	ReconciliationRate       float64         `json:"reconciliationRate"`
	DiscrepancyCount         int             `json:"discrepancyCount"`
}

// MarshalJSON emits the amount totals as unquoted decimal numbers
func (rs *ReconciliationSummary) MarshalJSON() ([]byte, error) {
	type Alias ReconciliationSummary
	return json.Marshal(&struct {
		MatchedAmount     json.Number `json:"matchedAmount"`
		SourceAOnlyAmount json.Number `json:"sourceAOnlyAmount"`
		SourceBOnlyAmount json.Number `json:"sourceBOnlyAmount"`
		BankChargesAmount json.Number `json:"bankChargesAmount"`
		*Alias
	}{
		MatchedAmount:     json.Number(rs.MatchedAmount.String()),
		SourceAOnlyAmount: json.Number(rs.SourceAOnlyAmount.String()),
		SourceBOnlyAmount: json.Number(rs.SourceBOnlyAmount.String()),
		BankChargesAmount: json.Number(rs.BankChargesAmount.String()),
		Alias:             (*Alias)(rs),
	})
}

// ReconciliationResult is the complete output of one reconciliation run.
// Matched, SourceAOnly and BankCharges partition the source-A input exactly;
// Matched and SourceBOnly partition source-B exactly.
type ReconciliationResult struct {
	ID                 string             `json:"id"`
	CreatedAt          time.Time          `json:"createdAt"`
	ReconciliationType ReconciliationType `json:"reconciliationType"`
	Matched            []*MatchedPair     `json:"matched"`
	SourceAOnly        []*Transaction     `json:"sourceAOnly"`
	SourceBOnly        []*Transaction     `json:"sourceBOnly"`
	BankCharges        []*Transaction     `json:"bankCharges"`
	Summary            ReconciliationSummary `json:"summary"`
}
