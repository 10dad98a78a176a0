// Package reconciler orchestrates a full reconciliation run: normalize both
// sources, match them, classify bank charges among the statement leftovers,
// and summarize the outcome.
package reconciler

import (
	"context"
	"time"

	"ledger-reconciliation-service/internal/classifier"
	"ledger-reconciliation-service/internal/matcher"
	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/internal/normalizer"
	"ledger-reconciliation-service/internal/parsers"
	"ledger-reconciliation-service/pkg/errors"
	"ledger-reconciliation-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RunConfig holds the tunable parameters of one reconciliation run
type RunConfig struct {
	Type              models.ReconciliationType `json:"type"`
	DateToleranceDays int                       `json:"date_tolerance_days"`
	AmountTolerance   decimal.Decimal           `json:"amount_tolerance"`
	MinSimilarity     float64                   `json:"min_similarity"`
}

// DefaultRunConfig returns the default run parameters for bank reconciliation
func DefaultRunConfig() *RunConfig {
	return &RunConfig{
		Type:              models.ReconciliationTypeBank,
		DateToleranceDays: matcher.DefaultDateToleranceDays,
		AmountTolerance:   matcher.DefaultAmountTolerance,
		MinSimilarity:     matcher.DefaultMinSimilarity,
	}
}

// Validate checks if the run configuration is valid
func (c *RunConfig) Validate() error {
	mc := c.matcherConfig()
	if err := mc.Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "reconciliation", c, err)
	}
	return nil
}

func (c *RunConfig) matcherConfig() *matcher.Config {
	return &matcher.Config{
		Type:              c.Type,
		DateToleranceDays: c.DateToleranceDays,
		AmountTolerance:   c.AmountTolerance,
		MinSimilarity:     c.MinSimilarity,
	}
}

// RunRequest carries the two parsed source tables and their column mappings.
// In bank mode source A is the bank statement and source B the book ledger.
type RunRequest struct {
	SourceA  *parsers.Table
	SourceB  *parsers.Table
	MappingA models.ColumnMapping
	MappingB models.ColumnMapping
}

// Service runs reconciliations
type Service struct {
	config     *RunConfig
	normalizer *normalizer.Normalizer
	engine     *matcher.Engine
	logger     logger.Logger
}

// NewService creates a reconciliation service with the given configuration
func NewService(config *RunConfig) (*Service, error) {
	if config == nil {
		config = DefaultRunConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Service{
		config:     config,
		normalizer: normalizer.New(),
		engine:     matcher.NewEngine(config.matcherConfig()),
		logger:     logger.GetGlobalLogger().WithComponent("reconciler"),
	}, nil
}

// Reconcile executes the pipeline over one request. A source that yields no
// valid transactions after normalization aborts the run; the error names the
// empty side so the caller can point at the right file or mapping.
func (s *Service) Reconcile(ctx context.Context, req *RunRequest) (*models.ReconciliationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.InternalError(errors.CodeUnexpectedError, "reconciliation", err)
	}

	if req == nil || req.SourceA == nil || req.SourceB == nil {
		return nil, errors.ValidationError(errors.CodeMissingField, "sources", nil, nil).
			WithSuggestion("provide both source tables")
	}

	if err := req.MappingA.Validate(); err != nil {
		return nil, errors.ValidationError(errors.CodeInvalidMapping, "source A", req.MappingA, err)
	}
	if err := req.MappingB.Validate(); err != nil {
		return nil, errors.ValidationError(errors.CodeInvalidMapping, "source B", req.MappingB, err)
	}

	sourceA := s.normalizer.NormalizeTransactions(req.SourceA.Rows, req.SourceA.Headers, req.MappingA)
	sourceB := s.normalizer.NormalizeTransactions(req.SourceB.Rows, req.SourceB.Headers, req.MappingB)

	if len(sourceA) == 0 {
		return nil, errors.ValidationError(errors.CodeEmptySource, "source A", nil, nil)
	}
	if len(sourceB) == 0 {
		return nil, errors.ValidationError(errors.CodeEmptySource, "source B", nil, nil)
	}

	s.logger.WithFields(logger.Fields{
		"type":     s.config.Type,
		"source_a": len(sourceA),
		"source_b": len(sourceB),
	}).Info("Starting reconciliation")

	outcome := s.engine.Match(sourceA, sourceB)
	bankCharges, sourceAOnly := classifier.Classify(s.config.Type, outcome.UnmatchedA)

	result := &models.ReconciliationResult{
		ID:                 uuid.NewString(),
		CreatedAt:          time.Now().UTC(),
		ReconciliationType: s.config.Type,
		Matched:            outcome.Matched,
		SourceAOnly:        sourceAOnly,
		SourceBOnly:        outcome.UnmatchedB,
		BankCharges:        bankCharges,
		Summary:            buildSummary(len(sourceA), len(sourceB), outcome.Matched, sourceAOnly, outcome.UnmatchedB, bankCharges),
	}

	s.logger.WithFields(logger.Fields{
		"matched":       result.Summary.MatchedCount,
		"source_a_only": result.Summary.SourceAOnlyCount,
		"source_b_only": result.Summary.SourceBOnlyCount,
		"bank_charges":  result.Summary.BankChargesCount,
		"rate":          result.Summary.ReconciliationRate,
	}).Info("Reconciliation completed")

	return result, nil
}
