package validation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

// ValidatorLoader resolves standalone validator definitions referenced
// by a document type.
type ValidatorLoader interface {
	ValidatorsByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.ValidatorDefinition, error)
}

// Service assembles the validator set for a document and runs it through
// the engine.
type Service struct {
	engine *Engine
	loader ValidatorLoader
	log    *slog.Logger
}

func NewService(engine *Engine, loader ValidatorLoader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{engine: engine, loader: loader, log: logger}
}

// CollectValidators merges the document type's standalone validators
// with validators synthesized from the target schema's per-field rules.
// Synthesized validators are coded "{field_code}_{rule_type}".
func (s *Service) CollectValidators(ctx context.Context, docType *entity.DocumentType, fields []*entity.CatalogField) ([]*entity.ValidatorDefinition, error) {
	var defs []*entity.ValidatorDefinition

	if docType != nil && len(docType.ValidatorIDs) > 0 {
		loaded, err := s.loader.ValidatorsByIDs(ctx, docType.ValidatorIDs)
		if err != nil {
			return nil, err
		}
		for _, v := range loaded {
			if v.IsActive {
				defs = append(defs, v)
			}
		}
	}

	for _, f := range fields {
		for _, rule := range f.ValidationRules {
			defs = append(defs, synthesizeFieldValidator(f, rule))
		}
	}
	return defs, nil
}

func synthesizeFieldValidator(f *entity.CatalogField, rule entity.FieldValidationRule) *entity.ValidatorDefinition {
	severity := rule.Severity
	if severity == "" {
		severity = constants.SeverityError
	}
	return &entity.ValidatorDefinition{
		ID:               uuid.New(),
		Code:             fmt.Sprintf("%s_%s", f.Code, rule.RuleType),
		Name:             fmt.Sprintf("%s %s check", f.DisplayName, rule.RuleType),
		ValidatorType:    rule.RuleType,
		Severity:         severity,
		Config:           rule.Config,
		ApplicableFields: []string{f.Code},
		IsActive:         true,
	}
}

// Validate runs every definition against the target. Individual
// validator failures are contained into failing results.
func (s *Service) Validate(ctx context.Context, defs []*entity.ValidatorDefinition, target *Target) []entity.ValidationResult {
	results := make([]entity.ValidationResult, 0, len(defs))
	for _, def := range defs {
		results = append(results, s.engine.Run(ctx, def, target))
	}
	passed := 0
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}
	s.log.Info("pipeline.validate.done",
		"validators", len(results), "passed", passed, "failed", len(results)-passed)
	return results
}

// Score is the fraction of validators that passed; a document with no
// validators scores a clean 1.0.
func Score(results []entity.ValidationResult) float64 {
	if len(results) == 0 {
		return 1.0
	}
	passed := 0
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}
	return float64(passed) / float64(len(results))
}

// IsValid reports whether every ERROR-severity validator passed.
// Warnings and infos never invalidate a document.
func IsValid(results []entity.ValidationResult) bool {
	for _, r := range results {
		if !r.Passed && r.Severity == constants.SeverityError {
			return false
		}
	}
	return true
}
