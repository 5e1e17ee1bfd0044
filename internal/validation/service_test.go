package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

type fakeLoader struct {
	validators map[uuid.UUID]*entity.ValidatorDefinition
	err        error
}

func (l *fakeLoader) ValidatorsByIDs(_ context.Context, ids []uuid.UUID) ([]*entity.ValidatorDefinition, error) {
	if l.err != nil {
		return nil, l.err
	}
	var out []*entity.ValidatorDefinition
	for _, id := range ids {
		if v, ok := l.validators[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

type erroringHandler struct{}

func (erroringHandler) Type() constants.ValidatorType { return constants.ValidatorFormat }
func (erroringHandler) Validate(context.Context, *entity.ValidatorDefinition, *Target) (*entity.ValidationResult, error) {
	return nil, errors.New("handler exploded")
}

func TestEngineMissingHandlerFailsResult(t *testing.T) {
	e := NewEngine(nil)
	d := testDef(constants.ValidatorVisual, nil)
	d.ID = uuid.New()

	result := e.Run(context.Background(), d, fieldsTarget(nil))
	if result.Passed {
		t.Error("missing handler must produce a failing result")
	}
	if result.ValidatorID != d.ID || result.ValidatorCode != d.Code {
		t.Error("result not stamped with the definition's identity")
	}
	if result.Severity != constants.SeverityError {
		t.Errorf("severity = %s, want error", result.Severity)
	}
}

func TestEngineHandlerErrorContained(t *testing.T) {
	e := NewEngine(nil, erroringHandler{})
	d := testDef(constants.ValidatorFormat, nil)

	result := e.Run(context.Background(), d, fieldsTarget(nil))
	if result.Passed {
		t.Error("handler error must produce a failing result, not a panic or skip")
	}
	if result.Message == "" {
		t.Error("failing result carries no message")
	}
}

func TestCollectValidatorsMergesTypeAndFieldRules(t *testing.T) {
	standaloneID := uuid.New()
	inactiveID := uuid.New()
	loader := &fakeLoader{validators: map[uuid.UUID]*entity.ValidatorDefinition{
		standaloneID: {ID: standaloneID, Code: "total_positive", ValidatorType: constants.ValidatorBusinessRule, IsActive: true},
		inactiveID:   {ID: inactiveID, Code: "retired_check", ValidatorType: constants.ValidatorFormat, IsActive: false},
	}}
	svc := NewService(NewEngine(nil), loader, nil)

	docType := &entity.DocumentType{ValidatorIDs: []uuid.UUID{standaloneID, inactiveID}}
	fields := []*entity.CatalogField{{
		Code:        "total",
		DisplayName: "Total",
		ValidationRules: []entity.FieldValidationRule{
			{RuleType: constants.ValidatorRange, Config: map[string]any{"min": 0.0}},
			{RuleType: constants.ValidatorFormat, Severity: constants.SeverityWarning},
		},
	}}

	defs, err := svc.CollectValidators(context.Background(), docType, fields)
	if err != nil {
		t.Fatalf("CollectValidators: %v", err)
	}
	if len(defs) != 3 {
		t.Fatalf("collected %d validators, want 3 (1 active standalone + 2 synthesized)", len(defs))
	}
	if defs[0].Code != "total_positive" {
		t.Errorf("standalone validator missing, got %q", defs[0].Code)
	}
	if defs[1].Code != "total_range" {
		t.Errorf("synthesized code = %q, want total_range", defs[1].Code)
	}
	if defs[1].Severity != constants.SeverityError {
		t.Errorf("unspecified rule severity = %s, want the error default", defs[1].Severity)
	}
	if defs[2].Severity != constants.SeverityWarning {
		t.Errorf("explicit rule severity = %s, want warning", defs[2].Severity)
	}
	if len(defs[1].ApplicableFields) != 1 || defs[1].ApplicableFields[0] != "total" {
		t.Errorf("synthesized validator must target its field, got %v", defs[1].ApplicableFields)
	}
}

func TestCollectValidatorsNilDocType(t *testing.T) {
	svc := NewService(NewEngine(nil), &fakeLoader{}, nil)
	defs, err := svc.CollectValidators(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("CollectValidators: %v", err)
	}
	if len(defs) != 0 {
		t.Errorf("collected %d validators, want 0", len(defs))
	}
}

func TestScore(t *testing.T) {
	if got := Score(nil); got != 1.0 {
		t.Errorf("Score(nil) = %v, want 1.0", got)
	}
	results := []entity.ValidationResult{
		{Passed: true},
		{Passed: true},
		{Passed: false},
		{Passed: false},
	}
	if got := Score(results); got != 0.5 {
		t.Errorf("Score = %v, want 0.5", got)
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid(nil) {
		t.Error("no results means valid")
	}
	warnOnly := []entity.ValidationResult{
		{Passed: true, Severity: constants.SeverityError},
		{Passed: false, Severity: constants.SeverityWarning},
		{Passed: false, Severity: constants.SeverityInfo},
	}
	if !IsValid(warnOnly) {
		t.Error("failed warnings and infos never invalidate a document")
	}
	withError := append(warnOnly, entity.ValidationResult{Passed: false, Severity: constants.SeverityError})
	if IsValid(withError) {
		t.Error("a failed error-severity validator invalidates the document")
	}
}

func TestValidateRunsEveryDefinition(t *testing.T) {
	svc := NewService(NewEngine(nil, NewRequiredHandler()), &fakeLoader{}, nil)
	defs := []*entity.ValidatorDefinition{
		testDef(constants.ValidatorRequired, nil, "present"),
		testDef(constants.ValidatorRequired, nil, "missing"),
		testDef(constants.ValidatorVisual, nil), // no handler registered
	}

	results := svc.Validate(context.Background(), defs, fieldsTarget(map[string]any{"present": "x"}))
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if !results[0].Passed || results[1].Passed || results[2].Passed {
		t.Errorf("pass pattern = %v/%v/%v, want true/false/false",
			results[0].Passed, results[1].Passed, results[2].Passed)
	}
}
