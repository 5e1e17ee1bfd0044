package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/fireflysoft/intellidoc/constants"
)

// FieldValidationRule is a validation rule embedded on a catalog field.
// It reuses the standalone validator type/severity vocabulary so that
// field-level rules run through the same validation engine.
type FieldValidationRule struct {
	RuleType constants.ValidatorType     `json:"rule_type" yaml:"rule_type"`
	Severity constants.ValidatorSeverity `json:"severity" yaml:"severity"`
	Config   map[string]any              `json:"config,omitempty" yaml:"config,omitempty"`
	Message  string                      `json:"message,omitempty" yaml:"message,omitempty"`
}

// CatalogField is a reusable field definition in the fields catalog.
// Fields are referenced by code from document types and request-time
// target schemas, never embedded by value into a job.
type CatalogField struct {
	ID          uuid.UUID           `json:"id" yaml:"id,omitempty"`
	Code        string              `json:"code" yaml:"code"`
	DisplayName string              `json:"display_name" yaml:"display_name"`
	FieldType   constants.FieldType `json:"field_type" yaml:"field_type"`
	Description string              `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool                `json:"required" yaml:"required"`
	DefaultVal  any                 `json:"default_value,omitempty" yaml:"default_value,omitempty"`

	// Validation hints
	FormatPattern string   `json:"format_pattern,omitempty" yaml:"format_pattern,omitempty"`
	MinValue      *float64 `json:"min_value,omitempty" yaml:"min_value,omitempty"`
	MaxValue      *float64 `json:"max_value,omitempty" yaml:"max_value,omitempty"`
	AllowedValues []string `json:"allowed_values,omitempty" yaml:"allowed_values,omitempty"`

	// Table-specific column definitions (self-referential).
	TableColumns []CatalogField `json:"table_columns,omitempty" yaml:"table_columns,omitempty"`

	LocationHint string `json:"location_hint,omitempty" yaml:"location_hint,omitempty"`

	ValidationRules []FieldValidationRule `json:"validation_rules,omitempty" yaml:"validation_rules,omitempty"`

	Tags     []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	IsActive bool     `json:"is_active" yaml:"is_active"`

	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// DocumentType is a registered document category in the catalog: how the
// document looks, what to extract from it, and how to validate it.
type DocumentType struct {
	ID          uuid.UUID                `json:"id" yaml:"id,omitempty"`
	Code        string                   `json:"code" yaml:"code"`
	Name        string                   `json:"name" yaml:"name"`
	Description string                   `json:"description,omitempty" yaml:"description,omitempty"`
	Nature      constants.DocumentNature `json:"nature" yaml:"nature"`

	// Visual identification
	VisualDescription string   `json:"visual_description,omitempty" yaml:"visual_description,omitempty"`
	VisualCues        []string `json:"visual_cues,omitempty" yaml:"visual_cues,omitempty"`
	SampleKeywords    []string `json:"sample_keywords,omitempty" yaml:"sample_keywords,omitempty"`

	// Classification
	ClassificationInstructions string  `json:"classification_instructions,omitempty" yaml:"classification_instructions,omitempty"`
	ConfidenceThreshold        float64 `json:"classification_confidence_threshold" yaml:"classification_confidence_threshold,omitempty"`

	// Extraction
	DefaultFieldCodes      []string `json:"default_field_codes,omitempty" yaml:"default_field_codes,omitempty"`
	ExtractionInstructions string   `json:"extraction_instructions,omitempty" yaml:"extraction_instructions,omitempty"`

	// Validation
	ValidatorIDs []uuid.UUID `json:"validator_ids,omitempty" yaml:"validator_ids,omitempty"`

	Version            string   `json:"version" yaml:"version,omitempty"`
	IsActive           bool     `json:"is_active" yaml:"is_active"`
	Tags               []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	SupportedLanguages []string `json:"supported_languages,omitempty" yaml:"supported_languages,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// ValidatorDefinition is a reusable validation rule in the catalog.
type ValidatorDefinition struct {
	ID            uuid.UUID                   `json:"id" yaml:"id,omitempty"`
	Code          string                      `json:"code" yaml:"code"`
	Name          string                      `json:"name" yaml:"name"`
	Description   string                      `json:"description,omitempty" yaml:"description,omitempty"`
	ValidatorType constants.ValidatorType     `json:"validator_type" yaml:"validator_type"`
	Severity      constants.ValidatorSeverity `json:"severity" yaml:"severity"`

	// Free-form configuration whose schema depends on ValidatorType.
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`

	// Applicability filters
	ApplicableNatures       []constants.DocumentNature `json:"applicable_natures,omitempty" yaml:"applicable_natures,omitempty"`
	ApplicableDocumentTypes []uuid.UUID                `json:"applicable_document_types,omitempty" yaml:"applicable_document_types,omitempty"`
	ApplicableFields        []string                   `json:"applicable_fields,omitempty" yaml:"applicable_fields,omitempty"`

	// Visual validator config
	VisualPrompt   string `json:"visual_prompt,omitempty" yaml:"visual_prompt,omitempty"`
	VisualExpected string `json:"visual_expected,omitempty" yaml:"visual_expected,omitempty"`

	// Business rule config
	RuleExpression string `json:"rule_expression,omitempty" yaml:"rule_expression,omitempty"`

	IsActive bool   `json:"is_active" yaml:"is_active"`
	Version  string `json:"version" yaml:"version,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}
