package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/fireflysoft/intellidoc/constants"
)

// ValidationResult is the outcome of one validator run against one
// document's data. Never mutated after creation.
type ValidationResult struct {
	ValidatorID   uuid.UUID                   `json:"validator_id"`
	ValidatorCode string                      `json:"validator_code"`
	ValidatorName string                      `json:"validator_name,omitempty"`
	Passed        bool                        `json:"passed"`
	Severity      constants.ValidatorSeverity `json:"severity"`
	Message       string                      `json:"message,omitempty"`
	FieldName     string                      `json:"field_name,omitempty"`
	ExpectedValue string                      `json:"expected_value,omitempty"`
	ActualValue   string                      `json:"actual_value,omitempty"`
	Details       map[string]any              `json:"details,omitempty"`
}

// AlternativeClassification is a non-best classification candidate kept
// on the stored document result.
type AlternativeClassification struct {
	Code       string  `json:"code"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// DocumentResult is the processing outcome for one detected sub-document.
// Created once at the end of the document's stage sequence; append-only.
type DocumentResult struct {
	ID    uuid.UUID `json:"id"`
	JobID uuid.UUID `json:"job_id"`

	// Classification
	DocumentTypeID             *uuid.UUID                  `json:"document_type_id,omitempty"`
	DocumentTypeCode           string                      `json:"document_type_code,omitempty"`
	ClassificationConfidence   float64                     `json:"classification_confidence"`
	ClassificationReasoning    string                      `json:"classification_reasoning,omitempty"`
	AlternativeClassifications []AlternativeClassification `json:"alternative_classifications,omitempty"`

	// Pages
	PageRangeStart int `json:"page_range_start"`
	PageRangeEnd   int `json:"page_range_end"`
	PageCount      int `json:"page_count"`

	// Extraction
	ExtractedFields      map[string]any     `json:"extracted_fields,omitempty"`
	ExtractionConfidence map[string]float64 `json:"extraction_confidence,omitempty"`
	ExtractionMetadata   map[string]any     `json:"extraction_metadata,omitempty"`

	// Validation
	ValidationResults []ValidationResult `json:"validation_results,omitempty"`
	IsValid           bool               `json:"is_valid"`
	ValidationScore   float64            `json:"validation_score"`

	// Quality
	OverallConfidence constants.DocumentConfidence `json:"overall_confidence"`
	QualityScore      float64                      `json:"quality_score"`

	// Timing / cost
	ProcessingDurationMS int64   `json:"processing_duration_ms,omitempty"`
	TokensUsed           int     `json:"tokens_used,omitempty"`
	CostUSD              float64 `json:"cost_usd,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ProcessingResult aggregates a job with all of its document results.
type ProcessingResult struct {
	Job       *ProcessingJob   `json:"job"`
	Documents []DocumentResult `json:"documents"`

	// Summary
	TotalFieldsExtracted   int                          `json:"total_fields_extracted"`
	TotalValidationsPassed int                          `json:"total_validations_passed"`
	TotalValidationsFailed int                          `json:"total_validations_failed"`
	TotalValidationsWarned int                          `json:"total_validations_warned"`
	OverallConfidence      constants.DocumentConfidence `json:"overall_confidence"`

	PipelineTraceID string `json:"pipeline_trace_id,omitempty"`
}
