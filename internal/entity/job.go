package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/fireflysoft/intellidoc/constants"
)

// ProcessingJob tracks the lifecycle of a single file submission through
// the pipeline, from ingestion to completion or failure.
//
// At job completion DocumentsProcessed == DocumentsSucceeded + DocumentsFailed.
// CompletedAt is set exactly when the job reaches a terminal status.
type ProcessingJob struct {
	ID uuid.UUID `json:"id"`

	// Source info
	SourceType       string `json:"source_type"`
	SourceReference  string `json:"source_reference"`
	OriginalFilename string `json:"original_filename"`
	FileSizeBytes    int64  `json:"file_size_bytes,omitempty"`
	MIMEType         string `json:"mime_type,omitempty"`

	// Processing state
	Status          constants.JobStatus `json:"status"`
	CurrentStep     string              `json:"current_step,omitempty"`
	ProgressPercent float64             `json:"progress_percent"`

	// Counters
	TotalPages             int `json:"total_pages"`
	TotalDocumentsDetected int `json:"total_documents_detected"`
	DocumentsProcessed     int `json:"documents_processed"`
	DocumentsSucceeded     int `json:"documents_succeeded"`
	DocumentsFailed        int `json:"documents_failed"`

	// Timing
	StartedAt            *time.Time `json:"started_at,omitempty"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	ProcessingDurationMS int64      `json:"processing_duration_ms"`

	// Cost tracking
	TotalTokensUsed int     `json:"total_tokens_used"`
	TotalCostUSD    float64 `json:"total_cost_usd"`

	// Error info
	ErrorMessage string         `json:"error_message,omitempty"`
	ErrorDetails map[string]any `json:"error_details,omitempty"`

	// Metadata
	TenantID      string            `json:"tenant_id,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Tags          map[string]string `json:"tags,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
