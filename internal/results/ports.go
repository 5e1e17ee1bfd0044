package results

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

// JobFilter narrows job listings. Zero values mean "no filter".
type JobFilter struct {
	Status        constants.JobStatus
	TenantID      string
	CorrelationID string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Page          int
	Size          int
}

// AnalyticsSummary is an aggregate view over stored jobs and documents.
type AnalyticsSummary struct {
	TotalJobs          int                         `json:"total_jobs"`
	JobsByStatus       map[constants.JobStatus]int `json:"jobs_by_status"`
	TotalDocuments     int                         `json:"total_documents"`
	DocumentsByType    map[string]int              `json:"documents_by_type"`
	TotalTokensUsed    int                         `json:"total_tokens_used"`
	TotalCostUSD       float64                     `json:"total_cost_usd"`
	AvgDurationMS      float64                     `json:"avg_duration_ms"`
	AvgValidationScore float64                     `json:"avg_validation_score"`
}

// Store persists jobs and their document results.
// Lookup methods return (nil, nil) when the entry does not exist.
type Store interface {
	SaveJob(ctx context.Context, job *entity.ProcessingJob) error
	UpdateJob(ctx context.Context, job *entity.ProcessingJob) error
	FindJobByID(ctx context.Context, id uuid.UUID) (*entity.ProcessingJob, error)
	FindJobs(ctx context.Context, filter JobFilter) ([]*entity.ProcessingJob, int, error)
	DeleteJob(ctx context.Context, id uuid.UUID) error

	SaveDocumentResult(ctx context.Context, doc *entity.DocumentResult) error
	FindDocumentResults(ctx context.Context, jobID uuid.UUID) ([]entity.DocumentResult, error)
	FindDocumentResult(ctx context.Context, id uuid.UUID) (*entity.DocumentResult, error)

	Analytics(ctx context.Context) (*AnalyticsSummary, error)
}
