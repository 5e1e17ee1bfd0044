package results

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/common"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

// Service is the application layer over the result store: job lifecycle
// writes, result assembly and cancellation.
type Service struct {
	store Store
	log   *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, log: logger}
}

// CreateJobParams is the caller-supplied identity of a new job.
type CreateJobParams struct {
	SourceType      string
	SourceReference string
	Filename        string
	TenantID        string
	CorrelationID   string
	Tags            map[string]string
}

// CreateJob registers a new PENDING job.
func (s *Service) CreateJob(ctx context.Context, params CreateJobParams) (*entity.ProcessingJob, error) {
	now := time.Now().UTC()
	job := &entity.ProcessingJob{
		ID:               uuid.New(),
		SourceType:       params.SourceType,
		SourceReference:  params.SourceReference,
		OriginalFilename: params.Filename,
		Status:           constants.JobStatusPending,
		TenantID:         params.TenantID,
		CorrelationID:    params.CorrelationID,
		Tags:             params.Tags,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.SaveJob(ctx, job); err != nil {
		return nil, common.WrapAppError(common.CodeStorage, "cannot persist job", err)
	}
	s.log.Info("pipeline.job.created", "job_id", job.ID, "source_type", job.SourceType)
	return job, nil
}

func (s *Service) GetJob(ctx context.Context, id uuid.UUID) (*entity.ProcessingJob, error) {
	job, err := s.store.FindJobByID(ctx, id)
	if err != nil {
		return nil, common.WrapAppError(common.CodeStorage, "cannot load job", err)
	}
	if job == nil {
		return nil, common.NewJobNotFound(id.String())
	}
	return job, nil
}

func (s *Service) ListJobs(ctx context.Context, filter JobFilter) ([]*entity.ProcessingJob, int, error) {
	return s.store.FindJobs(ctx, filter)
}

func (s *Service) DeleteJob(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetJob(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteJob(ctx, id)
}

// UpdateJob persists the job as-is, stamping lifecycle timestamps:
// StartedAt on the first transition out of PENDING, CompletedAt and
// duration when a terminal status lands.
func (s *Service) UpdateJob(ctx context.Context, job *entity.ProcessingJob) error {
	now := time.Now().UTC()
	job.UpdatedAt = now
	if job.Status != constants.JobStatusPending && job.StartedAt == nil {
		started := now
		job.StartedAt = &started
	}
	if job.Status.IsTerminal() && job.CompletedAt == nil {
		completed := now
		job.CompletedAt = &completed
		if job.StartedAt != nil {
			job.ProcessingDurationMS = completed.Sub(*job.StartedAt).Milliseconds()
		}
		if job.ProgressPercent < 100 {
			job.ProgressPercent = 100
		}
	}
	if err := s.store.UpdateJob(ctx, job); err != nil {
		return common.WrapAppError(common.CodeStorage, "cannot update job", err)
	}
	return nil
}

// CancelJob overwrites the job status with CANCELLED. A concurrently
// finishing pipeline may still write its own terminal status afterwards;
// last writer wins and callers should treat cancellation as best effort.
func (s *Service) CancelJob(ctx context.Context, id uuid.UUID) (*entity.ProcessingJob, error) {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status.IsTerminal() {
		return job, nil
	}
	job.Status = constants.JobStatusCancelled
	job.CurrentStep = "cancelled"
	if err := s.UpdateJob(ctx, job); err != nil {
		return nil, err
	}
	s.log.Info("pipeline.job.cancelled", "job_id", id)
	return job, nil
}

// SaveDocument persists one document result, banding its overall
// confidence before the write.
func (s *Service) SaveDocument(ctx context.Context, doc *entity.DocumentResult) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if doc.OverallConfidence == "" {
		doc.OverallConfidence = constants.ConfidenceFromScore(
			OverallScore(doc.ClassificationConfidence, doc.DocumentTypeCode != "", doc.ValidationScore))
	}
	if err := s.store.SaveDocumentResult(ctx, doc); err != nil {
		return common.WrapAppError(common.CodeStorage, "cannot persist document result", err)
	}
	return nil
}

// OverallScore blends classification confidence and validation score
// into one number: the mean of the signals that actually carry
// information. An unclassified document contributes no classification
// signal; a perfect validation run carries none either. No signals at
// all means nothing argued against the document, which scores 1.0.
func OverallScore(classificationConf float64, classified bool, validationScore float64) float64 {
	var signals []float64
	if classified {
		signals = append(signals, classificationConf)
	}
	if validationScore < 1.0 {
		signals = append(signals, validationScore)
	}
	if len(signals) == 0 {
		return 1.0
	}
	var sum float64
	for _, v := range signals {
		sum += v
	}
	return sum / float64(len(signals))
}

// GetResult assembles the full processing result for a job: the job row,
// its document results and the aggregate summary. The result's overall
// confidence is the worst band across documents.
func (s *Service) GetResult(ctx context.Context, jobID uuid.UUID) (*entity.ProcessingResult, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	docs, err := s.store.FindDocumentResults(ctx, jobID)
	if err != nil {
		return nil, common.WrapAppError(common.CodeStorage, "cannot load document results", err)
	}

	result := &entity.ProcessingResult{
		Job:               job,
		Documents:         docs,
		OverallConfidence: constants.ConfidenceHigh,
	}
	if len(docs) == 0 {
		result.OverallConfidence = constants.ConfidenceVeryLow
	}
	for _, doc := range docs {
		result.TotalFieldsExtracted += len(doc.ExtractedFields)
		for _, vr := range doc.ValidationResults {
			switch {
			case vr.Passed:
				result.TotalValidationsPassed++
			case vr.Severity == constants.SeverityWarning:
				result.TotalValidationsWarned++
			default:
				result.TotalValidationsFailed++
			}
		}
		if doc.OverallConfidence.Rank() < result.OverallConfidence.Rank() {
			result.OverallConfidence = doc.OverallConfidence
		}
	}
	return result, nil
}

// Analytics returns the aggregate summary over all stored jobs.
func (s *Service) Analytics(ctx context.Context) (*AnalyticsSummary, error) {
	return s.store.Analytics(ctx)
}
