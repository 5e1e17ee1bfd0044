package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/common"
	"github.com/fireflysoft/intellidoc/internal/entity"
	"github.com/fireflysoft/intellidoc/internal/results"
)

// Catalog is the slice of the catalog service the orchestrator needs
// for classification gating and field resolution.
type Catalog interface {
	TypeResolver
	ListAllActiveDocumentTypes(ctx context.Context) ([]*entity.DocumentType, error)
	ResolveFields(ctx context.Context, codes []string) ([]*entity.CatalogField, error)
	DefaultFieldsFor(ctx context.Context, documentTypeID uuid.UUID) ([]*entity.CatalogField, error)
}

// Orchestrator drives the job lifecycle state machine: required stages
// in sequence, then per-document fan-out with partial-failure
// containment.
type Orchestrator struct {
	cfg     common.PipelineConfig
	results *results.Service
	catalog Catalog

	ingest     Stage
	preprocess Stage
	split      Stage
	classify   Stage
	extract    Stage
	validate   Stage
	persist    Stage

	log *slog.Logger
}

// Stages bundles the seven pipeline stages for construction.
type Stages struct {
	Ingestion      Stage
	Preprocessing  Stage
	Splitting      Stage
	Classification Stage
	Extraction     Stage
	Validation     Stage
	Persistence    Stage
}

func NewOrchestrator(cfg common.PipelineConfig, resultSvc *results.Service, catalog Catalog, stages Stages, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cfg:        cfg,
		results:    resultSvc,
		catalog:    catalog,
		ingest:     stages.Ingestion,
		preprocess: stages.Preprocessing,
		split:      stages.Splitting,
		classify:   stages.Classification,
		extract:    stages.Extraction,
		validate:   stages.Validation,
		persist:    stages.Persistence,
		log:        logger,
	}
}

// Process runs the full pipeline synchronously and returns the
// aggregated result. A required-stage failure marks the job FAILED and
// surfaces as a PIPELINE_EXECUTION_ERROR; no partial result is returned.
func (o *Orchestrator) Process(ctx context.Context, req Request) (*entity.ProcessingResult, error) {
	job, err := o.createJob(ctx, req)
	if err != nil {
		return nil, err
	}
	pc := NewContext(job.ID, common.NewTraceID(), req)

	if err := o.runPipeline(ctx, pc, job); err != nil {
		o.failJob(ctx, job, err)
		return nil, common.WrapAppError(common.CodePipelineExecution,
			fmt.Sprintf("pipeline failed for job %s", job.ID), err)
	}

	result, err := o.results.GetResult(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	result.PipelineTraceID = pc.TraceID
	return result, nil
}

// Submit creates the job and runs the pipeline in the background,
// returning the job id immediately for polling. Background failures are
// recorded on the job only; there is no caller to propagate them to.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (uuid.UUID, error) {
	job, err := o.createJob(ctx, req)
	if err != nil {
		return uuid.Nil, err
	}
	pc := NewContext(job.ID, common.NewTraceID(), req)

	go func() {
		// Detached from the caller's context: the submitter returning
		// must not cancel the job.
		bgCtx := context.Background()
		if err := o.runPipeline(bgCtx, pc, job); err != nil {
			o.log.Error("pipeline.background.failed", "job_id", job.ID, "error", err)
			o.failJob(bgCtx, job, err)
		}
	}()
	return job.ID, nil
}

func (o *Orchestrator) createJob(ctx context.Context, req Request) (*entity.ProcessingJob, error) {
	return o.results.CreateJob(ctx, results.CreateJobParams{
		SourceType:      req.SourceType,
		SourceReference: req.SourceReference,
		Filename:        req.Filename,
		TenantID:        req.TenantID,
		CorrelationID:   req.CorrelationID,
		Tags:            req.Tags,
	})
}

func (o *Orchestrator) failJob(ctx context.Context, job *entity.ProcessingJob, cause error) {
	job.Status = constants.JobStatusFailed
	job.ErrorMessage = cause.Error()
	var app *common.AppError
	if errors.As(cause, &app) && app.Context != nil {
		job.ErrorDetails = app.Context
	}
	if err := o.results.UpdateJob(ctx, job); err != nil {
		o.log.Error("pipeline.job.fail_update_failed", "job_id", job.ID, "error", err)
	}
}

func (o *Orchestrator) runPipeline(ctx context.Context, pc *Context, job *entity.ProcessingJob) error {
	log := o.log.With("job_id", job.ID, "trace_id", pc.TraceID)

	// Required stages: any failure aborts the whole job.
	if err := o.updateStatus(ctx, job, constants.JobStatusIngesting, "ingest", 10); err != nil {
		return err
	}
	if err := o.ingest.Execute(ctx, pc); err != nil {
		return err
	}
	if pc.FileReference != nil {
		job.FileSizeBytes = pc.FileReference.FileSizeBytes
		job.MIMEType = pc.FileReference.MIMEType
	}

	if err := o.updateStatus(ctx, job, constants.JobStatusPreprocessing, "preprocess", 20); err != nil {
		return err
	}
	if err := o.preprocess.Execute(ctx, pc); err != nil {
		return err
	}
	if pc.Preprocessing != nil {
		job.TotalPages = pc.Preprocessing.TotalPages
	}

	if err := o.updateStatus(ctx, job, constants.JobStatusSplitting, "split", 30); err != nil {
		return err
	}
	if err := o.split.Execute(ctx, pc); err != nil {
		return err
	}
	if pc.Splitting != nil {
		job.TotalDocumentsDetected = pc.Splitting.TotalDocumentsDetected
	}

	// Per-document fan-out with partial-failure containment.
	if pc.Splitting != nil && pc.Preprocessing != nil {
		totalDocs := pc.Splitting.TotalDocumentsDetected
		if totalDocs < 1 {
			totalDocs = 1
		}

		shouldClassify, err := o.shouldClassify(ctx, pc)
		if err != nil {
			return err
		}

		for i, boundary := range pc.Splitting.Boundaries {
			pc.ResetDocument(i, boundary)
			docProgress := 40 + 50*float64(i)/float64(totalDocs)

			if err := o.processDocument(ctx, pc, job, shouldClassify, docProgress); err != nil {
				log.Error("pipeline.document.failed",
					"doc_index", i,
					"pages", fmt.Sprintf("%d-%d", boundary.StartPage, boundary.EndPage),
					"error", err)
				job.DocumentsFailed++
			} else {
				job.DocumentsSucceeded++
			}
			job.DocumentsProcessed++
			job.TotalTokensUsed += pc.Doc.TokensUsed
		}
	}

	var final constants.JobStatus
	switch {
	case job.DocumentsFailed > 0 && job.DocumentsSucceeded > 0:
		final = constants.JobStatusPartiallyCompleted
	case job.DocumentsFailed > 0:
		final = constants.JobStatusFailed
	default:
		final = constants.JobStatusCompleted
	}
	log.Info("pipeline.done",
		"status", final,
		"documents_processed", job.DocumentsProcessed,
		"documents_failed", job.DocumentsFailed)
	return o.updateStatus(ctx, job, final, "complete", 100)
}

// processDocument runs the per-document stage sequence. Any error is
// contained by the caller: this document fails, the others continue.
func (o *Orchestrator) processDocument(ctx context.Context, pc *Context, job *entity.ProcessingJob, shouldClassify bool, docProgress float64) error {
	if shouldClassify {
		if err := o.updateStatus(ctx, job, constants.JobStatusClassifying, "classify", docProgress); err != nil {
			return err
		}
		if err := o.classify.Execute(ctx, pc); err != nil {
			return err
		}
	}

	if err := o.resolveFields(ctx, pc); err != nil {
		return err
	}

	if len(pc.Doc.ResolvedFields) > 0 {
		if err := o.updateStatus(ctx, job, constants.JobStatusExtracting, "extract", docProgress+15); err != nil {
			return err
		}
		if err := o.extract.Execute(ctx, pc); err != nil {
			return err
		}
	}

	// Validation always runs, even with nothing extracted, so the
	// document carries an explicit verdict instead of a silent gap.
	if err := o.updateStatus(ctx, job, constants.JobStatusValidating, "validate", docProgress+30); err != nil {
		return err
	}
	if err := o.validate.Execute(ctx, pc); err != nil {
		return err
	}

	return o.persist.Execute(ctx, pc)
}

// shouldClassify is computed once per job: classification is meaningful
// when ad-hoc types were supplied, an expected type hint was given, or
// the catalog has at least one active type.
func (o *Orchestrator) shouldClassify(ctx context.Context, pc *Context) (bool, error) {
	if len(pc.AdHocDocumentTypes) > 0 || pc.ExpectedType != "" {
		return true, nil
	}
	active, err := o.catalog.ListAllActiveDocumentTypes(ctx)
	if err != nil {
		return false, err
	}
	return len(active) > 0, nil
}

// resolveFields evaluates the field resolution priority chain once per
// document:
//  1. inline fields from the request, used verbatim;
//  2. target field codes resolved against the catalog, failing loudly
//     when any code is unknown;
//  3. catalog defaults of the classified type, gated on the effective
//     confidence threshold; non-catalog type ids yield nothing.
func (o *Orchestrator) resolveFields(ctx context.Context, pc *Context) error {
	if len(pc.InlineFields) > 0 {
		pc.Doc.ResolvedFields = pc.InlineFields
		return nil
	}

	if len(pc.TargetFieldCodes) > 0 {
		fields, err := o.catalog.ResolveFields(ctx, pc.TargetFieldCodes)
		if err != nil {
			return err
		}
		pc.Doc.ResolvedFields = fields
		return nil
	}

	cr := pc.Doc.Classification
	if cr == nil || cr.BestMatch == nil {
		return nil
	}

	threshold := o.effectiveThreshold(ctx, pc)
	if cr.BestMatch.Confidence < threshold {
		o.log.Info("pipeline.resolve_fields.below_threshold",
			"job_id", pc.JobID,
			"confidence", cr.BestMatch.Confidence,
			"threshold", threshold)
		return nil
	}

	fields, err := o.catalog.DefaultFieldsFor(ctx, cr.BestMatch.DocumentTypeID)
	if err != nil {
		// Ad-hoc or synthesized type ids have no catalog entry; that
		// yields no fields rather than an error.
		if common.HasCode(err, common.CodeDocumentTypeNotFound) {
			return nil
		}
		return err
	}
	pc.Doc.ResolvedFields = fields
	return nil
}

// effectiveThreshold is the classified type's own threshold when the
// type is resolvable and configured, the global default otherwise.
func (o *Orchestrator) effectiveThreshold(ctx context.Context, pc *Context) float64 {
	if dt := resolveClassifiedType(ctx, pc, o.catalog); dt != nil && dt.ConfidenceThreshold > 0 {
		return dt.ConfidenceThreshold
	}
	return o.cfg.DefaultConfidenceThreshold
}

func (o *Orchestrator) updateStatus(ctx context.Context, job *entity.ProcessingJob, status constants.JobStatus, step string, progress float64) error {
	job.Status = status
	job.CurrentStep = step
	if progress > 100 {
		progress = 100
	}
	job.ProgressPercent = progress
	return o.results.UpdateJob(ctx, job)
}
