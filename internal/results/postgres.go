package results

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/common"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS processing_jobs (
	id UUID PRIMARY KEY,
	source_type TEXT NOT NULL,
	source_reference TEXT NOT NULL,
	original_filename TEXT NOT NULL,
	file_size_bytes BIGINT NOT NULL DEFAULT 0,
	mime_type TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	current_step TEXT NOT NULL DEFAULT '',
	progress_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_pages INT NOT NULL DEFAULT 0,
	total_documents_detected INT NOT NULL DEFAULT 0,
	documents_processed INT NOT NULL DEFAULT 0,
	documents_succeeded INT NOT NULL DEFAULT 0,
	documents_failed INT NOT NULL DEFAULT 0,
	started_at TIMESTAMPTZ,
	completed_at TIMESTAMPTZ,
	processing_duration_ms BIGINT NOT NULL DEFAULT 0,
	total_tokens_used INT NOT NULL DEFAULT 0,
	total_cost_usd DOUBLE PRECISION NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	error_details JSONB NOT NULL DEFAULT '{}',
	tenant_id TEXT NOT NULL DEFAULT '',
	correlation_id TEXT NOT NULL DEFAULT '',
	tags JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON processing_jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_tenant ON processing_jobs(tenant_id);

CREATE TABLE IF NOT EXISTS document_results (
	id UUID PRIMARY KEY,
	job_id UUID NOT NULL REFERENCES processing_jobs(id) ON DELETE CASCADE,
	document_type_id UUID,
	document_type_code TEXT NOT NULL DEFAULT '',
	classification_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	classification_reasoning TEXT NOT NULL DEFAULT '',
	alternatives JSONB NOT NULL DEFAULT '[]',
	page_range_start INT NOT NULL DEFAULT 0,
	page_range_end INT NOT NULL DEFAULT 0,
	page_count INT NOT NULL DEFAULT 0,
	extracted_fields JSONB NOT NULL DEFAULT '{}',
	extraction_confidence JSONB NOT NULL DEFAULT '{}',
	extraction_metadata JSONB NOT NULL DEFAULT '{}',
	validation_results JSONB NOT NULL DEFAULT '[]',
	is_valid BOOLEAN NOT NULL DEFAULT FALSE,
	validation_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	overall_confidence TEXT NOT NULL DEFAULT '',
	quality_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	processing_duration_ms BIGINT NOT NULL DEFAULT 0,
	tokens_used INT NOT NULL DEFAULT 0,
	cost_usd DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_docs_job ON document_results(job_id);
`

// PostgresStore persists jobs and results in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, cfg common.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, common.WrapAppError(common.CodeStorage, "invalid database DSN", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, poolCfg)
	if err != nil {
		return nil, common.WrapAppError(common.CodeStorage, "cannot connect to database", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, common.WrapAppError(common.CodeStorage, "cannot apply database schema", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() { s.pool.Close() }

func (s *PostgresStore) SaveJob(ctx context.Context, job *entity.ProcessingJob) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO processing_jobs (
			id, source_type, source_reference, original_filename, file_size_bytes, mime_type,
			status, current_step, progress_percent,
			total_pages, total_documents_detected, documents_processed, documents_succeeded, documents_failed,
			started_at, completed_at, processing_duration_ms,
			total_tokens_used, total_cost_usd,
			error_message, error_details, tenant_id, correlation_id, tags,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26)`,
		pgJobArgs(job)...)
	return err
}

func (s *PostgresStore) UpdateJob(ctx context.Context, job *entity.ProcessingJob) error {
	args := pgJobArgs(job)
	_, err := s.pool.Exec(ctx, `
		UPDATE processing_jobs SET
			source_type=$2, source_reference=$3, original_filename=$4, file_size_bytes=$5, mime_type=$6,
			status=$7, current_step=$8, progress_percent=$9,
			total_pages=$10, total_documents_detected=$11, documents_processed=$12,
			documents_succeeded=$13, documents_failed=$14,
			started_at=$15, completed_at=$16, processing_duration_ms=$17,
			total_tokens_used=$18, total_cost_usd=$19,
			error_message=$20, error_details=$21, tenant_id=$22, correlation_id=$23, tags=$24,
			created_at=$25, updated_at=$26
		WHERE id=$1`,
		args...)
	return err
}

func pgJobArgs(job *entity.ProcessingJob) []any {
	details := job.ErrorDetails
	if details == nil {
		details = map[string]any{}
	}
	tags := job.Tags
	if tags == nil {
		tags = map[string]string{}
	}
	return []any{
		job.ID, job.SourceType, job.SourceReference, job.OriginalFilename,
		job.FileSizeBytes, job.MIMEType,
		string(job.Status), job.CurrentStep, job.ProgressPercent,
		job.TotalPages, job.TotalDocumentsDetected, job.DocumentsProcessed,
		job.DocumentsSucceeded, job.DocumentsFailed,
		job.StartedAt, job.CompletedAt, job.ProcessingDurationMS,
		job.TotalTokensUsed, job.TotalCostUSD,
		job.ErrorMessage, details, job.TenantID, job.CorrelationID, tags,
		job.CreatedAt, job.UpdatedAt,
	}
}

func (s *PostgresStore) FindJobByID(ctx context.Context, id uuid.UUID) (*entity.ProcessingJob, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM processing_jobs WHERE id=$1`, id)
	job, err := scanPGJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return job, err
}

func scanPGJob(row pgx.Row) (*entity.ProcessingJob, error) {
	var (
		job    entity.ProcessingJob
		status string
	)
	err := row.Scan(
		&job.ID, &job.SourceType, &job.SourceReference, &job.OriginalFilename,
		&job.FileSizeBytes, &job.MIMEType,
		&status, &job.CurrentStep, &job.ProgressPercent,
		&job.TotalPages, &job.TotalDocumentsDetected, &job.DocumentsProcessed,
		&job.DocumentsSucceeded, &job.DocumentsFailed,
		&job.StartedAt, &job.CompletedAt, &job.ProcessingDurationMS,
		&job.TotalTokensUsed, &job.TotalCostUSD,
		&job.ErrorMessage, &job.ErrorDetails, &job.TenantID, &job.CorrelationID, &job.Tags,
		&job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	job.Status = constants.JobStatus(status)
	return &job, nil
}

func (s *PostgresStore) FindJobs(ctx context.Context, filter JobFilter) ([]*entity.ProcessingJob, int, error) {
	where, args := buildPGJobFilter(filter)

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM processing_jobs`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + jobColumns + ` FROM processing_jobs` + where + ` ORDER BY created_at DESC`
	if filter.Size > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Size, filter.Page*filter.Size)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var jobs []*entity.ProcessingJob
	for rows.Next() {
		job, err := scanPGJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, job)
	}
	return jobs, total, rows.Err()
}

func buildPGJobFilter(filter JobFilter) (string, []any) {
	var clauses []string
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if filter.Status != "" {
		add("status=$%d", string(filter.Status))
	}
	if filter.TenantID != "" {
		add("tenant_id=$%d", filter.TenantID)
	}
	if filter.CorrelationID != "" {
		add("correlation_id=$%d", filter.CorrelationID)
	}
	if filter.CreatedAfter != nil {
		add("created_at>=$%d", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		add("created_at<=$%d", *filter.CreatedBefore)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *PostgresStore) DeleteJob(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM processing_jobs WHERE id=$1`, id)
	return err
}

func (s *PostgresStore) SaveDocumentResult(ctx context.Context, doc *entity.DocumentResult) error {
	fields := doc.ExtractedFields
	if fields == nil {
		fields = map[string]any{}
	}
	conf := doc.ExtractionConfidence
	if conf == nil {
		conf = map[string]float64{}
	}
	meta := doc.ExtractionMetadata
	if meta == nil {
		meta = map[string]any{}
	}
	alternatives := doc.AlternativeClassifications
	if alternatives == nil {
		alternatives = []entity.AlternativeClassification{}
	}
	validations := doc.ValidationResults
	if validations == nil {
		validations = []entity.ValidationResult{}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO document_results (
			id, job_id, document_type_id, document_type_code,
			classification_confidence, classification_reasoning, alternatives,
			page_range_start, page_range_end, page_count,
			extracted_fields, extraction_confidence, extraction_metadata,
			validation_results, is_valid, validation_score,
			overall_confidence, quality_score,
			processing_duration_ms, tokens_used, cost_usd, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`,
		doc.ID, doc.JobID, doc.DocumentTypeID, doc.DocumentTypeCode,
		doc.ClassificationConfidence, doc.ClassificationReasoning, alternatives,
		doc.PageRangeStart, doc.PageRangeEnd, doc.PageCount,
		fields, conf, meta,
		validations, doc.IsValid, doc.ValidationScore,
		string(doc.OverallConfidence), doc.QualityScore,
		doc.ProcessingDurationMS, doc.TokensUsed, doc.CostUSD, doc.CreatedAt,
	)
	return err
}

func scanPGDoc(row pgx.Row) (*entity.DocumentResult, error) {
	var (
		doc         entity.DocumentResult
		overallConf string
	)
	err := row.Scan(
		&doc.ID, &doc.JobID, &doc.DocumentTypeID, &doc.DocumentTypeCode,
		&doc.ClassificationConfidence, &doc.ClassificationReasoning, &doc.AlternativeClassifications,
		&doc.PageRangeStart, &doc.PageRangeEnd, &doc.PageCount,
		&doc.ExtractedFields, &doc.ExtractionConfidence, &doc.ExtractionMetadata,
		&doc.ValidationResults, &doc.IsValid, &doc.ValidationScore,
		&overallConf, &doc.QualityScore,
		&doc.ProcessingDurationMS, &doc.TokensUsed, &doc.CostUSD, &doc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.OverallConfidence = constants.DocumentConfidence(overallConf)
	return &doc, nil
}

func (s *PostgresStore) FindDocumentResults(ctx context.Context, jobID uuid.UUID) ([]entity.DocumentResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+docColumns+` FROM document_results WHERE job_id=$1 ORDER BY page_range_start`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []entity.DocumentResult
	for rows.Next() {
		doc, err := scanPGDoc(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func (s *PostgresStore) FindDocumentResult(ctx context.Context, id uuid.UUID) (*entity.DocumentResult, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+docColumns+` FROM document_results WHERE id=$1`, id)
	doc, err := scanPGDoc(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return doc, err
}

func (s *PostgresStore) Analytics(ctx context.Context) (*AnalyticsSummary, error) {
	summary := &AnalyticsSummary{
		JobsByStatus:    make(map[constants.JobStatus]int),
		DocumentsByType: make(map[string]int),
	}

	rows, err := s.pool.Query(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(total_tokens_used),0), COALESCE(SUM(total_cost_usd),0)
		FROM processing_jobs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var status string
		var count, tokens int
		var cost float64
		if err := rows.Scan(&status, &count, &tokens, &cost); err != nil {
			rows.Close()
			return nil, err
		}
		summary.JobsByStatus[constants.JobStatus(status)] = count
		summary.TotalJobs += count
		summary.TotalTokensUsed += tokens
		summary.TotalCostUSD += cost
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(AVG(processing_duration_ms),0) FROM processing_jobs
		WHERE status IN ('COMPLETED','FAILED','PARTIALLY_COMPLETED','CANCELLED')
		  AND processing_duration_ms > 0`).Scan(&summary.AvgDurationMS); err != nil {
		return nil, err
	}

	rows, err = s.pool.Query(ctx, `
		SELECT document_type_code, COUNT(*) FROM document_results
		WHERE document_type_code != '' GROUP BY document_type_code`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var code string
		var count int
		if err := rows.Scan(&code, &count); err != nil {
			rows.Close()
			return nil, err
		}
		summary.DocumentsByType[code] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(AVG(validation_score),0) FROM document_results`).
		Scan(&summary.TotalDocuments, &summary.AvgValidationScore); err != nil {
		return nil, err
	}
	return summary, nil
}
