package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/common"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS processing_jobs (
	id TEXT PRIMARY KEY,
	source_type TEXT NOT NULL,
	source_reference TEXT NOT NULL,
	original_filename TEXT NOT NULL,
	file_size_bytes INTEGER NOT NULL DEFAULT 0,
	mime_type TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	current_step TEXT NOT NULL DEFAULT '',
	progress_percent REAL NOT NULL DEFAULT 0,
	total_pages INTEGER NOT NULL DEFAULT 0,
	total_documents_detected INTEGER NOT NULL DEFAULT 0,
	documents_processed INTEGER NOT NULL DEFAULT 0,
	documents_succeeded INTEGER NOT NULL DEFAULT 0,
	documents_failed INTEGER NOT NULL DEFAULT 0,
	started_at TEXT,
	completed_at TEXT,
	processing_duration_ms INTEGER NOT NULL DEFAULT 0,
	total_tokens_used INTEGER NOT NULL DEFAULT 0,
	total_cost_usd REAL NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	error_details TEXT NOT NULL DEFAULT '{}',
	tenant_id TEXT NOT NULL DEFAULT '',
	correlation_id TEXT NOT NULL DEFAULT '',
	tags TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON processing_jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_tenant ON processing_jobs(tenant_id);

CREATE TABLE IF NOT EXISTS document_results (
	id TEXT PRIMARY KEY,
	job_id TEXT NOT NULL REFERENCES processing_jobs(id) ON DELETE CASCADE,
	document_type_id TEXT,
	document_type_code TEXT NOT NULL DEFAULT '',
	classification_confidence REAL NOT NULL DEFAULT 0,
	classification_reasoning TEXT NOT NULL DEFAULT '',
	alternatives TEXT NOT NULL DEFAULT '[]',
	page_range_start INTEGER NOT NULL DEFAULT 0,
	page_range_end INTEGER NOT NULL DEFAULT 0,
	page_count INTEGER NOT NULL DEFAULT 0,
	extracted_fields TEXT NOT NULL DEFAULT '{}',
	extraction_confidence TEXT NOT NULL DEFAULT '{}',
	extraction_metadata TEXT NOT NULL DEFAULT '{}',
	validation_results TEXT NOT NULL DEFAULT '[]',
	is_valid INTEGER NOT NULL DEFAULT 0,
	validation_score REAL NOT NULL DEFAULT 0,
	overall_confidence TEXT NOT NULL DEFAULT '',
	quality_score REAL NOT NULL DEFAULT 0,
	processing_duration_ms INTEGER NOT NULL DEFAULT 0,
	tokens_used INTEGER NOT NULL DEFAULT 0,
	cost_usd REAL NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_docs_job ON document_results(job_id);
`

// SQLiteStore persists jobs and results in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, common.WrapAppError(common.CodeStorage, "cannot open sqlite database", err)
	}
	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, common.WrapAppError(common.CodeStorage, "cannot apply sqlite schema", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) SaveJob(ctx context.Context, job *entity.ProcessingJob) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO processing_jobs (
			id, source_type, source_reference, original_filename, file_size_bytes, mime_type,
			status, current_step, progress_percent,
			total_pages, total_documents_detected, documents_processed, documents_succeeded, documents_failed,
			started_at, completed_at, processing_duration_ms,
			total_tokens_used, total_cost_usd,
			error_message, error_details, tenant_id, correlation_id, tags,
			created_at, updated_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		jobArgs(job)...)
	return err
}

func (s *SQLiteStore) UpdateJob(ctx context.Context, job *entity.ProcessingJob) error {
	args := jobArgs(job)
	// Move id to the end for the WHERE clause.
	args = append(args[1:], args[0])
	_, err := s.db.ExecContext(ctx, `
		UPDATE processing_jobs SET
			source_type=?, source_reference=?, original_filename=?, file_size_bytes=?, mime_type=?,
			status=?, current_step=?, progress_percent=?,
			total_pages=?, total_documents_detected=?, documents_processed=?, documents_succeeded=?, documents_failed=?,
			started_at=?, completed_at=?, processing_duration_ms=?,
			total_tokens_used=?, total_cost_usd=?,
			error_message=?, error_details=?, tenant_id=?, correlation_id=?, tags=?,
			created_at=?, updated_at=?
		WHERE id=?`,
		args...)
	return err
}

func jobArgs(job *entity.ProcessingJob) []any {
	return []any{
		job.ID.String(), job.SourceType, job.SourceReference, job.OriginalFilename,
		job.FileSizeBytes, job.MIMEType,
		string(job.Status), job.CurrentStep, job.ProgressPercent,
		job.TotalPages, job.TotalDocumentsDetected, job.DocumentsProcessed,
		job.DocumentsSucceeded, job.DocumentsFailed,
		nullableTime(job.StartedAt), nullableTime(job.CompletedAt), job.ProcessingDurationMS,
		job.TotalTokensUsed, job.TotalCostUSD,
		job.ErrorMessage, marshalJSON(job.ErrorDetails), job.TenantID, job.CorrelationID,
		marshalJSON(job.Tags),
		job.CreatedAt.Format(time.RFC3339Nano), job.UpdatedAt.Format(time.RFC3339Nano),
	}
}

const jobColumns = `id, source_type, source_reference, original_filename, file_size_bytes, mime_type,
	status, current_step, progress_percent,
	total_pages, total_documents_detected, documents_processed, documents_succeeded, documents_failed,
	started_at, completed_at, processing_duration_ms,
	total_tokens_used, total_cost_usd,
	error_message, error_details, tenant_id, correlation_id, tags,
	created_at, updated_at`

func (s *SQLiteStore) FindJobByID(ctx context.Context, id uuid.UUID) (*entity.ProcessingJob, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM processing_jobs WHERE id=?`, id.String())
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return job, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*entity.ProcessingJob, error) {
	var (
		job                             entity.ProcessingJob
		idRaw, status                   string
		startedAt, completedAt          sql.NullString
		errDetails, tags                string
		createdAt, updatedAt            string
	)
	err := row.Scan(
		&idRaw, &job.SourceType, &job.SourceReference, &job.OriginalFilename,
		&job.FileSizeBytes, &job.MIMEType,
		&status, &job.CurrentStep, &job.ProgressPercent,
		&job.TotalPages, &job.TotalDocumentsDetected, &job.DocumentsProcessed,
		&job.DocumentsSucceeded, &job.DocumentsFailed,
		&startedAt, &completedAt, &job.ProcessingDurationMS,
		&job.TotalTokensUsed, &job.TotalCostUSD,
		&job.ErrorMessage, &errDetails, &job.TenantID, &job.CorrelationID, &tags,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	job.ID, err = uuid.Parse(idRaw)
	if err != nil {
		return nil, fmt.Errorf("corrupt job id %q: %w", idRaw, err)
	}
	job.Status = constants.JobStatus(status)
	job.StartedAt = parseNullableTime(startedAt)
	job.CompletedAt = parseNullableTime(completedAt)
	unmarshalJSON(errDetails, &job.ErrorDetails)
	unmarshalJSON(tags, &job.Tags)
	job.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	job.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &job, nil
}

func (s *SQLiteStore) FindJobs(ctx context.Context, filter JobFilter) ([]*entity.ProcessingJob, int, error) {
	where, args := buildJobFilter(filter)

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM processing_jobs`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + jobColumns + ` FROM processing_jobs` + where + ` ORDER BY created_at DESC`
	if filter.Size > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Size, filter.Page*filter.Size)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var jobs []*entity.ProcessingJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, job)
	}
	return jobs, total, rows.Err()
}

func buildJobFilter(filter JobFilter) (string, []any) {
	var clauses []string
	var args []any
	if filter.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, string(filter.Status))
	}
	if filter.TenantID != "" {
		clauses = append(clauses, "tenant_id=?")
		args = append(args, filter.TenantID)
	}
	if filter.CorrelationID != "" {
		clauses = append(clauses, "correlation_id=?")
		args = append(args, filter.CorrelationID)
	}
	if filter.CreatedAfter != nil {
		clauses = append(clauses, "created_at>=?")
		args = append(args, filter.CreatedAfter.Format(time.RFC3339Nano))
	}
	if filter.CreatedBefore != nil {
		clauses = append(clauses, "created_at<=?")
		args = append(args, filter.CreatedBefore.Format(time.RFC3339Nano))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *SQLiteStore) DeleteJob(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM document_results WHERE job_id=?`, id.String()); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM processing_jobs WHERE id=?`, id.String())
	return err
}

func (s *SQLiteStore) SaveDocumentResult(ctx context.Context, doc *entity.DocumentResult) error {
	var typeID any
	if doc.DocumentTypeID != nil {
		typeID = doc.DocumentTypeID.String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO document_results (
			id, job_id, document_type_id, document_type_code,
			classification_confidence, classification_reasoning, alternatives,
			page_range_start, page_range_end, page_count,
			extracted_fields, extraction_confidence, extraction_metadata,
			validation_results, is_valid, validation_score,
			overall_confidence, quality_score,
			processing_duration_ms, tokens_used, cost_usd, created_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		doc.ID.String(), doc.JobID.String(), typeID, doc.DocumentTypeCode,
		doc.ClassificationConfidence, doc.ClassificationReasoning, marshalJSON(doc.AlternativeClassifications),
		doc.PageRangeStart, doc.PageRangeEnd, doc.PageCount,
		marshalJSON(doc.ExtractedFields), marshalJSON(doc.ExtractionConfidence), marshalJSON(doc.ExtractionMetadata),
		marshalJSON(doc.ValidationResults), doc.IsValid, doc.ValidationScore,
		string(doc.OverallConfidence), doc.QualityScore,
		doc.ProcessingDurationMS, doc.TokensUsed, doc.CostUSD,
		doc.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

const docColumns = `id, job_id, document_type_id, document_type_code,
	classification_confidence, classification_reasoning, alternatives,
	page_range_start, page_range_end, page_count,
	extracted_fields, extraction_confidence, extraction_metadata,
	validation_results, is_valid, validation_score,
	overall_confidence, quality_score,
	processing_duration_ms, tokens_used, cost_usd, created_at`

func scanDoc(row rowScanner) (*entity.DocumentResult, error) {
	var (
		doc                                  entity.DocumentResult
		idRaw, jobIDRaw                      string
		typeID                               sql.NullString
		alternatives, fields, conf, meta     string
		validations, overallConf, createdAt  string
	)
	err := row.Scan(
		&idRaw, &jobIDRaw, &typeID, &doc.DocumentTypeCode,
		&doc.ClassificationConfidence, &doc.ClassificationReasoning, &alternatives,
		&doc.PageRangeStart, &doc.PageRangeEnd, &doc.PageCount,
		&fields, &conf, &meta,
		&validations, &doc.IsValid, &doc.ValidationScore,
		&overallConf, &doc.QualityScore,
		&doc.ProcessingDurationMS, &doc.TokensUsed, &doc.CostUSD, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	if doc.ID, err = uuid.Parse(idRaw); err != nil {
		return nil, fmt.Errorf("corrupt document id %q: %w", idRaw, err)
	}
	if doc.JobID, err = uuid.Parse(jobIDRaw); err != nil {
		return nil, fmt.Errorf("corrupt job id %q: %w", jobIDRaw, err)
	}
	if typeID.Valid {
		if parsed, err := uuid.Parse(typeID.String); err == nil {
			doc.DocumentTypeID = &parsed
		}
	}
	unmarshalJSON(alternatives, &doc.AlternativeClassifications)
	unmarshalJSON(fields, &doc.ExtractedFields)
	unmarshalJSON(conf, &doc.ExtractionConfidence)
	unmarshalJSON(meta, &doc.ExtractionMetadata)
	unmarshalJSON(validations, &doc.ValidationResults)
	doc.OverallConfidence = constants.DocumentConfidence(overallConf)
	doc.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &doc, nil
}

func (s *SQLiteStore) FindDocumentResults(ctx context.Context, jobID uuid.UUID) ([]entity.DocumentResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+docColumns+` FROM document_results WHERE job_id=? ORDER BY page_range_start`,
		jobID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []entity.DocumentResult
	for rows.Next() {
		doc, err := scanDoc(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStore) FindDocumentResult(ctx context.Context, id uuid.UUID) (*entity.DocumentResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+docColumns+` FROM document_results WHERE id=?`, id.String())
	doc, err := scanDoc(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return doc, err
}

func (s *SQLiteStore) Analytics(ctx context.Context) (*AnalyticsSummary, error) {
	summary := &AnalyticsSummary{
		JobsByStatus:    make(map[constants.JobStatus]int),
		DocumentsByType: make(map[string]int),
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*), SUM(total_tokens_used), SUM(total_cost_usd) FROM processing_jobs GROUP BY status`)
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

	var avgDuration sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, `
		SELECT AVG(processing_duration_ms) FROM processing_jobs
		WHERE status IN ('COMPLETED','FAILED','PARTIALLY_COMPLETED','CANCELLED')
		  AND processing_duration_ms > 0`).Scan(&avgDuration); err != nil {
		return nil, err
	}
	summary.AvgDurationMS = avgDuration.Float64

	rows, err = s.db.QueryContext(ctx,
		`SELECT document_type_code, COUNT(*) FROM document_results WHERE document_type_code != '' GROUP BY document_type_code`)
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

	var totalDocs sql.NullInt64
	var avgScore sql.NullFloat64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), AVG(validation_score) FROM document_results`).Scan(&totalDocs, &avgScore); err != nil {
		return nil, err
	}
	summary.TotalDocuments = int(totalDocs.Int64)
	summary.AvgValidationScore = avgScore.Float64
	return summary, nil
}

func marshalJSON(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func unmarshalJSON[T any](raw string, out *T) {
	if raw == "" || raw == "null" {
		return
	}
	_ = json.Unmarshal([]byte(raw), out)
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

func parseNullableTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, ns.String)
	if err != nil {
		return nil
	}
	return &t
}
