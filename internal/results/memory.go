package results

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

// MemoryStore is a map-backed Store for CLI and test use.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*entity.ProcessingJob
	docs map[uuid.UUID][]entity.DocumentResult
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[uuid.UUID]*entity.ProcessingJob),
		docs: make(map[uuid.UUID][]entity.DocumentResult),
	}
}

func (s *MemoryStore) SaveJob(_ context.Context, job *entity.ProcessingJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *MemoryStore) UpdateJob(ctx context.Context, job *entity.ProcessingJob) error {
	return s.SaveJob(ctx, job)
}

func (s *MemoryStore) FindJobByID(_ context.Context, id uuid.UUID) (*entity.ProcessingJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if job, ok := s.jobs[id]; ok {
		cp := *job
		return &cp, nil
	}
	return nil, nil
}

func (s *MemoryStore) FindJobs(_ context.Context, filter JobFilter) ([]*entity.ProcessingJob, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*entity.ProcessingJob
	for _, job := range s.jobs {
		if !matchesJobFilter(job, filter) {
			continue
		}
		cp := *job
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := len(matched)
	if filter.Size > 0 {
		start := filter.Page * filter.Size
		if start >= len(matched) {
			return nil, total, nil
		}
		end := start + filter.Size
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (s *MemoryStore) DeleteJob(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	delete(s.docs, id)
	return nil
}

func (s *MemoryStore) SaveDocumentResult(_ context.Context, doc *entity.DocumentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.JobID] = append(s.docs[doc.JobID], *doc)
	return nil
}

func (s *MemoryStore) FindDocumentResults(_ context.Context, jobID uuid.UUID) ([]entity.DocumentResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.DocumentResult, len(s.docs[jobID]))
	copy(out, s.docs[jobID])
	return out, nil
}

func (s *MemoryStore) FindDocumentResult(_ context.Context, id uuid.UUID) (*entity.DocumentResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, docs := range s.docs {
		for _, doc := range docs {
			if doc.ID == id {
				cp := doc
				return &cp, nil
			}
		}
	}
	return nil, nil
}

func (s *MemoryStore) Analytics(_ context.Context) (*AnalyticsSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &AnalyticsSummary{
		JobsByStatus:    make(map[constants.JobStatus]int),
		DocumentsByType: make(map[string]int),
	}
	var totalDuration int64
	completedJobs := 0
	for _, job := range s.jobs {
		summary.TotalJobs++
		summary.JobsByStatus[job.Status]++
		summary.TotalTokensUsed += job.TotalTokensUsed
		summary.TotalCostUSD += job.TotalCostUSD
		if job.Status.IsTerminal() && job.ProcessingDurationMS > 0 {
			totalDuration += job.ProcessingDurationMS
			completedJobs++
		}
	}
	var totalScore float64
	for _, docs := range s.docs {
		for _, doc := range docs {
			summary.TotalDocuments++
			if doc.DocumentTypeCode != "" {
				summary.DocumentsByType[doc.DocumentTypeCode]++
			}
			totalScore += doc.ValidationScore
		}
	}
	if completedJobs > 0 {
		summary.AvgDurationMS = float64(totalDuration) / float64(completedJobs)
	}
	if summary.TotalDocuments > 0 {
		summary.AvgValidationScore = totalScore / float64(summary.TotalDocuments)
	}
	return summary, nil
}

func matchesJobFilter(job *entity.ProcessingJob, filter JobFilter) bool {
	if filter.Status != "" && job.Status != filter.Status {
		return false
	}
	if filter.TenantID != "" && job.TenantID != filter.TenantID {
		return false
	}
	if filter.CorrelationID != "" && job.CorrelationID != filter.CorrelationID {
		return false
	}
	if filter.CreatedAfter != nil && job.CreatedAt.Before(*filter.CreatedAfter) {
		return false
	}
	if filter.CreatedBefore != nil && job.CreatedAt.After(*filter.CreatedBefore) {
		return false
	}
	return true
}
