package results

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

func saveJob(t *testing.T, store *MemoryStore, mutate func(*entity.ProcessingJob)) *entity.ProcessingJob {
	t.Helper()
	job := &entity.ProcessingJob{
		ID:        uuid.New(),
		Status:    constants.JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if mutate != nil {
		mutate(job)
	}
	if err := store.SaveJob(context.Background(), job); err != nil {
		t.Fatalf("SaveJob: %v", err)
	}
	return job
}

func TestMemoryStoreMissReturnsNil(t *testing.T) {
	store := NewMemoryStore()
	job, err := store.FindJobByID(context.Background(), uuid.New())
	if err != nil || job != nil {
		t.Errorf("miss = (%v, %v), want (nil, nil)", job, err)
	}
	doc, err := store.FindDocumentResult(context.Background(), uuid.New())
	if err != nil || doc != nil {
		t.Errorf("doc miss = (%v, %v), want (nil, nil)", doc, err)
	}
}

func TestMemoryStoreCopiesOnWriteAndRead(t *testing.T) {
	store := NewMemoryStore()
	job := saveJob(t, store, nil)

	// Mutating the caller's struct after save must not leak into the store.
	job.Status = constants.JobStatusFailed
	loaded, err := store.FindJobByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("FindJobByID: %v", err)
	}
	if loaded.Status != constants.JobStatusPending {
		t.Error("store shares memory with the caller's struct")
	}

	// Mutating a loaded copy must not change the stored value either.
	loaded.Status = constants.JobStatusCancelled
	again, _ := store.FindJobByID(context.Background(), job.ID)
	if again.Status != constants.JobStatusPending {
		t.Error("loaded job shares memory with the store")
	}
}

func TestMemoryStoreFindJobsFilterAndPagination(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		offset := time.Duration(i) * time.Minute
		status := constants.JobStatusCompleted
		if i%2 == 1 {
			status = constants.JobStatusFailed
		}
		saveJob(t, store, func(j *entity.ProcessingJob) {
			j.Status = status
			j.TenantID = "acme"
			j.CreatedAt = base.Add(offset)
		})
	}
	saveJob(t, store, func(j *entity.ProcessingJob) {
		j.Status = constants.JobStatusCompleted
		j.TenantID = "globex"
		j.CreatedAt = base.Add(time.Hour)
	})

	jobs, total, err := store.FindJobs(ctx, JobFilter{Status: constants.JobStatusFailed})
	if err != nil {
		t.Fatalf("FindJobs: %v", err)
	}
	if total != 2 || len(jobs) != 2 {
		t.Errorf("failed jobs = %d (total %d), want 2", len(jobs), total)
	}

	jobs, total, err = store.FindJobs(ctx, JobFilter{TenantID: "acme"})
	if err != nil {
		t.Fatalf("FindJobs: %v", err)
	}
	if total != 5 {
		t.Errorf("acme jobs total = %d, want 5", total)
	}
	for i := 1; i < len(jobs); i++ {
		if jobs[i].CreatedAt.After(jobs[i-1].CreatedAt) {
			t.Fatal("jobs not sorted newest first")
		}
	}

	jobs, total, err = store.FindJobs(ctx, JobFilter{TenantID: "acme", Page: 1, Size: 2})
	if err != nil {
		t.Fatalf("FindJobs: %v", err)
	}
	if total != 5 || len(jobs) != 2 {
		t.Errorf("page 1 size 2 = %d jobs (total %d), want 2 of 5", len(jobs), total)
	}

	jobs, _, err = store.FindJobs(ctx, JobFilter{TenantID: "acme", Page: 9, Size: 2})
	if err != nil || len(jobs) != 0 {
		t.Errorf("out-of-range page = %d jobs, want 0", len(jobs))
	}
}

func TestMemoryStoreAnalytics(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	j1 := saveJob(t, store, func(j *entity.ProcessingJob) {
		j.Status = constants.JobStatusCompleted
		j.TotalTokensUsed = 1000
		j.ProcessingDurationMS = 2000
	})
	saveJob(t, store, func(j *entity.ProcessingJob) {
		j.Status = constants.JobStatusFailed
		j.TotalTokensUsed = 500
		j.ProcessingDurationMS = 1000
	})

	docs := []entity.DocumentResult{
		{ID: uuid.New(), JobID: j1.ID, DocumentTypeCode: "invoice", ValidationScore: 1.0},
		{ID: uuid.New(), JobID: j1.ID, DocumentTypeCode: "invoice", ValidationScore: 0.5},
		{ID: uuid.New(), JobID: j1.ID, ValidationScore: 0.9},
	}
	for i := range docs {
		if err := store.SaveDocumentResult(ctx, &docs[i]); err != nil {
			t.Fatalf("SaveDocumentResult: %v", err)
		}
	}

	summary, err := store.Analytics(ctx)
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if summary.TotalJobs != 2 || summary.TotalDocuments != 3 {
		t.Errorf("totals = %d jobs / %d docs, want 2/3", summary.TotalJobs, summary.TotalDocuments)
	}
	if summary.JobsByStatus[constants.JobStatusCompleted] != 1 {
		t.Errorf("jobs by status = %v", summary.JobsByStatus)
	}
	if summary.DocumentsByType["invoice"] != 2 {
		t.Errorf("documents by type = %v", summary.DocumentsByType)
	}
	if summary.TotalTokensUsed != 1500 {
		t.Errorf("tokens = %d, want 1500", summary.TotalTokensUsed)
	}
	if summary.AvgDurationMS != 1500 {
		t.Errorf("avg duration = %v, want 1500 across both terminal jobs", summary.AvgDurationMS)
	}
	if got := summary.AvgValidationScore; got < 0.79 || got > 0.81 {
		t.Errorf("avg validation score = %v, want 0.8", got)
	}
}

func TestMemoryStoreDeleteJobCascades(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	job := saveJob(t, store, nil)
	if err := store.SaveDocumentResult(ctx, &entity.DocumentResult{ID: uuid.New(), JobID: job.ID}); err != nil {
		t.Fatalf("SaveDocumentResult: %v", err)
	}

	if err := store.DeleteJob(ctx, job.ID); err != nil {
		t.Fatalf("DeleteJob: %v", err)
	}
	docs, err := store.FindDocumentResults(ctx, job.ID)
	if err != nil {
		t.Fatalf("FindDocumentResults: %v", err)
	}
	if len(docs) != 0 {
		t.Error("document results survived job deletion")
	}
}
