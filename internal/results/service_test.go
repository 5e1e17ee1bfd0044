package results

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/common"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

func newTestService() *Service {
	return NewService(NewMemoryStore(), nil)
}

func createJob(t *testing.T, svc *Service) *entity.ProcessingJob {
	t.Helper()
	job, err := svc.CreateJob(context.Background(), CreateJobParams{
		SourceType: "local", SourceReference: "/tmp/a.pdf", Filename: "a.pdf",
	})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	return job
}

func TestCreateJobStartsPending(t *testing.T) {
	svc := newTestService()
	job := createJob(t, svc)
	if job.Status != constants.JobStatusPending {
		t.Errorf("status = %s, want PENDING", job.Status)
	}
	if job.ID == uuid.Nil {
		t.Error("id not assigned")
	}
	if job.StartedAt != nil || job.CompletedAt != nil {
		t.Error("lifecycle timestamps must be unset at creation")
	}
}

func TestGetJobNotFound(t *testing.T) {
	svc := newTestService()
	_, err := svc.GetJob(context.Background(), uuid.New())
	if !common.HasCode(err, common.CodeJobNotFound) {
		t.Errorf("error code = %q, want JOB_NOT_FOUND", common.ErrorCode(err))
	}
}

func TestUpdateJobStampsLifecycleTimestamps(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	job := createJob(t, svc)

	job.Status = constants.JobStatusIngesting
	if err := svc.UpdateJob(ctx, job); err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}
	if job.StartedAt == nil {
		t.Fatal("StartedAt not stamped on first transition out of PENDING")
	}
	started := *job.StartedAt
	if job.CompletedAt != nil {
		t.Error("CompletedAt stamped on a non-terminal status")
	}

	job.Status = constants.JobStatusExtracting
	if err := svc.UpdateJob(ctx, job); err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}
	if !job.StartedAt.Equal(started) {
		t.Error("StartedAt changed after the first stamp")
	}

	job.Status = constants.JobStatusCompleted
	job.ProgressPercent = 95
	if err := svc.UpdateJob(ctx, job); err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}
	if job.CompletedAt == nil {
		t.Fatal("CompletedAt not stamped on terminal status")
	}
	if job.ProgressPercent != 100 {
		t.Errorf("terminal progress = %v, want forced to 100", job.ProgressPercent)
	}
	if job.ProcessingDurationMS < 0 {
		t.Errorf("duration = %d", job.ProcessingDurationMS)
	}
}

func TestCancelJob(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	job := createJob(t, svc)
	cancelled, err := svc.CancelJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("CancelJob: %v", err)
	}
	if cancelled.Status != constants.JobStatusCancelled {
		t.Errorf("status = %s, want CANCELLED", cancelled.Status)
	}

	// Cancelling a terminal job is a no-op, not an error.
	done := createJob(t, svc)
	done.Status = constants.JobStatusCompleted
	if err := svc.UpdateJob(ctx, done); err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}
	after, err := svc.CancelJob(ctx, done.ID)
	if err != nil {
		t.Fatalf("CancelJob on terminal job: %v", err)
	}
	if after.Status != constants.JobStatusCompleted {
		t.Errorf("terminal status overwritten by cancel: %s", after.Status)
	}
}

func TestOverallScore(t *testing.T) {
	for _, tc := range []struct {
		name       string
		classConf  float64
		classified bool
		valScore   float64
		want       float64
	}{
		{"no signals", 0, false, 1.0, 1.0},
		{"classification only", 0.8, true, 1.0, 0.8},
		{"validation only", 0, false, 0.5, 0.5},
		{"both signals", 0.9, true, 0.5, 0.7},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := OverallScore(tc.classConf, tc.classified, tc.valScore)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("OverallScore = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSaveDocumentBandsConfidence(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	job := createJob(t, svc)

	doc := &entity.DocumentResult{
		JobID:                    job.ID,
		DocumentTypeCode:         "invoice",
		ClassificationConfidence: 0.95,
		ValidationScore:          1.0,
	}
	if err := svc.SaveDocument(ctx, doc); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	if doc.OverallConfidence != constants.ConfidenceHigh {
		t.Errorf("confidence = %s, want HIGH", doc.OverallConfidence)
	}
	if doc.ID == uuid.Nil || doc.CreatedAt.IsZero() {
		t.Error("identity fields not backfilled")
	}
}

func TestGetResultAggregation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	job := createJob(t, svc)

	mustSave := func(doc *entity.DocumentResult) {
		t.Helper()
		doc.JobID = job.ID
		if err := svc.SaveDocument(ctx, doc); err != nil {
			t.Fatalf("SaveDocument: %v", err)
		}
	}

	mustSave(&entity.DocumentResult{
		DocumentTypeCode:         "invoice",
		ClassificationConfidence: 0.95,
		ExtractedFields:          map[string]any{"total": 10.0, "vendor": "ACME"},
		ValidationScore:          1.0,
		ValidationResults: []entity.ValidationResult{
			{Passed: true, Severity: constants.SeverityError},
			{Passed: false, Severity: constants.SeverityWarning},
		},
	})
	mustSave(&entity.DocumentResult{
		DocumentTypeCode:         "receipt",
		ClassificationConfidence: 0.55,
		ValidationScore:          0.5,
		ValidationResults: []entity.ValidationResult{
			{Passed: false, Severity: constants.SeverityError},
		},
	})

	result, err := svc.GetResult(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if len(result.Documents) != 2 {
		t.Fatalf("documents = %d, want 2", len(result.Documents))
	}
	if result.TotalFieldsExtracted != 2 {
		t.Errorf("fields extracted = %d, want 2", result.TotalFieldsExtracted)
	}
	if result.TotalValidationsPassed != 1 || result.TotalValidationsWarned != 1 || result.TotalValidationsFailed != 1 {
		t.Errorf("validation counts = %d/%d/%d, want 1/1/1",
			result.TotalValidationsPassed, result.TotalValidationsWarned, result.TotalValidationsFailed)
	}
	// Second document: mean(0.55, 0.5) = 0.525 -> LOW; worst band wins.
	if result.OverallConfidence != constants.ConfidenceLow {
		t.Errorf("overall confidence = %s, want LOW", result.OverallConfidence)
	}
}

func TestGetResultNoDocumentsIsVeryLow(t *testing.T) {
	svc := newTestService()
	job := createJob(t, svc)
	result, err := svc.GetResult(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if result.OverallConfidence != constants.ConfidenceVeryLow {
		t.Errorf("overall confidence = %s, want VERY_LOW with no documents", result.OverallConfidence)
	}
}
