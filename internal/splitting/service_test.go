package splitting

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/fireflysoft/intellidoc/internal/common"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

type stubStrategy struct {
	name   string
	result *entity.SplittingResult
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Split(context.Context, *entity.PreprocessResult) (*entity.SplittingResult, error) {
	return s.result, nil
}

func pages(n int) *entity.PreprocessResult {
	pre := &entity.PreprocessResult{TotalPages: n}
	for i := 1; i <= n; i++ {
		pre.Pages = append(pre.Pages, entity.PageImage{PageNumber: i})
	}
	return pre
}

func TestSplitDefaultsToConfiguredStrategy(t *testing.T) {
	svc := NewService("whole_document", nil, NewWholeDocumentStrategy(), NewPageBasedStrategy(2))

	result, err := svc.Split(context.Background(), "", pages(4))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if result.StrategyUsed != "whole_document" {
		t.Errorf("strategy = %q, want the configured default", result.StrategyUsed)
	}
	if result.TotalDocumentsDetected != 1 {
		t.Errorf("documents = %d, want 1", result.TotalDocumentsDetected)
	}
	if b := result.Boundaries[0]; b.StartPage != 1 || b.EndPage != 4 {
		t.Errorf("boundary = %d-%d, want 1-4", b.StartPage, b.EndPage)
	}
}

func TestSplitUnknownStrategy(t *testing.T) {
	svc := NewService("whole_document", nil, NewWholeDocumentStrategy(), NewPageBasedStrategy(1))

	_, err := svc.Split(context.Background(), "psychic", pages(2))
	if !common.HasCode(err, common.CodeUnknownStrategy) {
		t.Fatalf("error code = %q, want SPLITTING_UNKNOWN_STRATEGY", common.ErrorCode(err))
	}
	var app *common.AppError
	if !errors.As(err, &app) {
		t.Fatal("not an AppError")
	}
	available, _ := app.Context["available"].([]string)
	if !slices.Equal(available, []string{"page_based", "whole_document"}) {
		t.Errorf("available = %v, want sorted strategy names", available)
	}
}

func TestPageBasedChunks(t *testing.T) {
	svc := NewService("page_based", nil, NewPageBasedStrategy(2))

	result, err := svc.Split(context.Background(), "page_based", pages(5))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	want := []entity.DocumentBoundary{
		{StartPage: 1, EndPage: 2},
		{StartPage: 3, EndPage: 4},
		{StartPage: 5, EndPage: 5},
	}
	if len(result.Boundaries) != len(want) {
		t.Fatalf("boundaries = %d, want %d", len(result.Boundaries), len(want))
	}
	for i, b := range result.Boundaries {
		if b.StartPage != want[i].StartPage || b.EndPage != want[i].EndPage {
			t.Errorf("boundary %d = %d-%d, want %d-%d",
				i, b.StartPage, b.EndPage, want[i].StartPage, want[i].EndPage)
		}
	}
	if result.TotalDocumentsDetected != 3 {
		t.Errorf("documents = %d, want 3", result.TotalDocumentsDetected)
	}
}

func TestNormalizeClampsOutOfRangeBoundaries(t *testing.T) {
	stub := &stubStrategy{name: "sloppy", result: &entity.SplittingResult{
		Boundaries: []entity.DocumentBoundary{
			{StartPage: -3, EndPage: 2},
			{StartPage: 3, EndPage: 99},
			{StartPage: 8, EndPage: 5}, // inverted, dropped
		},
	}}
	svc := NewService("sloppy", nil, stub)

	result, err := svc.Split(context.Background(), "sloppy", pages(4))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(result.Boundaries) != 2 {
		t.Fatalf("boundaries = %d, want 2 after dropping the inverted one", len(result.Boundaries))
	}
	if b := result.Boundaries[0]; b.StartPage != 1 || b.EndPage != 2 {
		t.Errorf("boundary 0 = %d-%d, want clamped to 1-2", b.StartPage, b.EndPage)
	}
	if b := result.Boundaries[1]; b.StartPage != 3 || b.EndPage != 4 {
		t.Errorf("boundary 1 = %d-%d, want clamped to 3-4", b.StartPage, b.EndPage)
	}
}

func TestNormalizeGuaranteesOneBoundary(t *testing.T) {
	stub := &stubStrategy{name: "empty", result: &entity.SplittingResult{}}
	svc := NewService("empty", nil, stub)

	result, err := svc.Split(context.Background(), "empty", pages(3))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(result.Boundaries) != 1 {
		t.Fatalf("boundaries = %d, want the full-range fallback", len(result.Boundaries))
	}
	if b := result.Boundaries[0]; b.StartPage != 1 || b.EndPage != 3 {
		t.Errorf("fallback boundary = %d-%d, want 1-3", b.StartPage, b.EndPage)
	}
	if result.TotalDocumentsDetected != 1 {
		t.Errorf("documents = %d, want 1", result.TotalDocumentsDetected)
	}
}

func TestAvailableSorted(t *testing.T) {
	svc := NewService("", nil,
		NewWholeDocumentStrategy(),
		NewPageBasedStrategy(1),
	)
	got := svc.Available()
	if !slices.IsSorted(got) {
		t.Errorf("Available() = %v, want sorted", got)
	}
}
