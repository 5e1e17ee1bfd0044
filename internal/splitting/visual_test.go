package splitting

import (
	"context"
	"errors"
	"testing"

	"github.com/fireflysoft/intellidoc/internal/entity"
)

type scriptedDetector struct {
	// newDocAt marks page numbers where a new document starts.
	newDocAt map[int]bool
	err      error
}

func (d *scriptedDetector) DetectBoundary(_ context.Context, _, next entity.PageImage) (bool, float64, string, error) {
	if d.err != nil {
		return false, 0, "", d.err
	}
	if d.newDocAt[next.PageNumber] {
		return true, 0.85, "letterhead change", nil
	}
	return false, 0.95, "", nil
}

func TestVisualStrategySplitsAtDetectedBoundaries(t *testing.T) {
	s := NewVisualStrategy(&scriptedDetector{newDocAt: map[int]bool{3: true}})

	result, err := s.Split(context.Background(), pages(4))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(result.Boundaries) != 2 {
		t.Fatalf("boundaries = %d, want 2", len(result.Boundaries))
	}
	if b := result.Boundaries[0]; b.StartPage != 1 || b.EndPage != 2 {
		t.Errorf("first document = %d-%d, want 1-2", b.StartPage, b.EndPage)
	}
	if b := result.Boundaries[1]; b.StartPage != 3 || b.EndPage != 4 {
		t.Errorf("second document = %d-%d, want 3-4", b.StartPage, b.EndPage)
	}
}

func TestVisualStrategySinglePageSkipsDetection(t *testing.T) {
	s := NewVisualStrategy(&scriptedDetector{err: errors.New("must not be called")})

	result, err := s.Split(context.Background(), pages(1))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(result.Boundaries) != 1 || result.Boundaries[0].EndPage != 1 {
		t.Errorf("boundaries = %+v, want one single-page document", result.Boundaries)
	}
}

func TestVisualStrategyPropagatesDetectorErrors(t *testing.T) {
	s := NewVisualStrategy(&scriptedDetector{err: errors.New("model timeout")})
	if _, err := s.Split(context.Background(), pages(3)); err == nil {
		t.Error("detector failure must propagate")
	}
}

func TestVisualStrategyNoBoundariesMeansOneDocument(t *testing.T) {
	s := NewVisualStrategy(&scriptedDetector{})
	result, err := s.Split(context.Background(), pages(5))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(result.Boundaries) != 1 {
		t.Fatalf("boundaries = %d, want 1", len(result.Boundaries))
	}
	if b := result.Boundaries[0]; b.StartPage != 1 || b.EndPage != 5 {
		t.Errorf("boundary = %d-%d, want 1-5", b.StartPage, b.EndPage)
	}
}
