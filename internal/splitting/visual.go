package splitting

import (
	"context"

	"github.com/fireflysoft/intellidoc/internal/entity"
)

// BoundaryDetector decides whether two consecutive pages belong to the
// same logical document. Implemented by the VLM client.
type BoundaryDetector interface {
	// DetectBoundary inspects the transition between two page images and
	// returns whether a new document starts at the second page, with a
	// confidence and a short reasoning.
	DetectBoundary(ctx context.Context, prevPage, nextPage entity.PageImage) (newDocument bool, confidence float64, reasoning string, err error)
}

// VisualStrategy walks consecutive page pairs and asks a vision model
// where one document ends and the next begins.
type VisualStrategy struct {
	detector BoundaryDetector
}

func NewVisualStrategy(detector BoundaryDetector) *VisualStrategy {
	return &VisualStrategy{detector: detector}
}

func (s *VisualStrategy) Name() string { return "visual" }

func (s *VisualStrategy) Split(ctx context.Context, pre *entity.PreprocessResult) (*entity.SplittingResult, error) {
	if pre.TotalPages <= 1 {
		return &entity.SplittingResult{
			Boundaries: []entity.DocumentBoundary{{
				StartPage: 1, EndPage: pre.TotalPages, Confidence: 1.0,
			}},
			Confidence: 1.0,
		}, nil
	}

	var (
		boundaries []entity.DocumentBoundary
		start      = 1
		minConf    = 1.0
		reasoning  string
	)
	for i := 1; i < len(pre.Pages); i++ {
		newDoc, conf, reason, err := s.detector.DetectBoundary(ctx, pre.Pages[i-1], pre.Pages[i])
		if err != nil {
			return nil, err
		}
		if conf < minConf {
			minConf = conf
		}
		if newDoc {
			boundaries = append(boundaries, entity.DocumentBoundary{
				StartPage:  start,
				EndPage:    pre.Pages[i-1].PageNumber,
				Confidence: conf,
				Reasoning:  reasoning,
			})
			start = pre.Pages[i].PageNumber
			reasoning = reason
		}
	}
	boundaries = append(boundaries, entity.DocumentBoundary{
		StartPage:  start,
		EndPage:    pre.TotalPages,
		Confidence: minConf,
		Reasoning:  reasoning,
	})

	return &entity.SplittingResult{Boundaries: boundaries, Confidence: minConf}, nil
}
