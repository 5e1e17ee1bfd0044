package splitting

import (
	"context"

	"github.com/fireflysoft/intellidoc/internal/entity"
)

// WholeDocumentStrategy treats the entire file as one logical document.
// This is the default: most uploads are single documents and skipping
// detection avoids a model round-trip.
type WholeDocumentStrategy struct{}

func NewWholeDocumentStrategy() *WholeDocumentStrategy {
	return &WholeDocumentStrategy{}
}

func (s *WholeDocumentStrategy) Name() string { return "whole_document" }

func (s *WholeDocumentStrategy) Split(_ context.Context, pre *entity.PreprocessResult) (*entity.SplittingResult, error) {
	return &entity.SplittingResult{
		Boundaries: []entity.DocumentBoundary{{
			StartPage:  1,
			EndPage:    pre.TotalPages,
			Confidence: 1.0,
			Reasoning:  "whole file treated as a single document",
		}},
		Confidence: 1.0,
	}, nil
}
