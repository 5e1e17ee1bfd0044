package splitting

import (
	"context"
	"fmt"

	"github.com/fireflysoft/intellidoc/internal/entity"
)

// PageBasedStrategy cuts the file into fixed-size page chunks. Useful
// for batch scans where every document is a known page count.
type PageBasedStrategy struct {
	pagesPerDocument int
}

func NewPageBasedStrategy(pagesPerDocument int) *PageBasedStrategy {
	if pagesPerDocument <= 0 {
		pagesPerDocument = 1
	}
	return &PageBasedStrategy{pagesPerDocument: pagesPerDocument}
}

func (s *PageBasedStrategy) Name() string { return "page_based" }

func (s *PageBasedStrategy) Split(_ context.Context, pre *entity.PreprocessResult) (*entity.SplittingResult, error) {
	var boundaries []entity.DocumentBoundary
	for start := 1; start <= pre.TotalPages; start += s.pagesPerDocument {
		end := start + s.pagesPerDocument - 1
		if end > pre.TotalPages {
			end = pre.TotalPages
		}
		boundaries = append(boundaries, entity.DocumentBoundary{
			StartPage:  start,
			EndPage:    end,
			Confidence: 1.0,
			Reasoning:  fmt.Sprintf("fixed chunk of %d page(s)", s.pagesPerDocument),
		})
	}
	return &entity.SplittingResult{Boundaries: boundaries, Confidence: 1.0}, nil
}
