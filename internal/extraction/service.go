package extraction

import (
	"context"
	"log/slog"

	"github.com/fireflysoft/intellidoc/internal/common"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

// Extractor pulls target schema field values out of document pages.
type Extractor interface {
	ExtractFields(ctx context.Context, pages []entity.PageImage, fields []*entity.CatalogField, instructions string) (*entity.ExtractionResult, error)
}

// Service wraps the extractor with catalog-default backfill: fields the
// extractor could not find but that carry a catalog default are filled
// in with that default at confidence 1.0.
type Service struct {
	extractor Extractor
	log       *slog.Logger
}

func NewService(extractor Extractor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{extractor: extractor, log: logger}
}

// Extract runs the extractor and backfills defaults. An empty target
// schema skips the extractor entirely and returns an empty result.
func (s *Service) Extract(ctx context.Context, pages []entity.PageImage, fields []*entity.CatalogField, instructions string) (*entity.ExtractionResult, error) {
	if len(fields) == 0 {
		return &entity.ExtractionResult{
			ExtractedFields: map[string]any{},
			Confidence:      map[string]float64{},
		}, nil
	}

	result, err := s.extractor.ExtractFields(ctx, pages, fields, instructions)
	if err != nil {
		return nil, common.WrapAppError(common.CodeExtraction, "field extraction failed", err)
	}
	if result.ExtractedFields == nil {
		result.ExtractedFields = map[string]any{}
	}
	if result.Confidence == nil {
		result.Confidence = map[string]float64{}
	}

	backfilled := ApplyDefaults(result, fields)
	s.log.Info("pipeline.extract.done",
		"fields_requested", len(fields),
		"fields_extracted", len(result.ExtractedFields),
		"defaults_applied", backfilled,
		"tokens_used", result.TokensUsed)
	return result, nil
}

// ApplyDefaults fills missing keys from catalog defaults at confidence
// 1.0. Keys the extractor produced are never overwritten, so the pass is
// idempotent. Returns how many defaults were applied.
func ApplyDefaults(result *entity.ExtractionResult, fields []*entity.CatalogField) int {
	applied := 0
	for _, f := range fields {
		if f.DefaultVal == nil {
			continue
		}
		if _, ok := result.ExtractedFields[f.Code]; ok {
			continue
		}
		result.ExtractedFields[f.Code] = f.DefaultVal
		result.Confidence[f.Code] = 1.0
		applied++
	}
	return applied
}
