package preprocessing

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/common"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

// Service converts an ingested file into per-page images with quality
// scores. A document whose overall quality falls below the configured
// threshold is rejected before any model call is spent on it.
type Service struct {
	extractor        *FitzExtractor
	qualityThreshold float64
	maxPages         int
	dpi              int
	tempDir          string
	log              *slog.Logger
}

func NewService(cfg common.PipelineConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		extractor:        NewFitzExtractor(cfg.DefaultDPI),
		qualityThreshold: cfg.QualityThreshold,
		maxPages:         cfg.MaxPagesPerFile,
		dpi:              cfg.DefaultDPI,
		tempDir:          cfg.TempDir,
		log:              logger,
	}
}

// Preprocess rasterizes the file's pages, scores each one, and fails
// with QUALITY_TOO_LOW when the document average is under threshold.
func (s *Service) Preprocess(ctx context.Context, file *entity.FileReference) (*entity.PreprocessResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, hasText, err := s.extractor.ExtractPages(file.ContentPath, s.tempDir, s.maxPages)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, common.NewAppError(common.CodePageExtraction,
			"document contains no pages", map[string]any{"filename": file.Filename})
	}

	format := constants.NormalizeExt(filepath.Ext(file.Filename))
	result := &entity.PreprocessResult{
		TotalPages:   len(raw),
		FileFormat:   format,
		IsScanned:    constants.IsImageFormat(format) || !hasText,
		HasTextLayer: hasText,
	}

	var totalQuality float64
	for i, p := range raw {
		q := scoreQuality(p.Image)
		totalQuality += q
		result.Pages = append(result.Pages, entity.PageImage{
			PageNumber:   i + 1,
			ImagePath:    p.Path,
			Width:        p.Width,
			Height:       p.Height,
			DPI:          s.dpi,
			QualityScore: q,
		})
	}
	result.OverallQuality = totalQuality / float64(len(raw))

	if result.OverallQuality < s.qualityThreshold {
		return nil, common.NewQualityTooLow(result.OverallQuality, s.qualityThreshold)
	}

	s.log.Info("pipeline.preprocess.done",
		"filename", file.Filename,
		"pages", result.TotalPages,
		"quality", result.OverallQuality,
		"has_text_layer", result.HasTextLayer)
	return result, nil
}
