package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/common"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

// Source fetches file bytes from one kind of origin and stages them on
// the local filesystem for the rest of the pipeline.
type Source interface {
	Type() string
	Fetch(ctx context.Context, reference, destDir string) (*entity.FileReference, error)
}

// Service normalizes files from heterogeneous sources into local staged
// copies, enforcing the MIME allow-list and size limit on every path in.
type Service struct {
	sources   map[string]Source
	mimeTypes []string
	maxBytes  int64
	tempDir   string
	log       *slog.Logger
}

func NewService(cfg common.PipelineConfig, logger *slog.Logger, sources ...Source) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	mimes := cfg.SupportedMIMETypes
	if len(mimes) == 0 {
		mimes = constants.DefaultSupportedMIMETypes
	}
	s := &Service{
		sources:   make(map[string]Source, len(sources)),
		mimeTypes: mimes,
		maxBytes:  int64(cfg.MaxFileSizeMB) * 1024 * 1024,
		tempDir:   cfg.TempDir,
		log:       logger,
	}
	for _, src := range sources {
		s.sources[src.Type()] = src
	}
	return s
}

// RegisterSource adds a source adapter, replacing any previous adapter
// for the same type.
func (s *Service) RegisterSource(src Source) {
	s.sources[src.Type()] = src
}

// Ingest fetches the referenced file, stages it locally and verifies it
// against the allow-list and size limit.
func (s *Service) Ingest(ctx context.Context, sourceType, reference string) (*entity.FileReference, error) {
	src, ok := s.sources[strings.ToLower(sourceType)]
	if !ok {
		return nil, common.NewFileSource(sourceType, reference,
			fmt.Sprintf("no adapter registered for source type %q", sourceType))
	}

	ref, err := src.Fetch(ctx, reference, s.tempDir)
	if err != nil {
		return nil, err
	}

	if ref.MIMEType == "" {
		ref.MIMEType = constants.MIMETypeForPath(ref.Filename)
	}
	if !slices.Contains(s.mimeTypes, ref.MIMEType) {
		return nil, common.NewUnsupportedFileType(ref.MIMEType)
	}
	if s.maxBytes > 0 && ref.FileSizeBytes > s.maxBytes {
		return nil, common.NewFileTooLarge(
			float64(ref.FileSizeBytes)/(1024*1024),
			float64(s.maxBytes)/(1024*1024))
	}

	s.log.Info("pipeline.ingest.staged",
		"source_type", ref.SourceType,
		"filename", ref.Filename,
		"mime_type", ref.MIMEType,
		"size_bytes", ref.FileSizeBytes)
	return ref, nil
}
