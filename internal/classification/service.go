package classification

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

// Classifier scores a document's pages against a candidate type pool.
// Returns the ordered result and the model tokens spent.
type Classifier interface {
	ClassifyDocument(ctx context.Context, pages []entity.PageImage, candidates []*entity.DocumentType) (*entity.ClassificationResult, int, error)
}

// CatalogReader is the slice of the catalog the classifier pool needs.
type CatalogReader interface {
	ListAllActiveDocumentTypes(ctx context.Context) ([]*entity.DocumentType, error)
}

// Request carries the per-job classification inputs.
type Request struct {
	// AdHocTypes are request-supplied types merged into the pool after
	// the catalog types.
	AdHocTypes []*entity.DocumentType
	// ExpectedTypeCode, when set, seeds a synthesized transient type if
	// the merged pool comes up empty; it never forces the outcome.
	ExpectedTypeCode string
	// NatureFilter narrows the merged pool to one document nature.
	NatureFilter constants.DocumentNature
}

// Service assembles the candidate pool for a document and delegates
// scoring to the classifier.
type Service struct {
	classifier Classifier
	catalog    CatalogReader
	log        *slog.Logger
}

func NewService(classifier Classifier, catalog CatalogReader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{classifier: classifier, catalog: catalog, log: logger}
}

// BuildPool gathers the candidate pool for a request from three sources
// merged in order: active catalog types, then request-supplied ad-hoc
// types, narrowed by the nature filter. When the filtered pool is empty
// and an expected-type hint exists, a single transient type is
// synthesized from the hint so binary classification against it still
// works.
func (s *Service) BuildPool(ctx context.Context, req Request) ([]*entity.DocumentType, error) {
	catalogTypes, err := s.catalog.ListAllActiveDocumentTypes(ctx)
	if err != nil {
		return nil, err
	}
	merged := append(append([]*entity.DocumentType{}, catalogTypes...), req.AdHocTypes...)

	var pool []*entity.DocumentType
	for _, dt := range merged {
		if req.NatureFilter != "" && dt.Nature != req.NatureFilter {
			continue
		}
		pool = append(pool, dt)
	}

	if len(pool) == 0 && req.ExpectedTypeCode != "" {
		pool = append(pool, synthesizeType(req.ExpectedTypeCode))
	}
	return pool, nil
}

// synthesizeType builds a transient DocumentType from an expected-type
// hint. It has no catalog id continuity and no default fields.
func synthesizeType(code string) *entity.DocumentType {
	return &entity.DocumentType{
		ID:     uuid.New(),
		Code:   code,
		Name:   titleFromCode(code),
		Nature: constants.NatureOther,
	}
}

func titleFromCode(code string) string {
	words := strings.Split(strings.ReplaceAll(code, "_", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Classify scores the pages against the request's pool. An empty pool
// short-circuits to a zero-confidence unclassified result rather than
// asking a model to pick from nothing.
func (s *Service) Classify(ctx context.Context, pages []entity.PageImage, req Request) (*entity.ClassificationResult, int, error) {
	pool, err := s.BuildPool(ctx, req)
	if err != nil {
		return nil, 0, err
	}
	if len(pool) == 0 {
		return &entity.ClassificationResult{
			Confidence: 0,
			Reasoning:  "no candidate document types available",
		}, 0, nil
	}

	result, tokens, err := s.classifier.ClassifyDocument(ctx, pages, pool)
	if err != nil {
		return nil, tokens, err
	}
	if result.BestMatch != nil {
		s.log.Info("pipeline.classify.done",
			"best_match", result.BestMatch.DocumentTypeCode,
			"confidence", result.Confidence,
			"pool_size", len(pool))
	} else {
		s.log.Info("pipeline.classify.unmatched", "pool_size", len(pool))
	}
	return result, tokens, nil
}
