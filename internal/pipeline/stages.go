package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/classification"
	"github.com/fireflysoft/intellidoc/internal/entity"
	"github.com/fireflysoft/intellidoc/internal/extraction"
	"github.com/fireflysoft/intellidoc/internal/ingestion"
	"github.com/fireflysoft/intellidoc/internal/preprocessing"
	"github.com/fireflysoft/intellidoc/internal/results"
	"github.com/fireflysoft/intellidoc/internal/splitting"
	"github.com/fireflysoft/intellidoc/internal/validation"
)

// Stage is one pipeline step: it reads upstream context fields and
// writes exactly the field(s) it owns.
type Stage interface {
	Name() string
	Execute(ctx context.Context, pc *Context) error
}

// TypeResolver loads the full catalog definition behind a
// classification match.
type TypeResolver interface {
	GetDocumentType(ctx context.Context, id uuid.UUID) (*entity.DocumentType, error)
}

// resolveClassifiedType returns the document type definition for the
// current best match: the ad-hoc pool first, then the catalog. A match
// whose id is in neither (synthesized types) resolves to nil.
func resolveClassifiedType(ctx context.Context, pc *Context, resolver TypeResolver) *entity.DocumentType {
	if pc.Doc.Classification == nil || pc.Doc.Classification.BestMatch == nil {
		return nil
	}
	id := pc.Doc.Classification.BestMatch.DocumentTypeID
	for _, dt := range pc.AdHocDocumentTypes {
		if dt.ID == id {
			return dt
		}
	}
	if resolver != nil {
		if dt, err := resolver.GetDocumentType(ctx, id); err == nil {
			return dt
		}
	}
	return nil
}

// IngestionStage stages the source file locally. Writes FileReference.
type IngestionStage struct {
	svc *ingestion.Service
}

func NewIngestionStage(svc *ingestion.Service) *IngestionStage {
	return &IngestionStage{svc: svc}
}

func (s *IngestionStage) Name() string { return "ingest" }

func (s *IngestionStage) Execute(ctx context.Context, pc *Context) error {
	ref, err := s.svc.Ingest(ctx, pc.SourceType, pc.SourceReference)
	if err != nil {
		return err
	}
	if ref.Filename == "" {
		ref.Filename = pc.Filename
	}
	pc.FileReference = ref
	return nil
}

// PreprocessingStage rasterizes and scores pages. Writes Preprocessing.
type PreprocessingStage struct {
	svc *preprocessing.Service
}

func NewPreprocessingStage(svc *preprocessing.Service) *PreprocessingStage {
	return &PreprocessingStage{svc: svc}
}

func (s *PreprocessingStage) Name() string { return "preprocess" }

func (s *PreprocessingStage) Execute(ctx context.Context, pc *Context) error {
	result, err := s.svc.Preprocess(ctx, pc.FileReference)
	if err != nil {
		return err
	}
	pc.Preprocessing = result
	return nil
}

// SplittingStage detects document boundaries. Writes Splitting.
type SplittingStage struct {
	svc *splitting.Service
}

func NewSplittingStage(svc *splitting.Service) *SplittingStage {
	return &SplittingStage{svc: svc}
}

func (s *SplittingStage) Name() string { return "split" }

func (s *SplittingStage) Execute(ctx context.Context, pc *Context) error {
	result, err := s.svc.Split(ctx, pc.SplittingStrategy, pc.Preprocessing)
	if err != nil {
		return err
	}
	pc.Splitting = result
	return nil
}

// ClassificationStage scores the current document's pages against the
// candidate pool. Writes Classification.
type ClassificationStage struct {
	svc *classification.Service
}

func NewClassificationStage(svc *classification.Service) *ClassificationStage {
	return &ClassificationStage{svc: svc}
}

func (s *ClassificationStage) Name() string { return "classify" }

func (s *ClassificationStage) Execute(ctx context.Context, pc *Context) error {
	result, tokens, err := s.svc.Classify(ctx, pc.Doc.Pages, classification.Request{
		AdHocTypes:       pc.AdHocDocumentTypes,
		ExpectedTypeCode: pc.ExpectedType,
		NatureFilter:     pc.ExpectedNature,
	})
	pc.Doc.TokensUsed += tokens
	if err != nil {
		return err
	}
	pc.Doc.Classification = result
	return nil
}

// ExtractionStage extracts the resolved field set. Writes Extraction.
type ExtractionStage struct {
	svc      *extraction.Service
	resolver TypeResolver
}

func NewExtractionStage(svc *extraction.Service, resolver TypeResolver) *ExtractionStage {
	return &ExtractionStage{svc: svc, resolver: resolver}
}

func (s *ExtractionStage) Name() string { return "extract" }

func (s *ExtractionStage) Execute(ctx context.Context, pc *Context) error {
	var instructions string
	if dt := resolveClassifiedType(ctx, pc, s.resolver); dt != nil {
		instructions = dt.ExtractionInstructions
	}
	result, err := s.svc.Extract(ctx, pc.Doc.Pages, pc.Doc.ResolvedFields, instructions)
	if err != nil {
		return err
	}
	pc.Doc.TokensUsed += result.TokensUsed
	pc.Doc.Extraction = result
	return nil
}

// ValidationStage runs the merged validator set for the current
// document. Writes ValidationResults. Always runs, even with an empty
// extraction, so every document carries a deterministic validation
// verdict.
type ValidationStage struct {
	svc      *validation.Service
	resolver TypeResolver
}

func NewValidationStage(svc *validation.Service, resolver TypeResolver) *ValidationStage {
	return &ValidationStage{svc: svc, resolver: resolver}
}

func (s *ValidationStage) Name() string { return "validate" }

func (s *ValidationStage) Execute(ctx context.Context, pc *Context) error {
	docType := resolveClassifiedType(ctx, pc, s.resolver)
	defs, err := s.svc.CollectValidators(ctx, docType, pc.Doc.ResolvedFields)
	if err != nil {
		return err
	}

	fields := map[string]any{}
	if pc.Doc.Extraction != nil && pc.Doc.Extraction.ExtractedFields != nil {
		fields = pc.Doc.Extraction.ExtractedFields
	}
	target := &validation.Target{
		Fields:      fields,
		FieldSchema: pc.Doc.ResolvedFields,
		Pages:       pc.Doc.Pages,
		PageCount:   len(pc.Doc.Pages),
	}
	pc.Doc.ValidationResults = s.svc.Validate(ctx, defs, target)
	return nil
}

// PersistenceStage assembles and stores one DocumentResult from the
// current document's context.
type PersistenceStage struct {
	svc *results.Service
}

func NewPersistenceStage(svc *results.Service) *PersistenceStage {
	return &PersistenceStage{svc: svc}
}

func (s *PersistenceStage) Name() string { return "persist" }

func (s *PersistenceStage) Execute(ctx context.Context, pc *Context) error {
	doc := &entity.DocumentResult{
		ID:             uuid.New(),
		JobID:          pc.JobID,
		PageRangeStart: pc.Doc.Boundary.StartPage,
		PageRangeEnd:   pc.Doc.Boundary.EndPage,
		PageCount:      len(pc.Doc.Pages),
		TokensUsed:     pc.Doc.TokensUsed,
		CreatedAt:      time.Now().UTC(),
	}

	if cr := pc.Doc.Classification; cr != nil && cr.BestMatch != nil {
		id := cr.BestMatch.DocumentTypeID
		doc.DocumentTypeID = &id
		doc.DocumentTypeCode = cr.BestMatch.DocumentTypeCode
		doc.ClassificationConfidence = cr.BestMatch.Confidence
		doc.ClassificationReasoning = cr.BestMatch.Reasoning
		for _, cand := range cr.Candidates[1:] {
			doc.AlternativeClassifications = append(doc.AlternativeClassifications,
				entity.AlternativeClassification{
					Code:       cand.DocumentTypeCode,
					Confidence: cand.Confidence,
					Reasoning:  cand.Reasoning,
				})
		}
	}

	if ex := pc.Doc.Extraction; ex != nil {
		doc.ExtractedFields = ex.ExtractedFields
		doc.ExtractionConfidence = ex.Confidence
		doc.ExtractionMetadata = ex.Metadata
	}

	doc.ValidationResults = pc.Doc.ValidationResults
	doc.ValidationScore = validation.Score(pc.Doc.ValidationResults)
	doc.IsValid = validation.IsValid(pc.Doc.ValidationResults)

	var quality float64
	for _, p := range pc.Doc.Pages {
		quality += p.QualityScore
	}
	if len(pc.Doc.Pages) > 0 {
		doc.QualityScore = quality / float64(len(pc.Doc.Pages))
	}

	doc.OverallConfidence = constants.ConfidenceFromScore(results.OverallScore(
		doc.ClassificationConfidence, doc.DocumentTypeCode != "", doc.ValidationScore))

	return s.svc.SaveDocument(ctx, doc)
}
