package pipeline

import (
	"github.com/google/uuid"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

// Request carries the immutable parameters of one pipeline submission.
type Request struct {
	SourceType      string
	SourceReference string
	Filename        string

	// Classification hints
	ExpectedType   string
	ExpectedNature constants.DocumentNature

	SplittingStrategy string

	// Target schema: inline field definitions win over catalog codes.
	InlineFields     []*entity.CatalogField
	TargetFieldCodes []string

	// AdHocDocumentTypes join the catalog types in the classification
	// pool.
	AdHocDocumentTypes []*entity.DocumentType

	TenantID      string
	CorrelationID string
	Tags          map[string]string
}

// Context is the mutable state threaded through the pipeline stages for
// one job. Stage adapters read upstream fields and write only the
// field(s) they own.
type Context struct {
	JobID   uuid.UUID
	TraceID string
	Request

	// Required-stage outputs
	FileReference *entity.FileReference
	Preprocessing *entity.PreprocessResult
	Splitting     *entity.SplittingResult

	// Doc is the current document's working state, rebuilt as a fresh
	// value on each fan-out iteration.
	Doc DocumentState
}

// DocumentState is the working state for one detected document within a
// job. ResetDocument replaces the whole value rather than clearing
// fields one by one, so a field added here can never leak between
// documents.
type DocumentState struct {
	Index             int
	Boundary          entity.DocumentBoundary
	Pages             []entity.PageImage
	Classification    *entity.ClassificationResult
	ResolvedFields    []*entity.CatalogField
	Extraction        *entity.ExtractionResult
	ValidationResults []entity.ValidationResult
	TokensUsed        int
}

// NewContext builds the context for one job.
func NewContext(jobID uuid.UUID, traceID string, req Request) *Context {
	return &Context{JobID: jobID, TraceID: traceID, Request: req}
}

// ResetDocument rebuilds the per-document state from scratch and slices
// the current document's pages out of the preprocessed page list using
// the boundary's 1-based inclusive range.
func (c *Context) ResetDocument(index int, boundary entity.DocumentBoundary) {
	c.Doc = DocumentState{Index: index, Boundary: boundary}

	if c.Preprocessing == nil {
		return
	}
	start, end := boundary.StartPage, boundary.EndPage
	if start < 1 {
		start = 1
	}
	if end > len(c.Preprocessing.Pages) {
		end = len(c.Preprocessing.Pages)
	}
	if start <= end {
		c.Doc.Pages = c.Preprocessing.Pages[start-1 : end]
	}
}
