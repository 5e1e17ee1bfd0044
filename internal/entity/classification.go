package entity

import "github.com/google/uuid"

// ClassificationCandidate is one candidate type with its score.
type ClassificationCandidate struct {
	DocumentTypeID   uuid.UUID `json:"document_type_id"`
	DocumentTypeCode string    `json:"document_type_code"`
	Confidence       float64   `json:"confidence"`
	Reasoning        string    `json:"reasoning,omitempty"`
}

// ClassificationResult is the outcome of classifying one document's pages.
// Candidates are ordered best first; BestMatch, when set, is Candidates[0].
type ClassificationResult struct {
	BestMatch  *ClassificationCandidate  `json:"best_match,omitempty"`
	Candidates []ClassificationCandidate `json:"candidates,omitempty"`
	Confidence float64                   `json:"confidence"`
	Reasoning  string                    `json:"reasoning,omitempty"`
}

// ExtractionResult is the outcome of field extraction for one document.
type ExtractionResult struct {
	ExtractedFields map[string]any     `json:"extracted_fields"`
	Confidence      map[string]float64 `json:"confidence"`
	Metadata        map[string]any     `json:"metadata,omitempty"`
	TokensUsed      int                `json:"tokens_used,omitempty"`
	StrategyUsed    string             `json:"strategy_used,omitempty"`
}
