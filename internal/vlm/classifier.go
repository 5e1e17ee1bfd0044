package vlm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fireflysoft/intellidoc/internal/entity"
)

var classificationSchema = mustCompileSchema("classification", map[string]any{
	"type":     "object",
	"required": []any{"candidates"},
	"properties": map[string]any{
		"candidates": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"code", "confidence"},
				"properties": map[string]any{
					"code":       map[string]any{"type": "string"},
					"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
					"reasoning":  map[string]any{"type": "string"},
				},
			},
		},
		"reasoning": map[string]any{"type": "string"},
	},
})

type classificationReply struct {
	Candidates []struct {
		Code       string  `json:"code"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	} `json:"candidates"`
	Reasoning string `json:"reasoning"`
}

const classifySystemPrompt = `You are a document classification expert. ` +
	`You are shown pages of a single document and a list of candidate document types. ` +
	`Score how well the document matches each candidate type. ` +
	`Respond with JSON only: {"candidates":[{"code":"...","confidence":0.0-1.0,"reasoning":"..."}],"reasoning":"..."}. ` +
	`Include every candidate type in your answer, even with confidence 0.`

// ClassifyDocument scores the document's pages against the candidate
// pool. Candidates in the returned result are ordered best first and
// restricted to codes from the provided pool.
func (c *Client) ClassifyDocument(ctx context.Context, pages []entity.PageImage, candidates []*entity.DocumentType) (*entity.ClassificationResult, int, error) {
	var sb strings.Builder
	sb.WriteString("Candidate document types:\n")
	for _, dt := range candidates {
		sb.WriteString(fmt.Sprintf("- code: %s, name: %s", dt.Code, dt.Name))
		if dt.VisualDescription != "" {
			sb.WriteString(", looks like: " + dt.VisualDescription)
		}
		if len(dt.VisualCues) > 0 {
			sb.WriteString(", cues: " + strings.Join(dt.VisualCues, "; "))
		}
		if len(dt.SampleKeywords) > 0 {
			sb.WriteString(", keywords: " + strings.Join(dt.SampleKeywords, ", "))
		}
		if dt.ClassificationInstructions != "" {
			sb.WriteString(", note: " + dt.ClassificationInstructions)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nClassify the attached pages against these types.")

	var reply classificationReply
	tokens, err := c.CompleteJSON(ctx, classifySystemPrompt, sb.String(), pages, classificationSchema, &reply)
	if err != nil {
		return nil, tokens, err
	}

	byCode := make(map[string]*entity.DocumentType, len(candidates))
	for _, dt := range candidates {
		byCode[dt.Code] = dt
	}

	result := &entity.ClassificationResult{Reasoning: reply.Reasoning}
	for _, cand := range reply.Candidates {
		dt, ok := byCode[cand.Code]
		if !ok {
			// Model hallucinated a code outside the pool; drop it.
			continue
		}
		result.Candidates = append(result.Candidates, entity.ClassificationCandidate{
			DocumentTypeID:   dt.ID,
			DocumentTypeCode: dt.Code,
			Confidence:       cand.Confidence,
			Reasoning:        cand.Reasoning,
		})
	}
	sort.SliceStable(result.Candidates, func(i, j int) bool {
		return result.Candidates[i].Confidence > result.Candidates[j].Confidence
	})
	if len(result.Candidates) > 0 {
		result.BestMatch = &result.Candidates[0]
		result.Confidence = result.Candidates[0].Confidence
	}
	return result, tokens, nil
}
