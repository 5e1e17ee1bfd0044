package vlm

import (
	"context"

	"github.com/fireflysoft/intellidoc/internal/entity"
)

var boundarySchema = mustCompileSchema("boundary", map[string]any{
	"type":     "object",
	"required": []any{"new_document", "confidence"},
	"properties": map[string]any{
		"new_document": map[string]any{"type": "boolean"},
		"confidence":   map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		"reasoning":    map[string]any{"type": "string"},
	},
})

type boundaryReply struct {
	NewDocument bool    `json:"new_document"`
	Confidence  float64 `json:"confidence"`
	Reasoning   string  `json:"reasoning"`
}

const boundarySystemPrompt = `You are a document analysis expert. ` +
	`You are shown two consecutive pages from a scanned file that may contain multiple documents. ` +
	`Decide whether the second page starts a NEW document (different letterhead, new page numbering, ` +
	`different form, unrelated content) or continues the first page's document. ` +
	`Respond with JSON only: {"new_document":true|false,"confidence":0.0-1.0,"reasoning":"..."}.`

// DetectBoundary asks the model whether a new document starts at the
// second of two consecutive pages.
func (c *Client) DetectBoundary(ctx context.Context, prevPage, nextPage entity.PageImage) (bool, float64, string, error) {
	var reply boundaryReply
	_, err := c.CompleteJSON(ctx, boundarySystemPrompt,
		"Does the second attached page start a new document?",
		[]entity.PageImage{prevPage, nextPage}, boundarySchema, &reply)
	if err != nil {
		return false, 0, "", err
	}
	return reply.NewDocument, reply.Confidence, reply.Reasoning, nil
}
