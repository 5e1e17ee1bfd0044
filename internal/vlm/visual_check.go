package vlm

import (
	"context"
	"fmt"

	"github.com/fireflysoft/intellidoc/internal/entity"
)

var visualCheckSchema = mustCompileSchema("visual-check", map[string]any{
	"type":     "object",
	"required": []any{"passed"},
	"properties": map[string]any{
		"passed":      map[string]any{"type": "boolean"},
		"observation": map[string]any{"type": "string"},
	},
})

type visualCheckReply struct {
	Passed      bool   `json:"passed"`
	Observation string `json:"observation"`
}

const visualCheckSystemPrompt = `You are a document inspection expert. ` +
	`You are shown pages of a document and a visual check to perform ` +
	`(for example: "is there a handwritten signature above the signature line"). ` +
	`Respond with JSON only: {"passed":true|false,"observation":"what you saw"}.`

// CheckVisual performs one visual validation prompt against the document
// pages. Used by visual validators.
func (c *Client) CheckVisual(ctx context.Context, pages []entity.PageImage, prompt, expected string) (bool, string, error) {
	user := "Check: " + prompt
	if expected != "" {
		user += fmt.Sprintf("\nExpected observation: %s", expected)
	}
	var reply visualCheckReply
	_, err := c.CompleteJSON(ctx, visualCheckSystemPrompt, user, pages, visualCheckSchema, &reply)
	if err != nil {
		return false, "", err
	}
	return reply.Passed, reply.Observation, nil
}
