package vlm

import (
	"context"
	"fmt"
	"strings"

	"github.com/fireflysoft/intellidoc/internal/entity"
)

var extractionSchema = mustCompileSchema("extraction", map[string]any{
	"type":     "object",
	"required": []any{"fields"},
	"properties": map[string]any{
		"fields": map[string]any{
			"type": "object",
			"additionalProperties": map[string]any{
				"type":     "object",
				"required": []any{"value", "confidence"},
				"properties": map[string]any{
					"value":      map[string]any{},
					"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
				},
			},
		},
	},
})

type extractionReply struct {
	Fields map[string]struct {
		Value      any     `json:"value"`
		Confidence float64 `json:"confidence"`
	} `json:"fields"`
}

const extractSystemPrompt = `You are a document data extraction expert. ` +
	`You are shown pages of a single document and a target schema of fields to extract. ` +
	`Extract each field's value exactly as it appears, normalized to the requested type. ` +
	`Respond with JSON only: {"fields":{"<field_code>":{"value":...,"confidence":0.0-1.0}}}. ` +
	`Use null for fields not present in the document.`

// ExtractFields pulls the target schema's field values out of the
// document pages. Fields the model reports as null are omitted from the
// result so catalog defaults can fill them downstream.
func (c *Client) ExtractFields(ctx context.Context, pages []entity.PageImage, fields []*entity.CatalogField, instructions string) (*entity.ExtractionResult, error) {
	var sb strings.Builder
	sb.WriteString("Fields to extract:\n")
	for _, f := range fields {
		sb.WriteString(fmt.Sprintf("- code: %s, type: %s, name: %s", f.Code, f.FieldType, f.DisplayName))
		if f.Description != "" {
			sb.WriteString(", description: " + f.Description)
		}
		if f.FormatPattern != "" {
			sb.WriteString(", format: " + f.FormatPattern)
		}
		if len(f.AllowedValues) > 0 {
			sb.WriteString(", allowed: " + strings.Join(f.AllowedValues, ", "))
		}
		if f.LocationHint != "" {
			sb.WriteString(", usually found: " + f.LocationHint)
		}
		if len(f.TableColumns) > 0 {
			cols := make([]string, 0, len(f.TableColumns))
			for _, col := range f.TableColumns {
				cols = append(cols, fmt.Sprintf("%s (%s)", col.Code, col.FieldType))
			}
			sb.WriteString(", table columns: " + strings.Join(cols, ", "))
		}
		sb.WriteString("\n")
	}
	if instructions != "" {
		sb.WriteString("\nAdditional instructions: " + instructions + "\n")
	}

	var reply extractionReply
	tokens, err := c.CompleteJSON(ctx, extractSystemPrompt, sb.String(), pages, extractionSchema, &reply)
	if err != nil {
		return nil, err
	}

	result := &entity.ExtractionResult{
		ExtractedFields: make(map[string]any),
		Confidence:      make(map[string]float64),
		TokensUsed:      tokens,
		StrategyUsed:    "vlm",
	}
	for code, f := range reply.Fields {
		if f.Value == nil {
			continue
		}
		result.ExtractedFields[code] = f.Value
		result.Confidence[code] = f.Confidence
	}
	return result, nil
}
