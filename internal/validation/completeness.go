package validation

import (
	"context"
	"fmt"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

// CompletenessHandler checks that the document has enough pages and
// that enough of the target schema was actually extracted.
type CompletenessHandler struct{}

func NewCompletenessHandler() *CompletenessHandler { return &CompletenessHandler{} }

func (h *CompletenessHandler) Type() constants.ValidatorType { return constants.ValidatorCompleteness }

func (h *CompletenessHandler) Validate(_ context.Context, def *entity.ValidatorDefinition, target *Target) (*entity.ValidationResult, error) {
	if minPages, ok := configFloat(def.Config, "min_pages"); ok {
		if float64(target.PageCount) < minPages {
			r := fail("", fmt.Sprintf("document has %d page(s), expected at least %.0f", target.PageCount, minPages))
			r.ExpectedValue = fmt.Sprintf(">= %.0f pages", minPages)
			r.ActualValue = fmt.Sprintf("%d pages", target.PageCount)
			return r, nil
		}
	}

	if minPercent, ok := configFloat(def.Config, "min_fields_percent"); ok && len(target.FieldSchema) > 0 {
		extracted := 0
		for _, f := range target.FieldSchema {
			if v, ok := target.Fields[f.Code]; ok && !isEmpty(v) {
				extracted++
			}
		}
		percent := 100 * float64(extracted) / float64(len(target.FieldSchema))
		if percent < minPercent {
			r := fail("", fmt.Sprintf("only %.0f%% of target fields extracted, expected at least %.0f%%", percent, minPercent))
			r.Details = map[string]any{
				"fields_extracted": extracted,
				"fields_expected":  len(target.FieldSchema),
			}
			return r, nil
		}
	}
	return pass("document is complete"), nil
}
