package validation

import (
	"context"
	"fmt"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

// RequiredHandler fails when an applicable field is absent or empty.
type RequiredHandler struct{}

func NewRequiredHandler() *RequiredHandler { return &RequiredHandler{} }

func (h *RequiredHandler) Type() constants.ValidatorType { return constants.ValidatorRequired }

func (h *RequiredHandler) Validate(_ context.Context, def *entity.ValidatorDefinition, target *Target) (*entity.ValidationResult, error) {
	var missing []string
	for _, code := range def.ApplicableFields {
		v, ok := target.Fields[code]
		if !ok || isEmpty(v) {
			missing = append(missing, code)
		}
	}
	if len(missing) > 0 {
		r := fail(missing[0], fmt.Sprintf("required field(s) missing: %v", missing))
		r.Details = map[string]any{"missing_fields": missing}
		return r, nil
	}
	return pass("all required fields present"), nil
}
