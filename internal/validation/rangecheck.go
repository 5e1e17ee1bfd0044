package validation

import (
	"context"
	"fmt"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

// RangeHandler checks numeric bounds (min/max) and date bounds
// (after/before) on applicable fields. Absent fields pass.
type RangeHandler struct{}

func NewRangeHandler() *RangeHandler { return &RangeHandler{} }

func (h *RangeHandler) Type() constants.ValidatorType { return constants.ValidatorRange }

func (h *RangeHandler) Validate(_ context.Context, def *entity.ValidatorDefinition, target *Target) (*entity.ValidationResult, error) {
	min, hasMin := configFloat(def.Config, "min")
	max, hasMax := configFloat(def.Config, "max")
	after := configString(def.Config, "after")
	before := configString(def.Config, "before")

	for _, code := range applicableFields(def, target) {
		v, ok := target.Fields[code]
		if !ok || isEmpty(v) {
			continue
		}

		if hasMin || hasMax {
			n, ok := asFloat(v)
			if !ok {
				return fail(code, fmt.Sprintf("field %s is not numeric", code)), nil
			}
			if hasMin && n < min {
				r := fail(code, fmt.Sprintf("field %s value %v is below minimum %v", code, n, min))
				r.ExpectedValue = fmt.Sprintf(">= %v", min)
				r.ActualValue = fmt.Sprintf("%v", n)
				return r, nil
			}
			if hasMax && n > max {
				r := fail(code, fmt.Sprintf("field %s value %v exceeds maximum %v", code, n, max))
				r.ExpectedValue = fmt.Sprintf("<= %v", max)
				r.ActualValue = fmt.Sprintf("%v", n)
				return r, nil
			}
		}

		if after != "" || before != "" {
			d, ok := asDate(v)
			if !ok {
				return fail(code, fmt.Sprintf("field %s is not a date", code)), nil
			}
			if after != "" {
				bound, ok := asDate(after)
				if !ok {
					return nil, fmt.Errorf("range validator %s has unparseable 'after' bound %q", def.Code, after)
				}
				if !d.After(bound) {
					r := fail(code, fmt.Sprintf("field %s date is not after %s", code, after))
					r.ExpectedValue = "after " + after
					return r, nil
				}
			}
			if before != "" {
				bound, ok := asDate(before)
				if !ok {
					return nil, fmt.Errorf("range validator %s has unparseable 'before' bound %q", def.Code, before)
				}
				if !d.Before(bound) {
					r := fail(code, fmt.Sprintf("field %s date is not before %s", code, before))
					r.ExpectedValue = "before " + before
					return r, nil
				}
			}
		}
	}
	return pass("all fields within range"), nil
}
