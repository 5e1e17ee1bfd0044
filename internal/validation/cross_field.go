package validation

import (
	"context"
	"fmt"
	"math"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

// sumTolerance absorbs rounding noise when line items are compared
// against an extracted total.
const sumTolerance = 0.01

// CrossFieldHandler checks consistency between fields. Supported rules:
// "match" (all listed fields equal), "sum" (listed fields add up to
// total_field), "date_order" (listed date fields ascend).
type CrossFieldHandler struct{}

func NewCrossFieldHandler() *CrossFieldHandler { return &CrossFieldHandler{} }

func (h *CrossFieldHandler) Type() constants.ValidatorType { return constants.ValidatorCrossField }

func (h *CrossFieldHandler) Validate(_ context.Context, def *entity.ValidatorDefinition, target *Target) (*entity.ValidationResult, error) {
	rule := configString(def.Config, "rule")
	fields := configStrings(def.Config, "fields")
	if len(fields) == 0 {
		fields = def.ApplicableFields
	}
	if len(fields) < 2 && rule != "sum" {
		return nil, fmt.Errorf("cross_field validator %s needs at least two fields", def.Code)
	}

	switch rule {
	case "match":
		return checkMatch(fields, target)
	case "sum":
		total := configString(def.Config, "total_field")
		if total == "" {
			return nil, fmt.Errorf("cross_field sum validator %s has no total_field", def.Code)
		}
		return checkSum(fields, total, target)
	case "date_order":
		return checkDateOrder(fields, target)
	default:
		return nil, fmt.Errorf("unknown cross_field rule %q", rule)
	}
}

func checkMatch(fields []string, target *Target) (*entity.ValidationResult, error) {
	var first string
	var firstField string
	for i, code := range fields {
		v, ok := target.Fields[code]
		if !ok || isEmpty(v) {
			continue
		}
		s, _ := asString(v)
		if i == 0 || firstField == "" {
			first, firstField = s, code
			continue
		}
		if s != first {
			r := fail(code, fmt.Sprintf("field %s (%s) does not match %s (%s)", code, s, firstField, first))
			r.ExpectedValue = first
			r.ActualValue = s
			return r, nil
		}
	}
	return pass("fields match"), nil
}

func checkSum(fields []string, totalField string, target *Target) (*entity.ValidationResult, error) {
	totalVal, ok := target.Fields[totalField]
	if !ok || isEmpty(totalVal) {
		return pass("total field absent, nothing to reconcile"), nil
	}
	total, ok := asFloat(totalVal)
	if !ok {
		return fail(totalField, fmt.Sprintf("total field %s is not numeric", totalField)), nil
	}

	var sum float64
	for _, code := range fields {
		v, ok := target.Fields[code]
		if !ok || isEmpty(v) {
			continue
		}
		n, ok := asFloat(v)
		if !ok {
			return fail(code, fmt.Sprintf("field %s is not numeric", code)), nil
		}
		sum += n
	}

	if math.Abs(sum-total) > sumTolerance {
		r := fail(totalField, fmt.Sprintf("fields sum to %.2f but %s is %.2f", sum, totalField, total))
		r.ExpectedValue = fmt.Sprintf("%.2f", sum)
		r.ActualValue = fmt.Sprintf("%.2f", total)
		return r, nil
	}
	return pass("sum reconciles with total"), nil
}

func checkDateOrder(fields []string, target *Target) (*entity.ValidationResult, error) {
	var prev struct {
		code string
		set  bool
		t    int64
	}
	for _, code := range fields {
		v, ok := target.Fields[code]
		if !ok || isEmpty(v) {
			continue
		}
		d, ok := asDate(v)
		if !ok {
			return fail(code, fmt.Sprintf("field %s is not a date", code)), nil
		}
		if prev.set && d.Unix() < prev.t {
			return fail(code, fmt.Sprintf("field %s date precedes %s", code, prev.code)), nil
		}
		prev.code, prev.t, prev.set = code, d.Unix(), true
	}
	return pass("dates in order"), nil
}
