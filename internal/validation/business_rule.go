package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

// BusinessRuleHandler evaluates simple comparison expressions of the
// form "field_code OP literal" or "field_code OP other_field", with OP
// one of == != > >= < <=. Numeric comparison is used when both sides
// parse as numbers, string comparison otherwise.
type BusinessRuleHandler struct{}

func NewBusinessRuleHandler() *BusinessRuleHandler { return &BusinessRuleHandler{} }

func (h *BusinessRuleHandler) Type() constants.ValidatorType { return constants.ValidatorBusinessRule }

var comparisonOps = []string{">=", "<=", "==", "!=", ">", "<"}

func (h *BusinessRuleHandler) Validate(_ context.Context, def *entity.ValidatorDefinition, target *Target) (*entity.ValidationResult, error) {
	expr := configString(def.Config, "expression")
	if expr == "" {
		expr = def.RuleExpression
	}
	if expr == "" {
		return nil, fmt.Errorf("business_rule validator %s has no expression", def.Code)
	}

	var op string
	var idx int = -1
	for _, candidate := range comparisonOps {
		if i := strings.Index(expr, candidate); i > 0 {
			op, idx = candidate, i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("cannot parse expression %q", expr)
	}

	leftName := strings.TrimSpace(expr[:idx])
	rightRaw := strings.TrimSpace(expr[idx+len(op):])

	leftVal, ok := target.Fields[leftName]
	if !ok || isEmpty(leftVal) {
		return pass(fmt.Sprintf("field %s absent, rule not applicable", leftName)), nil
	}

	var rightVal any = strings.Trim(rightRaw, `"'`)
	if v, ok := target.Fields[rightRaw]; ok {
		rightVal = v
	}

	holds, err := compare(leftVal, rightVal, op)
	if err != nil {
		return nil, fmt.Errorf("expression %q: %w", expr, err)
	}
	if !holds {
		r := fail(leftName, fmt.Sprintf("rule %q does not hold", expr))
		r.ActualValue, _ = asString(leftVal)
		r.ExpectedValue = fmt.Sprintf("%s %v", op, rightVal)
		return r, nil
	}
	return pass(fmt.Sprintf("rule %q holds", expr)), nil
}

func compare(left, right any, op string) (bool, error) {
	lf, lok := asFloat(left)
	rf, rok := asFloat(right)
	if lok && rok {
		switch op {
		case "==":
			return lf == rf, nil
		case "!=":
			return lf != rf, nil
		case ">":
			return lf > rf, nil
		case ">=":
			return lf >= rf, nil
		case "<":
			return lf < rf, nil
		case "<=":
			return lf <= rf, nil
		}
	}

	ls, _ := asString(left)
	rs, _ := asString(right)
	switch op {
	case "==":
		return ls == rs, nil
	case "!=":
		return ls != rs, nil
	case ">", ">=", "<", "<=":
		return false, fmt.Errorf("ordering comparison needs numeric operands")
	}
	return false, fmt.Errorf("unknown operator %q", op)
}
