package validation

import (
	"context"
	"fmt"
	"regexp"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ().\-]{5,20}$`)
	// Currency amount with optional symbol and thousands separators.
	currencyPattern = regexp.MustCompile(`^[€$£]?\s?-?\d{1,3}([,.\s]\d{3})*([.,]\d{1,2})?$`)
	ibanPattern     = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]{11,30}$`)
)

// FormatHandler checks string fields against a regex pattern or one of
// the named formats (date, email, phone, currency, iban). Absent fields
// pass; presence is the required validator's job.
type FormatHandler struct{}

func NewFormatHandler() *FormatHandler { return &FormatHandler{} }

func (h *FormatHandler) Type() constants.ValidatorType { return constants.ValidatorFormat }

func (h *FormatHandler) Validate(_ context.Context, def *entity.ValidatorDefinition, target *Target) (*entity.ValidationResult, error) {
	pattern := configString(def.Config, "pattern")
	format := configString(def.Config, "format")

	var re *regexp.Regexp
	if pattern != "" {
		var err error
		re, err = regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
	}

	for _, code := range applicableFields(def, target) {
		v, ok := target.Fields[code]
		if !ok || isEmpty(v) {
			continue
		}
		s, ok := asString(v)
		if !ok {
			return fail(code, fmt.Sprintf("field %s is not a string-like value", code)), nil
		}
		if re != nil && !re.MatchString(s) {
			r := fail(code, fmt.Sprintf("field %s does not match pattern", code))
			r.ExpectedValue = pattern
			r.ActualValue = s
			return r, nil
		}
		if format != "" {
			if ok, reason := checkNamedFormat(format, s); !ok {
				r := fail(code, fmt.Sprintf("field %s is not a valid %s: %s", code, format, reason))
				r.ExpectedValue = format
				r.ActualValue = s
				return r, nil
			}
		}
	}
	return pass("all fields match the expected format"), nil
}

func checkNamedFormat(format, s string) (bool, string) {
	switch format {
	case "date":
		if _, ok := asDate(s); !ok {
			return false, "unrecognized date"
		}
	case "email":
		if !emailPattern.MatchString(s) {
			return false, "not an email address"
		}
	case "phone":
		if !phonePattern.MatchString(s) {
			return false, "not a phone number"
		}
	case "currency":
		if !currencyPattern.MatchString(s) {
			if _, ok := asFloat(s); !ok {
				return false, "not a currency amount"
			}
		}
	case "iban":
		normalized := normalizeIBAN(s)
		if !ibanPattern.MatchString(normalized) {
			return false, "malformed IBAN"
		}
		if !mod97Valid(normalized) {
			return false, "IBAN check digits do not verify"
		}
	default:
		return false, fmt.Sprintf("unknown format %q", format)
	}
	return true, ""
}
