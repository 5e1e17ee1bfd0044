package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

// ChecksumHandler verifies check digits: Luhn for card/identifier
// numbers, MOD 97-10 for IBANs and structured references.
type ChecksumHandler struct{}

func NewChecksumHandler() *ChecksumHandler { return &ChecksumHandler{} }

func (h *ChecksumHandler) Type() constants.ValidatorType { return constants.ValidatorChecksum }

func (h *ChecksumHandler) Validate(_ context.Context, def *entity.ValidatorDefinition, target *Target) (*entity.ValidationResult, error) {
	algorithm := configString(def.Config, "algorithm")
	if algorithm == "" {
		return nil, fmt.Errorf("checksum validator %s has no algorithm configured", def.Code)
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

		var valid bool
		switch algorithm {
		case "luhn":
			valid = luhnValid(s)
		case "mod97":
			valid = mod97Valid(normalizeIBAN(s))
		default:
			return nil, fmt.Errorf("unknown checksum algorithm %q", algorithm)
		}
		if !valid {
			r := fail(code, fmt.Sprintf("field %s fails the %s checksum", code, algorithm))
			r.ActualValue = s
			return r, nil
		}
	}
	return pass("checksums verify"), nil
}

func luhnValid(s string) bool {
	var digits []int
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits = append(digits, int(r-'0'))
		case r == ' ' || r == '-':
			// separators allowed
		default:
			return false
		}
	}
	if len(digits) < 2 {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func normalizeIBAN(s string) string {
	return strings.ToUpper(strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(s)))
}

// mod97Valid runs the ISO 7064 MOD 97-10 check used by IBANs: move the
// first four characters to the end, expand letters to numbers (A=10..Z=35)
// and verify the whole number mod 97 equals 1.
func mod97Valid(iban string) bool {
	if len(iban) < 5 {
		return false
	}
	rearranged := iban[4:] + iban[:4]
	remainder := 0
	for _, r := range rearranged {
		var chunk int
		switch {
		case r >= '0' && r <= '9':
			chunk = int(r - '0')
			remainder = (remainder*10 + chunk) % 97
		case r >= 'A' && r <= 'Z':
			chunk = int(r-'A') + 10
			remainder = (remainder*100 + chunk) % 97
		default:
			return false
		}
	}
	return remainder == 1
}
