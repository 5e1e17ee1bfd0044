package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fireflysoft/intellidoc/internal/entity"
)

// applicableFields resolves which field codes a validator targets: the
// definition's ApplicableFields when set, otherwise every extracted key.
func applicableFields(def *entity.ValidatorDefinition, target *Target) []string {
	if len(def.ApplicableFields) > 0 {
		return def.ApplicableFields
	}
	out := make([]string, 0, len(target.Fields))
	for code := range target.Fields {
		out = append(out, code)
	}
	return out
}

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case fmt.Stringer:
		return s.String(), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case int:
		return strconv.Itoa(s), true
	case bool:
		return strconv.FormatBool(s), true
	}
	return "", false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		cleaned := strings.TrimSpace(strings.ReplaceAll(n, ",", ""))
		if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"02/01/2006",
	"01/02/2006",
	"02.01.2006",
	"January 2, 2006",
	"2 January 2006",
}

func asDate(v any) (time.Time, bool) {
	s, ok := asString(v)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

func configString(config map[string]any, key string) string {
	if config == nil {
		return ""
	}
	if s, ok := config[key].(string); ok {
		return s
	}
	return ""
}

func configFloat(config map[string]any, key string) (float64, bool) {
	if config == nil {
		return 0, false
	}
	v, ok := config[key]
	if !ok {
		return 0, false
	}
	return asFloat(v)
}

func configStrings(config map[string]any, key string) []string {
	if config == nil {
		return nil
	}
	switch v := config[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// DefaultHandlers builds the standard handler set. The visual handler is
// included only when a checker is available.
func DefaultHandlers(checker VisualChecker, lookupSources map[string][]string) []Handler {
	handlers := []Handler{
		NewFormatHandler(),
		NewRangeHandler(),
		NewRequiredHandler(),
		NewCrossFieldHandler(),
		NewCompletenessHandler(),
		NewChecksumHandler(),
		NewBusinessRuleHandler(),
		NewLookupHandler(lookupSources),
	}
	if checker != nil {
		handlers = append(handlers, NewVisualHandler(checker))
	}
	return handlers
}

func pass(message string) *entity.ValidationResult {
	return &entity.ValidationResult{Passed: true, Message: message}
}

func fail(fieldName, message string) *entity.ValidationResult {
	return &entity.ValidationResult{Passed: false, FieldName: fieldName, Message: message}
}
