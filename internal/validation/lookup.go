package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

// LookupHandler validates field values against named reference sets
// registered at construction (currency codes, country codes, internal
// vendor lists). Lookups are case-insensitive.
type LookupHandler struct {
	sources map[string]map[string]struct{}
}

func NewLookupHandler(sources map[string][]string) *LookupHandler {
	h := &LookupHandler{sources: make(map[string]map[string]struct{}, len(sources))}
	for name, values := range sources {
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			set[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
		}
		h.sources[name] = set
	}
	return h
}

// RegisterSource adds or replaces a reference set.
func (h *LookupHandler) RegisterSource(name string, values []string) {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
	}
	h.sources[name] = set
}

func (h *LookupHandler) Type() constants.ValidatorType { return constants.ValidatorLookup }

func (h *LookupHandler) Validate(_ context.Context, def *entity.ValidatorDefinition, target *Target) (*entity.ValidationResult, error) {
	sourceName := configString(def.Config, "source")
	if sourceName == "" {
		return nil, fmt.Errorf("lookup validator %s has no source configured", def.Code)
	}
	set, ok := h.sources[sourceName]
	if !ok {
		return nil, fmt.Errorf("unknown lookup source %q", sourceName)
	}

	fields := def.ApplicableFields
	if fieldOverride := configString(def.Config, "field"); fieldOverride != "" {
		fields = []string{fieldOverride}
	}
	if len(fields) == 0 {
		fields = applicableFields(def, target)
	}

	for _, code := range fields {
		v, ok := target.Fields[code]
		if !ok || isEmpty(v) {
			continue
		}
		s, ok := asString(v)
		if !ok {
			return fail(code, fmt.Sprintf("field %s is not a string-like value", code)), nil
		}
		if _, found := set[strings.ToLower(strings.TrimSpace(s))]; !found {
			r := fail(code, fmt.Sprintf("field %s value %q is not in lookup source %q", code, s, sourceName))
			r.ActualValue = s
			return r, nil
		}
	}
	return pass("all values found in lookup source"), nil
}
