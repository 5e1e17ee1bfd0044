package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/common"
)

// Per-type JSON Schemas for validator config objects. Configs are checked
// against these at catalog-write time so that misconfigured validators
// fail at creation instead of at pipeline runtime.
var validatorConfigSchemas = map[constants.ValidatorType]map[string]any{
	constants.ValidatorFormat: {
		"type": "object",
		"properties": map[string]any{
			"pattern": map[string]any{"type": "string"},
			"format":  map[string]any{"type": "string", "enum": []any{"date", "email", "phone", "currency", "iban"}},
		},
	},
	constants.ValidatorRange: {
		"type": "object",
		"properties": map[string]any{
			"min":    map[string]any{"type": "number"},
			"max":    map[string]any{"type": "number"},
			"after":  map[string]any{"type": "string"},
			"before": map[string]any{"type": "string"},
		},
	},
	constants.ValidatorRequired: {
		"type": "object",
		"properties": map[string]any{
			"condition": map[string]any{"type": "string"},
		},
	},
	constants.ValidatorCrossField: {
		"type": "object",
		"properties": map[string]any{
			"fields":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"total_field": map[string]any{"type": "string"},
			"rule":        map[string]any{"type": "string", "enum": []any{"match", "sum", "date_order"}},
		},
	},
	constants.ValidatorVisual: {
		"type": "object",
		"properties": map[string]any{
			"prompt":   map[string]any{"type": "string"},
			"expected": map[string]any{"type": "string"},
		},
	},
	constants.ValidatorBusinessRule: {
		"type": "object",
		"properties": map[string]any{
			"expression": map[string]any{"type": "string"},
		},
	},
	constants.ValidatorCompleteness: {
		"type": "object",
		"properties": map[string]any{
			"min_pages":          map[string]any{"type": "integer"},
			"min_fields_percent": map[string]any{"type": "number"},
		},
	},
	constants.ValidatorChecksum: {
		"type": "object",
		"properties": map[string]any{
			"algorithm": map[string]any{"type": "string", "enum": []any{"luhn", "mod97"}},
		},
	},
	constants.ValidatorLookup: {
		"type": "object",
		"properties": map[string]any{
			"source": map[string]any{"type": "string"},
			"field":  map[string]any{"type": "string"},
		},
	},
}

var compiledConfigSchemas = func() map[constants.ValidatorType]*jsonschema.Schema {
	out := make(map[constants.ValidatorType]*jsonschema.Schema, len(validatorConfigSchemas))
	for vt, raw := range validatorConfigSchemas {
		b, err := json.Marshal(raw)
		if err != nil {
			panic(fmt.Sprintf("marshal config schema for %s: %v", vt, err))
		}
		compiler := jsonschema.NewCompiler()
		url := fmt.Sprintf("validator-%s.json", vt)
		if err := compiler.AddResource(url, bytes.NewReader(b)); err != nil {
			panic(fmt.Sprintf("add config schema for %s: %v", vt, err))
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			panic(fmt.Sprintf("compile config schema for %s: %v", vt, err))
		}
		out[vt] = schema
	}
	return out
}()

// ConfigSchemaFor returns the raw config schema for a validator type,
// nil when the type is unknown.
func ConfigSchemaFor(vt constants.ValidatorType) map[string]any {
	return validatorConfigSchemas[vt]
}

// ValidateValidatorConfig checks a validator config object against the
// schema for its type.
func ValidateValidatorConfig(vt constants.ValidatorType, config map[string]any) error {
	schema, ok := compiledConfigSchemas[vt]
	if !ok {
		return common.NewAppError(common.CodeValidatorConfig,
			fmt.Sprintf("unknown validator type: %s", vt),
			map[string]any{"validator_type": string(vt)})
	}
	if config == nil {
		return nil
	}
	// Round-trip to plain JSON values so schema validation sees the same
	// shapes it would over the wire.
	b, err := json.Marshal(config)
	if err != nil {
		return common.WrapAppError(common.CodeValidatorConfig, "config is not JSON-serializable", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return common.WrapAppError(common.CodeValidatorConfig, "config is not JSON-serializable", err)
	}
	if err := schema.Validate(v); err != nil {
		return common.WrapAppError(common.CodeValidatorConfig,
			fmt.Sprintf("config does not match schema for validator type %s", vt), err)
	}
	return nil
}
