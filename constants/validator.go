package constants

// ValidatorType selects which handler runs a validator definition.
type ValidatorType string

const (
	ValidatorFormat       ValidatorType = "format"
	ValidatorRange        ValidatorType = "range"
	ValidatorRequired     ValidatorType = "required"
	ValidatorCrossField   ValidatorType = "cross_field"
	ValidatorVisual       ValidatorType = "visual"
	ValidatorBusinessRule ValidatorType = "business_rule"
	ValidatorCompleteness ValidatorType = "completeness"
	ValidatorChecksum     ValidatorType = "checksum"
	ValidatorLookup       ValidatorType = "lookup"
)

// ValidatorTypes lists all known validator types.
var ValidatorTypes = []ValidatorType{
	ValidatorFormat,
	ValidatorRange,
	ValidatorRequired,
	ValidatorCrossField,
	ValidatorVisual,
	ValidatorBusinessRule,
	ValidatorCompleteness,
	ValidatorChecksum,
	ValidatorLookup,
}

// ValidatorSeverity is the severity of a validation failure.
type ValidatorSeverity string

const (
	SeverityError   ValidatorSeverity = "error"
	SeverityWarning ValidatorSeverity = "warning"
	SeverityInfo    ValidatorSeverity = "info"
)
