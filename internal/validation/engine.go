package validation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

// Target is the document material a validator runs against.
type Target struct {
	Fields      map[string]any
	FieldSchema []*entity.CatalogField
	Pages       []entity.PageImage
	PageCount   int
}

// Handler executes all validators of one type.
type Handler interface {
	Type() constants.ValidatorType
	Validate(ctx context.Context, def *entity.ValidatorDefinition, target *Target) (*entity.ValidationResult, error)
}

// Engine dispatches validator definitions to type handlers. Validator
// failures never abort the run: a missing handler or a handler error
// becomes a failing result so one broken rule cannot hide the rest.
type Engine struct {
	handlers map[constants.ValidatorType]Handler
	log      *slog.Logger
}

func NewEngine(logger *slog.Logger, handlers ...Handler) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{handlers: make(map[constants.ValidatorType]Handler, len(handlers)), log: logger}
	for _, h := range handlers {
		e.handlers[h.Type()] = h
	}
	return e
}

func (e *Engine) Register(h Handler) {
	e.handlers[h.Type()] = h
}

// Run executes one validator definition against the target.
func (e *Engine) Run(ctx context.Context, def *entity.ValidatorDefinition, target *Target) entity.ValidationResult {
	base := entity.ValidationResult{
		ValidatorID:   def.ID,
		ValidatorCode: def.Code,
		ValidatorName: def.Name,
		Severity:      def.Severity,
	}

	h, ok := e.handlers[def.ValidatorType]
	if !ok {
		base.Passed = false
		base.Message = fmt.Sprintf("no handler registered for validator type %q", def.ValidatorType)
		return base
	}

	result, err := h.Validate(ctx, def, target)
	if err != nil {
		e.log.Warn("pipeline.validate.handler_error",
			"validator", def.Code, "type", def.ValidatorType, "error", err)
		base.Passed = false
		base.Message = fmt.Sprintf("validator execution failed: %v", err)
		return base
	}

	result.ValidatorID = def.ID
	result.ValidatorCode = def.Code
	result.ValidatorName = def.Name
	result.Severity = def.Severity
	if !result.Passed && result.Message == "" {
		result.Message = "validation failed"
	}
	return *result
}
