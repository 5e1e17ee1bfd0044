package validation

import (
	"context"
	"fmt"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

// VisualChecker runs one visual inspection prompt against page images.
// Implemented by the VLM client.
type VisualChecker interface {
	CheckVisual(ctx context.Context, pages []entity.PageImage, prompt, expected string) (bool, string, error)
}

// VisualHandler delegates visual checks (signatures, stamps, photo
// presence) to a vision model.
type VisualHandler struct {
	checker VisualChecker
}

func NewVisualHandler(checker VisualChecker) *VisualHandler {
	return &VisualHandler{checker: checker}
}

func (h *VisualHandler) Type() constants.ValidatorType { return constants.ValidatorVisual }

func (h *VisualHandler) Validate(ctx context.Context, def *entity.ValidatorDefinition, target *Target) (*entity.ValidationResult, error) {
	prompt := configString(def.Config, "prompt")
	if prompt == "" {
		prompt = def.VisualPrompt
	}
	if prompt == "" {
		return nil, fmt.Errorf("visual validator %s has no prompt", def.Code)
	}
	expected := configString(def.Config, "expected")
	if expected == "" {
		expected = def.VisualExpected
	}

	passed, observation, err := h.checker.CheckVisual(ctx, target.Pages, prompt, expected)
	if err != nil {
		return nil, err
	}
	if !passed {
		r := fail("", fmt.Sprintf("visual check failed: %s", observation))
		r.ExpectedValue = expected
		r.ActualValue = observation
		return r, nil
	}
	return pass("visual check passed: " + observation), nil
}
