package shader

import (
	"errors"
	"fmt"
)

// ErrUnresolvedPlaceholder reports a count placeholder that survived specialization.
var ErrUnresolvedPlaceholder = errors.New("placeholder left unresolved")

// MissingPlaceholderError reports a placeholder that was expected but appears in neither shader stage.
type MissingPlaceholderError struct {
	Placeholder string
}

func (e *MissingPlaceholderError) Error() string {
	return fmt.Sprintf("placeholder %s not found in any stage", e.Placeholder)
}

// ShaderSpecializationError wraps any failure while specializing one stage of a template.
type ShaderSpecializationError struct {
	// Stage is the stage being specialized, or "program" for checks spanning both stages.
	Stage string
	Err   error
}

func (e *ShaderSpecializationError) Error() string {
	return fmt.Sprintf("shader: specialize %s: %v", e.Stage, e.Err)
}

func (e *ShaderSpecializationError) Unwrap() error {
	return e.Err
}
