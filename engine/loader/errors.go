package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-trace/engine/scene"
)

// UnknownTypeError reports a material, shape, or light whose "type" field names no known variant.
// It matches scene.ErrUnsupportedVariant under errors.Is.
type UnknownTypeError struct {
	// Kind is "material", "shape", or "light".
	Kind string
	// Index is the position of the offending entry in its list.
	Index int
	// Type is the unrecognised type name.
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown %s type %q at index %d", e.Kind, e.Type, e.Index)
}

func (e *UnknownTypeError) Unwrap() error {
	return scene.ErrUnsupportedVariant
}
