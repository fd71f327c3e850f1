package compiler

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-trace/engine/scene"
)

// ErrNilScene is returned by Compile when given a nil scene.
var ErrNilScene = errors.New("compiler: nil scene")

// UnresolvedMaterialError reports a geometry instance whose material index does not name a compiled material.
type UnresolvedMaterialError struct {
	// GeometryIndex is the position of the offending geometry in the scene.
	GeometryIndex int
	// MaterialIndex is the material index the geometry referenced.
	MaterialIndex int
}

func (e *UnresolvedMaterialError) Error() string {
	return fmt.Sprintf("compiler: geometry %d references unresolved material %d", e.GeometryIndex, e.MaterialIndex)
}

// UnsupportedVariantError reports a material, shape, or light that the compiler cannot lower into buffers.
// It matches scene.ErrUnsupportedVariant under errors.Is.
type UnsupportedVariantError struct {
	// Kind is "material", "geometry", or "light".
	Kind string
	// Index is the position of the offending element in its scene list.
	Index int
	// Value is the offending element.
	Value any
	// Reason optionally explains why a known variant was rejected.
	Reason string
}

func (e *UnsupportedVariantError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("compiler: unsupported %s %d (%T): %s", e.Kind, e.Index, e.Value, e.Reason)
	}
	return fmt.Sprintf("compiler: unsupported %s %d (%T)", e.Kind, e.Index, e.Value)
}

func (e *UnsupportedVariantError) Unwrap() error {
	return scene.ErrUnsupportedVariant
}
