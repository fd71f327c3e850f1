package renderer

import (
	"errors"
	"fmt"
)

var (
	// ErrForeignTarget is returned when a target created by one backend is handed to another.
	ErrForeignTarget = errors.New("renderer: target was not created by this backend")

	// ErrTargetAliasing is returned when a program samples the same target it renders into.
	ErrTargetAliasing = errors.New("renderer: target is both bound and rendered to")

	// ErrInvalidTargetSize is returned by CreateTarget for non-positive dimensions.
	ErrInvalidTargetSize = errors.New("renderer: target size must be positive")
)

// UnknownUniformError is returned by Program.SetUniform when no shader of the program declares the name.
type UnknownUniformError struct {
	Program string
	Name    string
}

func (e *UnknownUniformError) Error() string {
	return fmt.Sprintf("renderer: program %s declares no uniform %q", e.Program, e.Name)
}

// UniformKindError is returned when a uniform value does not fit the kind of binding that declares it,
// for example texture data bound to a storage buffer.
type UniformKindError struct {
	Program string
	Name    string
	Binding string
	Value   string
}

func (e *UniformKindError) Error() string {
	return fmt.Sprintf("renderer: program %s uniform %q is a %s binding, got %s", e.Program, e.Name, e.Binding, e.Value)
}

// MissingUniformError is returned by Backend.Render when a declared uniform has never been set.
type MissingUniformError struct {
	Program string
	Name    string
}

func (e *MissingUniformError) Error() string {
	return fmt.Sprintf("renderer: program %s uniform %q is not set", e.Program, e.Name)
}
