package shader

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/gogpu/naga"
)

// Count placeholders substituted into shader templates. Each is replaced by the decimal element count of its
// category.
const (
	PlaceholderRandomSeeds     = "N_RANDOM_SEEDS_"
	PlaceholderMaterialLambert = "N_MATERIAL_LAMBERT_"
	PlaceholderMaterialMirror  = "N_MATERIAL_MIRROR_"
	PlaceholderGeometrySphere  = "N_GEOMETRY_SPHERE_"
	PlaceholderGeometryPlane   = "N_GEOMETRY_PLANE_"
	PlaceholderLightingSphere  = "N_LIGHTING_SPHERE_"
)

// Placeholders lists every count placeholder the engine defines.
var Placeholders = []string{
	PlaceholderRandomSeeds,
	PlaceholderMaterialLambert,
	PlaceholderMaterialMirror,
	PlaceholderGeometrySphere,
	PlaceholderGeometryPlane,
	PlaceholderLightingSphere,
}

// Counts maps a placeholder to the count substituted for it.
type Counts map[string]int

// Template is an immutable pair of WGSL sources containing count placeholders.
type Template struct {
	Vertex   string
	Fragment string
}

// SpecializedProgram is a template with every placeholder replaced. It is a new value on every call and never
// aliases the template.
type SpecializedProgram struct {
	Vertex   string
	Fragment string
	Counts   Counts
}

// Equal reports whether two programs have identical sources.
func (p SpecializedProgram) Equal(other SpecializedProgram) bool {
	return p.Vertex == other.Vertex && p.Fragment == other.Fragment
}

// Validator checks a fully specialized stage. It receives the stage name and its source.
type Validator func(stage, source string) error

// Specializer turns templates into programs sized for a particular scene.
type Specializer interface {
	// Specialize expands annotations in both stages and replaces every occurrence of each placeholder in counts
	// with its decimal value. In strict mode a placeholder absent from both stages, a placeholder left over after
	// substitution, or a stage rejected by the validator fails the call.
	//
	// Parameters:
	//   - t: the template to specialize
	//   - counts: placeholder to count
	//
	// Returns:
	//   - SpecializedProgram: the specialized sources
	//   - error: a *ShaderSpecializationError
	Specialize(t Template, counts Counts) (SpecializedProgram, error)

	// Strict reports whether strict validation is enabled.
	//
	// Returns:
	//   - bool: true in strict mode
	Strict() bool
}

type specializer struct {
	strict    bool
	validator Validator
}

var _ Specializer = &specializer{}

// SpecializerOption is a functional option for configuring a Specializer.
type SpecializerOption func(s *specializer)

// WithStrictValidation enables strict placeholder and WGSL validation.
//
// Parameters:
//   - strict: true to enable strict mode
//
// Returns:
//   - SpecializerOption: option function to apply
func WithStrictValidation(strict bool) SpecializerOption {
	return func(s *specializer) {
		s.strict = strict
	}
}

// WithValidator replaces the strict-mode stage validator, which defaults to compiling the stage with naga. A nil
// validator disables stage validation.
//
// Parameters:
//   - v: the validator
//
// Returns:
//   - SpecializerOption: option function to apply
func WithValidator(v Validator) SpecializerOption {
	return func(s *specializer) {
		s.validator = v
	}
}

// NewSpecializer creates a Specializer. The default is lenient: placeholders that never appear are ignored.
//
// Parameters:
//   - opts: functional options
//
// Returns:
//   - Specializer: the specializer
func NewSpecializer(opts ...SpecializerOption) Specializer {
	s := &specializer{validator: nagaValidator}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *specializer) Strict() bool {
	return s.strict
}

func (s *specializer) Specialize(t Template, counts Counts) (SpecializedProgram, error) {
	vertex, err := NewPreProcessor().Process(t.Vertex)
	if err != nil {
		return SpecializedProgram{}, &ShaderSpecializationError{Stage: ShaderTypeVertex.String(), Err: err}
	}
	fragment, err := NewPreProcessor().Process(t.Fragment)
	if err != nil {
		return SpecializedProgram{}, &ShaderSpecializationError{Stage: ShaderTypeFragment.String(), Err: err}
	}

	// Longest first so no placeholder can consume a prefix of another.
	keys := slices.SortedFunc(maps.Keys(counts), func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})

	if s.strict {
		for _, k := range keys {
			if !strings.Contains(vertex, k) && !strings.Contains(fragment, k) {
				return SpecializedProgram{}, &ShaderSpecializationError{Stage: "program", Err: &MissingPlaceholderError{Placeholder: k}}
			}
		}
	}

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, k, strconv.Itoa(counts[k]))
	}
	r := strings.NewReplacer(pairs...)

	out := SpecializedProgram{
		Vertex:   r.Replace(vertex),
		Fragment: r.Replace(fragment),
		Counts:   maps.Clone(counts),
	}

	if s.strict {
		stages := []struct{ name, source string }{
			{ShaderTypeVertex.String(), out.Vertex},
			{ShaderTypeFragment.String(), out.Fragment},
		}
		for _, stage := range stages {
			for _, p := range Placeholders {
				if strings.Contains(stage.source, p) {
					return SpecializedProgram{}, &ShaderSpecializationError{Stage: stage.name, Err: fmt.Errorf("%s: %w", p, ErrUnresolvedPlaceholder)}
				}
			}
			if s.validator == nil {
				continue
			}
			if err := s.validator(stage.name, stage.source); err != nil {
				return SpecializedProgram{}, &ShaderSpecializationError{Stage: stage.name, Err: err}
			}
		}
	}
	return out, nil
}

func nagaValidator(stage, source string) error {
	if _, err := naga.Compile(source); err != nil {
		return fmt.Errorf("naga: %w", err)
	}
	return nil
}
