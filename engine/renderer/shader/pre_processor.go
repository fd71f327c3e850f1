// pre_processor.go expands @oxy: annotations in WGSL source. Struct definitions shared between Go packing code and
// shaders live once under assets/ and are injected with @oxy:include; @oxy:group lines become binding
// declarations whose struct type names are resolved through the same registry.
package shader

import (
	_ "embed"
	"fmt"
	"strings"
)

var (
	//go:embed assets/screen_vertex.wgsl
	screenVertexSource string

	//go:embed assets/tracer_uniforms.wgsl
	tracerUniformsSource string

	//go:embed assets/divide_params.wgsl
	divideParamsSource string
)

// registryEntry pairs an embedded WGSL struct definition with the type name it declares.
type registryEntry struct {
	Source string
	Type   string
}

type preProcessor struct {
	structRegistry       map[AnnotationArg]registryEntry
	addressSpaceRegistry map[AnnotationArg]string

	// declarations is reset at the start of each Process call.
	declarations []Annotation
}

// PreProcessor expands @oxy: annotations in WGSL source and records the binding declarations it generated.
type PreProcessor interface {
	// Process replaces every @oxy:include with the registered struct source and every @oxy:group with a generated
	// @group/@binding declaration. Lines without annotations pass through unchanged.
	//
	// Parameters:
	//   - source: WGSL source that may contain annotations
	//
	// Returns:
	//   - string: the expanded WGSL source
	//   - error: error if an annotation is malformed or references an unknown type
	Process(source string) (string, error)

	// Declarations returns the group annotations collected during the most recent Process call, in source order.
	//
	// Returns:
	//   - []Annotation: the collected declarations
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the built-in struct registry.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		structRegistry: map[AnnotationArg]registryEntry{
			AnnotationArgScreenVertex:   {Source: screenVertexSource, Type: "VertexInput"},
			AnnotationArgTracerUniforms: {Source: tracerUniformsSource, Type: "TracerUniforms"},
			AnnotationArgDivideParams:   {Source: divideParamsSource, Type: "DivideParams"},
		},
		addressSpaceRegistry: map[AnnotationArg]string{
			annotationArgStorageTypeUniform:   "var<uniform>",
			annotationArgStorageTypeRead:      "var<storage, read>",
			annotationArgStorageTypeReadWrite: "var<storage, read_write>",
		},
	}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			out = append(out, strings.TrimRight(p.structRegistry[a.Args[0]].Source, "\n"))
		case AnnotationTypeBindingGroup:
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;",
				*a.Group, *a.Binding, p.addressSpaceRegistry[a.Args[0]], a.Args[1], p.resolveType(string(a.Args[2]))))
			p.declarations = append(p.declarations, *a)
		default:
			return "", fmt.Errorf("line %d: unhandled annotation type %q", i+1, a.Type)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}

// resolveType maps a registry key, optionally wrapped in array<>, to its WGSL type name. Primitives pass through.
func (p *preProcessor) resolveType(t string) string {
	if inner, ok := strings.CutPrefix(t, "array<"); ok {
		return "array<" + p.resolveType(strings.TrimSuffix(inner, ">")) + ">"
	}
	if entry, ok := p.structRegistry[AnnotationArg(t)]; ok {
		return entry.Type
	}
	return t
}
