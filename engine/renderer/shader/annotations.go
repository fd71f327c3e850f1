// annotations.go defines the @oxy: annotation syntax understood by the WGSL pre-processor. Annotations are
// single-line WGSL comments that either inject a registered struct definition or expand into a @group/@binding
// declaration, so the host-side struct packing and the shader declaration share one source of truth.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix marks an Oxy annotation inside a WGSL line comment.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects the WGSL source of a registered struct at the annotation site.
	//
	// Syntax: //@oxy:include <struct_type>
	//
	// Example: //@oxy:include tracer_uniforms
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup expands into a @group/@binding variable declaration and is recorded in the
	// pre-processor's declarations list. The type is a registered struct key, a WGSL primitive, or an array
	// of either.
	//
	// Syntax: //@oxy:group <group> <binding> <address_space> <var_name> <type>
	//
	// Example: //@oxy:group 0 0 storage_uniform tracer tracer_uniforms
	AnnotationTypeBindingGroup AnnotationType = "group"
)

// Annotation is a single parsed @oxy: annotation.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Args holds the annotation's arguments:
	//   - include: [0] = struct type key
	//   - group:   [0] = address space, [1] = var name, [2] = type
	Args []AnnotationArg

	// Line is the 1-based source line of the annotation.
	Line int

	// Group and Binding are set for group annotations only.
	Group   *int
	Binding *int
}

// AnnotationArg is an annotation argument.
type AnnotationArg string

// Registered struct types. Each has an embedded .wgsl definition under assets/.
const (
	// AnnotationArgScreenVertex is the full-screen quad's vertex input.
	AnnotationArgScreenVertex AnnotationArg = "screen_vertex"

	// AnnotationArgTracerUniforms is the tracer's per-update uniform block.
	AnnotationArgTracerUniforms AnnotationArg = "tracer_uniforms"

	// AnnotationArgDivideParams carries the accumulated pass count into the divide pass.
	AnnotationArgDivideParams AnnotationArg = "divide_params"
)

// Address spaces accepted by group annotations.
const (
	annotationArgStorageTypeUniform   AnnotationArg = "storage_uniform"
	annotationArgStorageTypeRead      AnnotationArg = "storage_read"
	annotationArgStorageTypeReadWrite AnnotationArg = "storage_read_write"
)

var validStructTypes = []AnnotationArg{
	AnnotationArgScreenVertex,
	AnnotationArgTracerUniforms,
	AnnotationArgDivideParams,
}

var validAddressSpaces = []AnnotationArg{
	annotationArgStorageTypeUniform,
	annotationArgStorageTypeRead,
	annotationArgStorageTypeReadWrite,
}

// validBindingType reports whether t names a registered struct or a WGSL primitive with a known layout.
func validBindingType(t string) bool {
	if _, ok := wgslPrimitiveLayoutMap[t]; ok {
		return true
	}
	return slices.Contains(validStructTypes, AnnotationArg(t))
}

// parseAnnotation parses one source line. Lines without the annotation prefix yield nil and no error.
//
// Parameters:
//   - line: the raw WGSL source line
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	_, after, ok := strings.Cut(strings.TrimSpace(line), annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case annotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include takes exactly one argument", lineNum)
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @oxy include", lineNum, args[1])
		}
		return &Annotation{Type: annotationTypeInclude, Args: []AnnotationArg{AnnotationArg(args[1])}, Line: lineNum}, nil

	case AnnotationTypeBindingGroup:
		if len(args) != 6 {
			return nil, fmt.Errorf("line %d: @oxy group takes five arguments (group, binding, address space, name, type)", lineNum)
		}
		group, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid group number %q: %w", lineNum, args[1], err)
		}
		binding, err := strconv.Atoi(args[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid binding number %q: %w", lineNum, args[2], err)
		}
		if !slices.Contains(validAddressSpaces, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown address space %q in @oxy group", lineNum, args[3])
		}
		elem := args[5]
		if inner, isArray := strings.CutPrefix(elem, "array<"); isArray {
			elem = strings.TrimSuffix(inner, ">")
		}
		if !validBindingType(elem) {
			return nil, fmt.Errorf("line %d: unknown type %q in @oxy group", lineNum, args[5])
		}
		return &Annotation{
			Type:    AnnotationTypeBindingGroup,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4]), AnnotationArg(args[5])},
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil

	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
}
