package shader

import (
	"errors"
	"strings"
	"testing"
)

func noValidation(string, string) error { return nil }

func TestSpecializeReplacesEveryOccurrence(t *testing.T) {
	tmpl := Template{
		Vertex: "const S: i32 = N_GEOMETRY_SPHERE_;",
		Fragment: strings.Join([]string{
			"const S: i32 = N_GEOMETRY_SPHERE_;",
			"var<private> a: array<f32, N_GEOMETRY_SPHERE_>;",
			"const P: i32 = N_GEOMETRY_PLANE_;",
			"const L: i32 = N_LIGHTING_SPHERE_;",
		}, "\n"),
	}
	counts := Counts{
		PlaceholderGeometrySphere: 3,
		PlaceholderGeometryPlane:  0,
		PlaceholderLightingSphere: 12,
	}

	out, err := NewSpecializer().Specialize(tmpl, counts)
	if err != nil {
		t.Fatalf("Specialize: %v", err)
	}
	for _, p := range Placeholders {
		if strings.Contains(out.Vertex, p) || strings.Contains(out.Fragment, p) {
			t.Errorf("%s left in output", p)
		}
	}
	if !strings.Contains(out.Fragment, "const S: i32 = 3;") || !strings.Contains(out.Fragment, "array<f32, 3>") {
		t.Errorf("fragment = %q, want both sphere counts replaced", out.Fragment)
	}
	if !strings.Contains(out.Fragment, "const L: i32 = 12;") {
		t.Errorf("fragment = %q", out.Fragment)
	}
}

func TestSpecializeDoesNotTouchTemplate(t *testing.T) {
	tmpl := Template{Vertex: "N_RANDOM_SEEDS_", Fragment: "N_RANDOM_SEEDS_"}
	out, err := NewSpecializer().Specialize(tmpl, Counts{PlaceholderRandomSeeds: 1000})
	if err != nil {
		t.Fatalf("Specialize: %v", err)
	}
	if tmpl.Vertex != "N_RANDOM_SEEDS_" {
		t.Error("template mutated")
	}
	if out.Vertex != "1000" || out.Fragment != "1000" {
		t.Errorf("out = %+v", out)
	}
	out.Counts[PlaceholderRandomSeeds] = 1
	again, _ := NewSpecializer().Specialize(tmpl, Counts{PlaceholderRandomSeeds: 1000})
	if !again.Equal(out) {
		t.Error("specializing twice produced different sources")
	}
}

func TestMissingPlaceholderIsNoOpByDefault(t *testing.T) {
	tmpl := Template{Vertex: "fn a() {}", Fragment: "fn b() {}"}
	out, err := NewSpecializer().Specialize(tmpl, Counts{PlaceholderMaterialMirror: 2})
	if err != nil {
		t.Fatalf("Specialize: %v", err)
	}
	if out.Vertex != tmpl.Vertex || out.Fragment != tmpl.Fragment {
		t.Errorf("sources changed: %+v", out)
	}
}

func TestStrictMissingPlaceholder(t *testing.T) {
	s := NewSpecializer(WithStrictValidation(true), WithValidator(noValidation))
	tmpl := Template{Vertex: "const A = N_MATERIAL_LAMBERT_;", Fragment: ""}

	_, err := s.Specialize(tmpl, Counts{PlaceholderMaterialLambert: 1, PlaceholderMaterialMirror: 1})

	var missing *MissingPlaceholderError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingPlaceholderError", err)
	}
	if missing.Placeholder != PlaceholderMaterialMirror {
		t.Errorf("placeholder = %s", missing.Placeholder)
	}
	var specErr *ShaderSpecializationError
	if !errors.As(err, &specErr) {
		t.Error("MissingPlaceholderError not wrapped in ShaderSpecializationError")
	}
}

func TestStrictLeftoverPlaceholder(t *testing.T) {
	s := NewSpecializer(WithStrictValidation(true), WithValidator(noValidation))
	tmpl := Template{Vertex: "N_GEOMETRY_SPHERE_", Fragment: "N_GEOMETRY_PLANE_"}

	_, err := s.Specialize(tmpl, Counts{PlaceholderGeometrySphere: 1})

	var specErr *ShaderSpecializationError
	if !errors.As(err, &specErr) || specErr.Stage != "fragment" {
		t.Fatalf("err = %v, want fragment ShaderSpecializationError", err)
	}
	if !errors.Is(err, ErrUnresolvedPlaceholder) {
		t.Error("errors.Is(err, ErrUnresolvedPlaceholder) = false")
	}
}

func TestStrictValidatorFailureIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	s := NewSpecializer(WithStrictValidation(true), WithValidator(func(stage, _ string) error {
		if stage == "vertex" {
			return boom
		}
		return nil
	}))

	_, err := s.Specialize(Template{}, Counts{})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	var specErr *ShaderSpecializationError
	if !errors.As(err, &specErr) || specErr.Stage != "vertex" {
		t.Errorf("err = %v, want vertex stage", err)
	}
}

func TestSpecializeRunsPreProcessor(t *testing.T) {
	tmpl := Template{
		Vertex:   "//@oxy:include screen_vertex",
		Fragment: "//@oxy:group 0 0 storage_read positions array<vec4f>\nconst N: i32 = N_GEOMETRY_SPHERE_;",
	}
	out, err := NewSpecializer().Specialize(tmpl, Counts{PlaceholderGeometrySphere: 4})
	if err != nil {
		t.Fatalf("Specialize: %v", err)
	}
	if !strings.Contains(out.Vertex, "struct VertexInput") {
		t.Errorf("vertex = %q", out.Vertex)
	}
	if !strings.Contains(out.Fragment, "@group(0) @binding(0) var<storage, read> positions: array<vec4f>;") {
		t.Errorf("fragment = %q", out.Fragment)
	}
	if !strings.Contains(out.Fragment, "const N: i32 = 4;") {
		t.Errorf("fragment = %q", out.Fragment)
	}
}
