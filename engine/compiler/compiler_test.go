package compiler

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// unknownMaterial stands in for a material kind added to the scene package but not yet to the compiler.
type unknownMaterial struct{ scene.Material }

func mixedScene() scene.Scene {
	return scene.NewScene(
		scene.WithMaterials(
			scene.Lambert{Color: mgl32.Vec3{1, 0, 0}},
			scene.Mirror{Gloss: 0.1},
			scene.Lambert{Color: mgl32.Vec3{0, 1, 0}},
			scene.Mirror{Gloss: 0.4},
			scene.Lambert{Color: mgl32.Vec3{0, 0, 1}},
		),
		scene.WithGeometry(
			scene.Geometry{Shape: scene.Sphere{Position: mgl32.Vec3{0, 0, -5}, Radius: 1}, MaterialIndex: 4},
			scene.Geometry{Shape: scene.Plane{Position: mgl32.Vec3{0, -1, 0}, Normal: mgl32.Vec3{0, 3, 0}}, MaterialIndex: 3},
			scene.Geometry{Shape: scene.Sphere{Position: mgl32.Vec3{2, 0, -6}, Radius: 0.5}, MaterialIndex: 1},
		),
		scene.WithLights(
			scene.SphereLight{Position: mgl32.Vec3{0, 5, 0}, Radius: 1, Color: mgl32.Vec3{1, 1, 1}, Intensity: 10},
		),
	)
}

func TestIndexMapMatchesManualFilter(t *testing.T) {
	s := mixedScene()
	_, index, err := Compile(s)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	counters := map[scene.MaterialType]int{}
	for i, m := range s.Materials() {
		want := MaterialRef{Type: m.MaterialType(), Index: counters[m.MaterialType()]}
		counters[m.MaterialType()]++

		got, ok := index.Lookup(i)
		if !ok {
			t.Fatalf("material %d missing from index map", i)
		}
		if got != want {
			t.Errorf("material %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestGeometryResolvesMaterials(t *testing.T) {
	buffers, _, err := Compile(mixedScene())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	sphere := buffers.Geometry.Sphere
	if got := sphere.MaterialType; len(got) != 2 || got[0] != int32(scene.MaterialTypeLambert) || got[1] != int32(scene.MaterialTypeMirror) {
		t.Errorf("sphere material types = %v", got)
	}
	if got := sphere.MaterialIndex; got[0] != 2 || got[1] != 0 {
		t.Errorf("sphere material indices = %v, want [2 0]", got)
	}
	plane := buffers.Geometry.Plane
	if plane.MaterialType[0] != int32(scene.MaterialTypeMirror) || plane.MaterialIndex[0] != 1 {
		t.Errorf("plane material = (%d, %d), want (1, 1)", plane.MaterialType[0], plane.MaterialIndex[0])
	}
}

func TestParallelArraysHaveEqualLength(t *testing.T) {
	b, _, err := Compile(mixedScene())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	sphere, plane, light := b.Geometry.Sphere, b.Geometry.Plane, b.Lighting.Sphere
	checks := map[string][]int{
		"sphere": {len(sphere.Position), len(sphere.Radius), len(sphere.MaterialType), len(sphere.MaterialIndex)},
		"plane":  {len(plane.Position), len(plane.Normal), len(plane.MaterialType), len(plane.MaterialIndex)},
		"light":  {len(light.Position), len(light.Radius), len(light.Color), len(light.Intensity)},
	}
	for name, lengths := range checks {
		for _, n := range lengths[1:] {
			if n != lengths[0] {
				t.Errorf("%s arrays have lengths %v", name, lengths)
				break
			}
		}
	}
}

func TestPlaneNormalIsNormalized(t *testing.T) {
	b, _, err := Compile(mixedScene())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if got := b.Geometry.Plane.Normal[0]; !got.ApproxEqual(mgl32.Vec3{0, 1, 0}) {
		t.Errorf("normal = %v, want unit Y", got)
	}
}

func TestCompileIsIdempotent(t *testing.T) {
	s := mixedScene()
	first, _, err := Compile(s)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	second, _, err := Compile(s)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	a, err := first.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	b, err := second.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("compiling the same scene twice produced different bytes")
	}
}

func TestCompileDoesNotMutateScene(t *testing.T) {
	s := mixedScene()
	before := s.Geometry()
	if _, _, err := Compile(s); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	after := s.Geometry()
	if plane := after[1].Shape.(scene.Plane); plane.Normal != before[1].Shape.(scene.Plane).Normal {
		t.Errorf("plane normal changed to %v", plane.Normal)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name  string
		scene scene.Scene
		check func(t *testing.T, err error)
	}{
		{
			name: "out of range material",
			scene: scene.NewScene(
				scene.WithMaterials(scene.Lambert{}),
				scene.WithGeometry(scene.Geometry{Shape: scene.Sphere{Radius: 1}, MaterialIndex: 3}),
			),
			check: func(t *testing.T, err error) {
				var target *UnresolvedMaterialError
				if !errors.As(err, &target) || target.MaterialIndex != 3 || target.GeometryIndex != 0 {
					t.Errorf("err = %v, want UnresolvedMaterialError{0, 3}", err)
				}
			},
		},
		{
			name: "negative material",
			scene: scene.NewScene(
				scene.WithMaterials(scene.Lambert{}),
				scene.WithGeometry(scene.Geometry{Shape: scene.Sphere{Radius: 1}, MaterialIndex: -1}),
			),
			check: func(t *testing.T, err error) {
				var target *UnresolvedMaterialError
				if !errors.As(err, &target) {
					t.Errorf("err = %v, want UnresolvedMaterialError", err)
				}
			},
		},
		{
			name:  "unknown material",
			scene: scene.NewScene(scene.WithMaterials(unknownMaterial{})),
			check: func(t *testing.T, err error) {
				var target *UnsupportedVariantError
				if !errors.As(err, &target) || target.Kind != "material" {
					t.Errorf("err = %v, want UnsupportedVariantError for a material", err)
				}
				if !errors.Is(err, scene.ErrUnsupportedVariant) {
					t.Error("errors.Is(err, scene.ErrUnsupportedVariant) = false")
				}
			},
		},
		{
			name: "nil shape",
			scene: scene.NewScene(
				scene.WithMaterials(scene.Lambert{}),
				scene.WithGeometry(scene.Geometry{}),
			),
			check: func(t *testing.T, err error) {
				var target *UnsupportedVariantError
				if !errors.As(err, &target) || target.Kind != "geometry" {
					t.Errorf("err = %v, want UnsupportedVariantError for geometry", err)
				}
			},
		},
		{
			name: "zero plane normal",
			scene: scene.NewScene(
				scene.WithMaterials(scene.Lambert{}),
				scene.WithGeometry(scene.Geometry{Shape: scene.Plane{}}),
			),
			check: func(t *testing.T, err error) {
				var target *UnsupportedVariantError
				if !errors.As(err, &target) || target.Reason == "" {
					t.Errorf("err = %v, want UnsupportedVariantError with a reason", err)
				}
			},
		},
		{
			name:  "nil light",
			scene: scene.NewScene(scene.WithLights(nil)),
			check: func(t *testing.T, err error) {
				var target *UnsupportedVariantError
				if !errors.As(err, &target) || target.Kind != "light" {
					t.Errorf("err = %v, want UnsupportedVariantError for a light", err)
				}
			},
		},
		{
			name:  "nil scene",
			scene: nil,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrNilScene) {
					t.Errorf("err = %v, want ErrNilScene", err)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buffers, index, err := Compile(tt.scene)
			if err == nil {
				t.Fatal("expected an error")
			}
			if buffers != nil || index != nil {
				t.Error("partial results returned alongside an error")
			}
			tt.check(t, err)
		})
	}
}

func TestEmptySceneCounts(t *testing.T) {
	b, _, err := Compile(scene.NewScene())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	counts := b.Counts(1000)
	for placeholder, n := range counts {
		want := 0
		if placeholder == shader.PlaceholderRandomSeeds {
			want = 1000
		}
		if n != want {
			t.Errorf("%s = %d, want %d", placeholder, n, want)
		}
	}
}

func TestPackedArraysAreNeverEmpty(t *testing.T) {
	b, _, err := Compile(scene.NewScene())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for name, data := range b.StorageArrays() {
		if len(data) == 0 {
			t.Errorf("%s is empty", name)
		}
	}
	if got := len(b.StorageArrays()[BindingGeometrySpherePosition]); got != 16 {
		t.Errorf("empty vec4 array is %d bytes, want 16", got)
	}
	for name, tex := range b.DataTextures() {
		if tex.Width != 1 {
			t.Errorf("%s width = %d, want 1", name, tex.Width)
		}
	}
}

func TestStorageArraysWidenVec3(t *testing.T) {
	b, _, err := Compile(mixedScene())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if got := len(b.StorageArrays()[BindingGeometrySpherePosition]); got != 2*16 {
		t.Errorf("two sphere positions packed into %d bytes, want 32", got)
	}
	if got := b.DataTextures()[BindingMaterialLambertColor].At(2, 0); got != (mgl32.Vec4{0, 0, 1, 1}) {
		t.Errorf("third lambert texel = %v", got)
	}
}

func TestEndToEndSingleSphere(t *testing.T) {
	s := scene.NewScene(
		scene.WithMaterials(scene.Lambert{Color: mgl32.Vec3{1, 0, 0}}),
		scene.WithGeometry(scene.Geometry{Shape: scene.Sphere{Position: mgl32.Vec3{0, 0, -5}, Radius: 1}}),
	)
	b, _, err := Compile(s)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(b.Materials.Lambert.Color) != 1 || len(b.Geometry.Sphere.Position) != 1 {
		t.Fatalf("lambert=%d spheres=%d, want 1 and 1", len(b.Materials.Lambert.Color), len(b.Geometry.Sphere.Position))
	}

	tmpl := shader.Template{
		Vertex:   "const A: i32 = N_GEOMETRY_SPHERE_;",
		Fragment: "const L: i32 = N_MATERIAL_LAMBERT_;\nconst S: i32 = N_GEOMETRY_SPHERE_;\nvar<private> x: array<f32, N_MATERIAL_LAMBERT_>;",
	}
	out, err := shader.NewSpecializer().Specialize(tmpl, b.Counts(1000))
	if err != nil {
		t.Fatalf("Specialize: %v", err)
	}
	if !strings.Contains(out.Fragment, "const L: i32 = 1;") || !strings.Contains(out.Fragment, "array<f32, 1>") {
		t.Errorf("fragment = %q", out.Fragment)
	}
	if out.Vertex != "const A: i32 = 1;" {
		t.Errorf("vertex = %q", out.Vertex)
	}
}
