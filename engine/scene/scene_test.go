package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestNewSceneCopiesInput(t *testing.T) {
	materials := []Material{Lambert{Color: mgl32.Vec3{1, 0, 0}}}
	geometry := []Geometry{{Shape: Sphere{Position: mgl32.Vec3{0, 0, -5}, Radius: 1}}}

	s := NewScene(WithMaterials(materials...), WithGeometry(geometry...))

	materials[0] = Mirror{Gloss: 0.5}
	geometry[0].MaterialIndex = 7

	if _, ok := s.Materials()[0].(Lambert); !ok {
		t.Errorf("material was mutated through the caller's slice")
	}
	if got := s.Geometry()[0].MaterialIndex; got != 0 {
		t.Errorf("geometry material index = %d, want 0", got)
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	s := NewScene(WithLights(SphereLight{Radius: 1, Intensity: 2}))

	lights := s.Lights()
	lights[0] = SphereLight{Radius: 9}

	if got := s.Lights()[0].(SphereLight).Radius; got != 1 {
		t.Errorf("radius = %v, want 1", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := NewScene(WithMaterials(Lambert{}), WithGeometry(Geometry{Shape: Plane{Normal: mgl32.Vec3{0, 1, 0}}}))
	c := s.Clone()
	if len(c.Materials()) != 1 || len(c.Geometry()) != 1 {
		t.Fatalf("clone lost contents")
	}
	if NewScene().Empty() != true || c.Empty() {
		t.Errorf("Empty reported incorrectly")
	}
}

func TestMaterialTypeValues(t *testing.T) {
	tests := []struct {
		m    Material
		want MaterialType
		name string
	}{
		{Lambert{}, 0, "lambert"},
		{Mirror{}, 1, "mirror"},
	}
	for _, tt := range tests {
		if got := tt.m.MaterialType(); got != tt.want {
			t.Errorf("%T type = %d, want %d", tt.m, got, tt.want)
		}
		if got := tt.m.MaterialType().String(); got != tt.name {
			t.Errorf("%T name = %q, want %q", tt.m, got, tt.name)
		}
	}
}
