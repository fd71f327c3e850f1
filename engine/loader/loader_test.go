package loader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-trace/engine/camera"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

const sampleScene = `{
  "materials": [{"type":"lambert","color":[1,0,0]}, {"type":"mirror","gloss":0.1}],
  "geometry":  [{"shape":{"type":"sphere","position":[0,0,-5],"radius":1},"material":0},
                {"shape":{"type":"plane","position":[0,-1,0],"normal":[0,1,0]},"material":1}],
  "lighting":  [{"type":"sphere","position":[0,5,0],"radius":1,"color":[1,1,1],"intensity":10}],
  "camera":    {"position":[0,0,0],"target":[0,0,-1],"fov":75}
}`

func TestDecodeScene(t *testing.T) {
	s, cam, err := DecodeScene(strings.NewReader(sampleScene))
	if err != nil {
		t.Fatal(err)
	}

	materials := s.Materials()
	if len(materials) != 2 {
		t.Fatalf("got %d materials", len(materials))
	}
	if m, ok := materials[0].(scene.Lambert); !ok || m.Color != (mgl32.Vec3{1, 0, 0}) {
		t.Errorf("material 0 = %#v", materials[0])
	}
	if m, ok := materials[1].(scene.Mirror); !ok || m.Gloss != 0.1 {
		t.Errorf("material 1 = %#v", materials[1])
	}

	geometry := s.Geometry()
	if len(geometry) != 2 {
		t.Fatalf("got %d geometry", len(geometry))
	}
	if g, ok := geometry[0].Shape.(scene.Sphere); !ok || g.Radius != 1 || geometry[0].MaterialIndex != 0 {
		t.Errorf("geometry 0 = %#v", geometry[0])
	}
	if g, ok := geometry[1].Shape.(scene.Plane); !ok || g.Normal != (mgl32.Vec3{0, 1, 0}) || geometry[1].MaterialIndex != 1 {
		t.Errorf("geometry 1 = %#v", geometry[1])
	}

	lights := s.Lights()
	if len(lights) != 1 || lights[0].LightIntensity() != 10 {
		t.Fatalf("lights = %#v", lights)
	}

	if cam == nil || cam.Fov != 75 || cam.Target != (mgl32.Vec3{0, 0, -1}) || cam.Up != (mgl32.Vec3{0, 1, 0}) {
		t.Fatalf("camera = %#v", cam)
	}
}

func TestDecodeSceneDefaults(t *testing.T) {
	s, cam, err := DecodeScene(strings.NewReader(`{"lighting":[{"type":"sphere","radius":1,"color":[1,1,1]}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if cam != nil {
		t.Errorf("camera = %#v, want nil", cam)
	}
	if got := s.Lights()[0].LightIntensity(); got != 1 {
		t.Errorf("intensity = %v, want 1", got)
	}

	_, cam, err = DecodeScene(strings.NewReader(`{"camera":{"position":[1,2,3]}}`))
	if err != nil {
		t.Fatal(err)
	}
	if cam.Target != (mgl32.Vec3{1, 2, 2}) || cam.Fov != defaultFovDegrees {
		t.Errorf("camera = %#v", cam)
	}
}

func TestDecodeSceneUnknownType(t *testing.T) {
	tests := []struct {
		name string
		json string
		kind string
	}{
		{"material", `{"materials":[{"type":"glass"}]}`, "material"},
		{"shape", `{"materials":[{"type":"mirror"}],"geometry":[{"shape":{"type":"torus"},"material":0}]}`, "shape"},
		{"light", `{"lighting":[{"type":"spot"}]}`, "light"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeScene(strings.NewReader(tt.json))
			var unknown *UnknownTypeError
			if !errors.As(err, &unknown) || unknown.Kind != tt.kind || unknown.Index != 0 {
				t.Fatalf("got %v, want unknown %s type", err, tt.kind)
			}
			if !errors.Is(err, scene.ErrUnsupportedVariant) {
				t.Fatal("does not match scene.ErrUnsupportedVariant")
			}
		})
	}
}

func TestDecodeSceneRejects(t *testing.T) {
	tests := map[string]string{
		"foreign field":    `{"materials":[{"type":"mirror","color":[1,1,1]}]}`,
		"missing material": `{"geometry":[{"shape":{"type":"sphere","radius":1}}]}`,
		"missing shape":    `{"geometry":[{"material":0}]}`,
		"unknown section":  `{"meshes":[]}`,
		"malformed":        `{"materials":[`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, _, err := DecodeScene(strings.NewReader(doc)); err == nil {
				t.Fatal("accepted")
			}
		})
	}
}

func TestLoaderCaches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.json")
	if err := os.WriteFile(path, []byte(sampleScene), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader(BackendTypeJSON)
	first, err := l.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	second, err := l.Load(path)
	if err != nil || second != first {
		t.Fatalf("cached load = %p, %v; want %p", second, err, first)
	}
	if l.Get(path) != first || len(l.Scenes()) != 1 {
		t.Fatal("cache contents wrong")
	}

	l.Evict(path)
	if _, err := l.Load(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("got %v after evict, want ErrNotExist", err)
	}
	if _, err := l.Load(filepath.Join(dir, "scene.obj")); err == nil {
		t.Fatal("accepted an unsupported extension")
	}
}

func TestSampleSceneLoads(t *testing.T) {
	s, cam, err := LoadScene(filepath.Join("..", "..", "assets", "scenes", "spheres.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Geometry()) != 4 || cam == nil {
		t.Fatalf("unexpected sample scene: %d geometry, camera %v", len(s.Geometry()), cam)
	}
}

func TestCameraDescriptionControllerMatchesPose(t *testing.T) {
	d := &CameraDescription{Position: mgl32.Vec3{3, 2, -1}, Target: mgl32.Vec3{0, 0, -5}, Up: mgl32.Vec3{0, 1, 0}, Fov: 60}
	ctrl := camera.NewCameraController(d.ControllerOptions()...)
	if ctrl.Position().Sub(d.Position).Len() > 1e-4 {
		t.Fatalf("controller eye = %v, want %v", ctrl.Position(), d.Position)
	}

	cam := camera.NewCamera(d.Options()...)
	if cam.Target() != d.Target || cam.Fov() != mgl32.DegToRad(60) {
		t.Fatalf("camera = target %v fov %v", cam.Target(), cam.Fov())
	}
}
