package tracer

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-trace/engine/camera"
	"github.com/Carmen-Shannon/oxy-trace/engine/compiler"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/software"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// echoKernel stands in for the path tracer: it writes the first seed, the grid degree and the resolution it was
// given into every pixel.
func echoKernel(in *software.Inputs) (software.PixelFunc, error) {
	seeds, err := in.Texture(UniformRandomSeeds)
	if err != nil {
		return nil, err
	}
	degree, err := in.Uint32(UniformTracer, 140)
	if err != nil {
		return nil, err
	}
	block, err := in.Float32s(UniformTracer)
	if err != nil {
		return nil, err
	}
	out := mgl32.Vec4{seeds.At(0, 0).X(), float32(degree), block[36], block[37]}
	return func(int, int) mgl32.Vec4 { return out }, nil
}

func redSphereScene() scene.Scene {
	return scene.NewScene(
		scene.WithMaterials(scene.Lambert{Color: mgl32.Vec3{1, 0, 0}}),
		scene.WithGeometry(scene.Geometry{Shape: scene.Sphere{Position: mgl32.Vec3{0, 0, -5}, Radius: 1}}),
	)
}

func TestRenderBeforeUpdate(t *testing.T) {
	tr := NewTracer()
	b := software.NewBackend(4, 4, software.WithKernel(ProgramKey, echoKernel))
	if err := tr.Render(b, nil); !errors.Is(err, ErrNotUpdated) {
		t.Fatalf("got %v, want ErrNotUpdated", err)
	}
}

func TestDefaults(t *testing.T) {
	tr := NewTracer()
	if w, h := tr.Resolution(); w != 100 || h != 100 {
		t.Errorf("resolution = %dx%d", w, h)
	}
	if tr.PixelSampler() != DefaultPixelSampler {
		t.Errorf("sampler = %+v", tr.PixelSampler())
	}
	if tr.Program() != nil || tr.Buffers() != nil {
		t.Error("tracer has state before Update")
	}
	cam := tr.Camera()
	if !mgl32.FloatEqualThreshold(cam.Fov(), mgl32.DegToRad(75), 1e-5) || cam.Aspect() != 1 || cam.Near() != 0.1 || cam.Far() != 1000 {
		t.Errorf("camera = fov %v aspect %v near %v far %v", cam.Fov(), cam.Aspect(), cam.Near(), cam.Far())
	}
}

func TestUpdateSpecializesForScene(t *testing.T) {
	tr := NewTracer(WithStrictShaders(true), WithSpecializer(shader.NewSpecializer(
		shader.WithStrictValidation(true),
		shader.WithValidator(func(string, string) error { return nil }),
	)))
	if err := tr.Update(redSphereScene(), nil, DefaultPixelSampler); err != nil {
		t.Fatalf("Update: %v", err)
	}

	buffers := tr.Buffers()
	if len(buffers.Materials.Lambert.Color) != 1 || buffers.Materials.Lambert.Color[0] != (mgl32.Vec3{1, 0, 0}) {
		t.Errorf("lambert colors = %v", buffers.Materials.Lambert.Color)
	}
	if len(buffers.Geometry.Sphere.Position) != 1 || buffers.Geometry.Sphere.Position[0] != (mgl32.Vec3{0, 0, -5}) {
		t.Errorf("sphere positions = %v", buffers.Geometry.Sphere.Position)
	}

	frag := tr.Specialized().Fragment
	for _, want := range []string{
		"const LAMBERT_COUNT: i32 = 1;",
		"const SPHERE_COUNT: i32 = 1;",
		"const PLANE_COUNT: i32 = 0;",
		"const LIGHT_COUNT: i32 = 0;",
		"const SEED_COUNT: u32 = 1000;",
	} {
		if !strings.Contains(frag, want) {
			t.Errorf("specialized fragment lacks %q", want)
		}
	}
	for _, p := range shader.Placeholders {
		if strings.Contains(frag, p) {
			t.Errorf("placeholder %s survived specialization", p)
		}
	}
	if ref, ok := tr.MaterialIndex().Lookup(0); !ok || ref.Index != 0 {
		t.Errorf("material 0 maps to %+v, %v", ref, ok)
	}
}

func TestRenderBindsEveryUniform(t *testing.T) {
	tr := NewTracer(WithResolution(8, 6))
	if err := tr.Update(redSphereScene(), nil, PixelSampler{Stratifier: StratifierGrid, Degree: 3}); err != nil {
		t.Fatal(err)
	}
	b := software.NewBackend(8, 6, software.WithKernel(ProgramKey, echoKernel))
	if err := tr.Render(b, nil); err != nil {
		t.Fatalf("Render: %v", err)
	}

	got := b.Surface().At(7, 5)
	if got.Y() != 3 || got.Z() != 8 || got.W() != 6 {
		t.Fatalf("kernel saw degree %v resolution %vx%v", got.Y(), got.Z(), got.W())
	}
	if got.X() != tr.Seeds()[0] {
		t.Fatalf("kernel saw seed %v, tracer uploaded %v", got.X(), tr.Seeds()[0])
	}
}

func TestSeedsRefreshEveryRender(t *testing.T) {
	tr := NewTracer(WithRandomSeedCount(16), WithRandomSource(rand.NewPCG(1, 2)))
	if err := tr.Update(redSphereScene(), nil, DefaultPixelSampler); err != nil {
		t.Fatal(err)
	}
	b := software.NewBackend(2, 2, software.WithKernel(ProgramKey, echoKernel))

	if err := tr.Render(b, nil); err != nil {
		t.Fatal(err)
	}
	first := tr.Seeds()
	if err := tr.Render(b, nil); err != nil {
		t.Fatal(err)
	}
	second := tr.Seeds()

	if len(first) != 16 || slices.Equal(first, second) {
		t.Fatalf("seeds not refreshed: %v then %v", first, second)
	}
	for _, s := range second {
		if s < 0 || s >= 1 {
			t.Fatalf("seed %v outside [0,1)", s)
		}
	}

	// same source, same sequence
	again := NewTracer(WithRandomSeedCount(16), WithRandomSource(rand.NewPCG(1, 2)))
	_ = again.Update(redSphereScene(), nil, DefaultPixelSampler)
	_ = again.Render(b, nil)
	if !slices.Equal(again.Seeds(), first) {
		t.Fatal("seeds are not reproducible from a fixed source")
	}
}

func TestProgramReuse(t *testing.T) {
	tr := NewTracer()
	if err := tr.Update(redSphereScene(), nil, DefaultPixelSampler); err != nil {
		t.Fatal(err)
	}
	first := tr.Program()

	cam := camera.NewCamera(camera.WithPosition(mgl32.Vec3{0, 1, 3}))
	if err := tr.Update(redSphereScene(), cam, DefaultPixelSampler); err != nil {
		t.Fatal(err)
	}
	if tr.Program() != first {
		t.Fatal("program rebuilt although the specialized source is unchanged")
	}
	if tr.Camera() != cam {
		t.Fatal("camera not replaced")
	}

	grown := scene.NewScene(
		scene.WithMaterials(scene.Lambert{Color: mgl32.Vec3{1, 0, 0}}),
		scene.WithGeometry(
			scene.Geometry{Shape: scene.Sphere{Position: mgl32.Vec3{0, 0, -5}, Radius: 1}},
			scene.Geometry{Shape: scene.Sphere{Position: mgl32.Vec3{2, 0, -5}, Radius: 1}},
		),
	)
	if err := tr.Update(grown, nil, DefaultPixelSampler); err != nil {
		t.Fatal(err)
	}
	if tr.Program() == first {
		t.Fatal("program reused across different sphere counts")
	}
}

func TestSceneIsCopiedOnUpdate(t *testing.T) {
	tr := NewTracer()
	s := redSphereScene()
	if err := tr.Update(s, nil, DefaultPixelSampler); err != nil {
		t.Fatal(err)
	}
	held := tr.Scene()
	if held == s {
		t.Fatal("tracer returned the caller's scene")
	}
	if !slices.Equal(held.Materials(), s.Materials()) || len(held.Geometry()) != 1 {
		t.Fatalf("scene copy differs: %v", held.Materials())
	}
}

func TestUpdateErrors(t *testing.T) {
	t.Run("stratifier", func(t *testing.T) {
		tr := NewTracer()
		var unsupported *UnsupportedStratifierError
		err := tr.Update(redSphereScene(), nil, PixelSampler{Stratifier: "poisson", Degree: 2})
		if !errors.As(err, &unsupported) || unsupported.Stratifier != "poisson" {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("degree floor", func(t *testing.T) {
		tr := NewTracer()
		if err := tr.Update(redSphereScene(), nil, PixelSampler{Stratifier: StratifierGrid}); err != nil {
			t.Fatal(err)
		}
		if tr.PixelSampler().Degree != 1 {
			t.Fatalf("degree = %d, want 1", tr.PixelSampler().Degree)
		}
	})

	t.Run("compiler error leaves state untouched", func(t *testing.T) {
		tr := NewTracer()
		bad := scene.NewScene(scene.WithGeometry(scene.Geometry{Shape: scene.Sphere{Radius: 1}, MaterialIndex: 5}))
		var unresolved *compiler.UnresolvedMaterialError
		if err := tr.Update(bad, nil, DefaultPixelSampler); !errors.As(err, &unresolved) || unresolved.MaterialIndex != 5 {
			t.Fatalf("got %v", err)
		}
		if tr.Program() != nil {
			t.Fatal("failed Update installed a program")
		}
	})
}

func TestUniformBlockLayout(t *testing.T) {
	cam := camera.NewCamera(camera.WithPosition(mgl32.Vec3{1, 2, 3}))
	block := newGPUTracerUniforms(cam, 640, 480, 4)
	if block.Size() != 160 {
		t.Fatalf("size = %d", block.Size())
	}
	data := block.Marshal()
	if len(data) != 160 {
		t.Fatalf("marshalled %d bytes", len(data))
	}
	if data[140] != 4 {
		t.Errorf("grid degree byte = %d", data[140])
	}
}

// rejectingProgram fails the first scene binding other than the uniform block, then accepts everything.
type rejectingProgram struct {
	renderer.Program
	armed bool
}

func (p *rejectingProgram) SetUniform(name string, u renderer.Uniform) error {
	if p.armed && name != UniformTracer {
		p.armed = false
		return errors.New("binding rejected")
	}
	return p.Program.SetUniform(name, u)
}

func TestFailedRebindRestoresUniforms(t *testing.T) {
	tr := NewTracer(WithResolution(4, 4))
	if err := tr.Update(redSphereScene(), nil, DefaultPixelSampler); err != nil {
		t.Fatal(err)
	}
	live := tr.Program()
	before, ok := live.Uniform(UniformTracer)
	if !ok {
		t.Fatal("uniform block not bound")
	}

	buffers, _, err := compiler.Compile(redSphereScene())
	if err != nil {
		t.Fatal(err)
	}
	moved := camera.NewCamera(camera.WithPosition(mgl32.Vec3{0, 2, 4}))
	uniforms := newGPUTracerUniforms(moved, 4, 4, 1)
	block := uniforms.Marshal()
	if bytes.Equal(block, before.(renderer.BufferUniform).Data) {
		t.Fatal("moved camera produced the same uniform block")
	}

	p := &rejectingProgram{Program: live, armed: true}
	if err := rebindScene(p, buffers, block); err == nil {
		t.Fatal("rejected binding reported no error")
	}
	after, _ := live.Uniform(UniformTracer)
	if !bytes.Equal(after.(renderer.BufferUniform).Data, before.(renderer.BufferUniform).Data) {
		t.Fatal("uniform block left pointing at the failed scene")
	}
}
