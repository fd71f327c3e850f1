package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-trace/engine/camera"
	"github.com/Carmen-Shannon/oxy-trace/engine/compiler"
	"github.com/Carmen-Shannon/oxy-trace/engine/composer"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/software"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene"
	"github.com/Carmen-Shannon/oxy-trace/engine/tracer"
	"github.com/go-gl/mathgl/mgl32"
)

// flatKernel shades every pixel with the first seed so consecutive samples differ.
func flatKernel(in *software.Inputs) (software.PixelFunc, error) {
	seeds, err := in.Texture(tracer.UniformRandomSeeds)
	if err != nil {
		return nil, err
	}
	v := seeds.At(0, 0).X()
	return func(int, int) mgl32.Vec4 { return mgl32.Vec4{v, v, v, 1} }, nil
}

type fixture struct {
	backend  software.Backend
	tracer   tracer.Tracer
	composer composer.Composer
	camera   camera.Camera
	engine   Engine
}

func newFixture(t *testing.T, opts ...EngineBuilderOption) *fixture {
	t.Helper()
	b := software.NewBackend(4, 4,
		software.WithWorkers(2),
		software.WithKernel(tracer.ProgramKey, flatKernel),
		software.WithKernel(composer.AddProgramKey, software.AddKernel),
		software.WithKernel(composer.DivideProgramKey, software.DivideKernel),
	)
	c, err := composer.NewComposer(b, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{
		backend:  b,
		tracer:   tracer.NewTracer(tracer.WithResolution(4, 4), tracer.WithRandomSeedCount(4)),
		composer: c,
		camera:   camera.NewCamera(),
	}
	f.engine = NewEngine(opts...)
	f.engine.SetView(f.tracer, f.composer, f.backend)
	f.engine.SetCamera(f.camera)
	f.engine.SetScene(scene.NewScene(
		scene.WithMaterials(scene.Lambert{Color: mgl32.Vec3{1, 1, 1}}),
		scene.WithGeometry(scene.Geometry{Shape: scene.Sphere{Position: mgl32.Vec3{0, 0, -3}, Radius: 1}}),
	))
	return f
}

func (f *fixture) frames(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := f.engine.RenderFrame(); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
}

func TestFramesAccumulate(t *testing.T) {
	f := newFixture(t)
	f.frames(t, 5)
	if got := f.engine.PassCount(); got != 5 {
		t.Fatalf("PassCount = %d, want 5", got)
	}
	if f.tracer.Program() == nil {
		t.Fatal("tracer never updated")
	}
}

func TestMaxPassesStopsAccumulating(t *testing.T) {
	f := newFixture(t, WithMaxPasses(3))
	f.frames(t, 3)
	if !f.engine.Converged() {
		t.Fatal("not converged after 3 passes")
	}
	before := f.backend.Renders()
	traced, err := f.engine.RenderFrame()
	if err != nil || traced {
		t.Fatalf("frame after convergence traced=%v err=%v", traced, err)
	}
	if f.backend.Renders() != before || f.composer.PassCount() != 3 {
		t.Fatal("converged engine kept rendering")
	}
}

func TestCameraMovementRestartsAccumulation(t *testing.T) {
	f := newFixture(t)
	f.frames(t, 4)

	f.camera.SetPosition(mgl32.Vec3{0, 1, 0})
	f.frames(t, 1)
	if got := f.composer.PassCount(); got != 1 {
		t.Fatalf("PassCount after camera move = %d, want 1", got)
	}
}

func TestInvalidateAndResize(t *testing.T) {
	f := newFixture(t)
	f.frames(t, 3)

	f.engine.Invalidate()
	f.frames(t, 1)
	if f.composer.PassCount() != 1 {
		t.Fatalf("PassCount after Invalidate = %d", f.composer.PassCount())
	}

	f.engine.Resize(6, 3)
	f.frames(t, 2)
	if w, h := f.composer.Resolution(); w != 6 || h != 3 {
		t.Fatalf("composer resolution = %dx%d", w, h)
	}
	if w, h := f.tracer.Resolution(); w != 6 || h != 3 {
		t.Fatalf("tracer resolution = %dx%d", w, h)
	}
	if f.backend.Surface().Width() != 6 {
		t.Fatalf("surface width = %d", f.backend.Surface().Width())
	}
	if f.camera.Aspect() != 2 {
		t.Fatalf("camera aspect = %v", f.camera.Aspect())
	}
	if f.composer.PassCount() != 2 {
		t.Fatalf("PassCount after resize = %d", f.composer.PassCount())
	}
}

func TestBrokenSceneReportsAndIdles(t *testing.T) {
	f := newFixture(t)
	f.engine.SetScene(scene.NewScene(
		scene.WithGeometry(scene.Geometry{Shape: scene.Sphere{Radius: 1}, MaterialIndex: 2}),
	))
	var unresolved *compiler.UnresolvedMaterialError
	if _, err := f.engine.RenderFrame(); !errors.As(err, &unresolved) {
		t.Fatalf("got %v, want UnresolvedMaterialError", err)
	}
	traced, err := f.engine.RenderFrame()
	if traced || err != nil {
		t.Fatalf("broken scene traced=%v err=%v", traced, err)
	}
}

func TestNoViewIsIdle(t *testing.T) {
	e := NewEngine()
	if traced, err := e.RenderFrame(); traced || err != nil {
		t.Fatalf("traced=%v err=%v", traced, err)
	}
}

// failingTargets refuses to allocate render targets while fail is set.
type failingTargets struct {
	software.Backend
	fail bool
}

func (b *failingTargets) CreateTarget(label string, width, height int) (renderer.Target, error) {
	if b.fail {
		return nil, errors.New("out of memory")
	}
	return b.Backend.CreateTarget(label, width, height)
}

func TestFailedResizeKeepsViewConsistentAndRetries(t *testing.T) {
	f := newFixture(t)
	f.frames(t, 2)

	b := &failingTargets{Backend: f.backend, fail: true}
	f.engine.SetView(f.tracer, f.composer, b)
	f.engine.Resize(6, 3)
	if _, err := f.engine.RenderFrame(); err == nil {
		t.Fatal("resize with failing allocation reported no error")
	}
	if w, h := f.tracer.Resolution(); w != 4 || h != 4 {
		t.Fatalf("tracer resolution after failed resize = %dx%d, want 4x4", w, h)
	}
	if w, h := f.composer.Resolution(); w != 4 || h != 4 {
		t.Fatalf("composer resolution after failed resize = %dx%d, want 4x4", w, h)
	}
	if f.backend.Surface().Width() != 4 {
		t.Fatalf("surface width after failed resize = %d", f.backend.Surface().Width())
	}

	b.fail = false
	f.frames(t, 1)
	if w, h := f.tracer.Resolution(); w != 6 || h != 3 {
		t.Fatalf("tracer resolution after retry = %dx%d, want 6x3", w, h)
	}
	if w, h := f.composer.Resolution(); w != 6 || h != 3 {
		t.Fatalf("composer resolution after retry = %dx%d, want 6x3", w, h)
	}
}

func TestTickRateChangesWhileRunning(t *testing.T) {
	f := newFixture(t, WithMaxPasses(1))
	done := make(chan struct{})
	go func() {
		f.engine.Run()
		close(done)
	}()

	for fps := 100.0; fps <= 1000; fps += 100 {
		f.engine.SetTickRate(fps)
		time.Sleep(time.Millisecond)
	}
	want := time.Second / 1000
	deadline := time.Now().Add(2 * time.Second)
	for f.engine.(*engine).tickRate() != want {
		if time.Now().After(deadline) {
			t.Fatalf("tick rate = %v, want %v", f.engine.(*engine).tickRate(), want)
		}
		time.Sleep(time.Millisecond)
	}

	f.engine.Quit()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop")
	}
}
