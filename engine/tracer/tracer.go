package tracer

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/camera"
	"github.com/Carmen-Shannon/oxy-trace/engine/compiler"
	"github.com/Carmen-Shannon/oxy-trace/engine/logger"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene"
	"github.com/Carmen-Shannon/oxy-trace/engine/screen"
	"go.uber.org/zap"
)

var (
	//go:embed assets/tracer_vertex.wgsl
	vertexSource string

	//go:embed assets/tracer_fragment.wgsl
	fragmentSource string
)

// DefaultTemplate is the built-in path tracing program. Its fragment stage references every count placeholder.
var DefaultTemplate = shader.Template{Vertex: vertexSource, Fragment: fragmentSource}

const (
	// ProgramKey identifies the tracer's program to backends.
	ProgramKey = "tracer"

	// DefaultRandomSeedCount is the number of random seeds uploaded per render.
	DefaultRandomSeedCount = 1000

	// Uniform names declared by DefaultTemplate in addition to the compiled array bindings.
	UniformTracer      = "tracer"
	UniformRandomSeeds = "random_seeds"
)

// Stratifier selects how sample positions are distributed inside a pixel.
type Stratifier string

// StratifierGrid jitters each sample inside one cell of a degree x degree grid.
const StratifierGrid Stratifier = "grid"

// PixelSampler configures per-pixel sample placement.
type PixelSampler struct {
	Stratifier Stratifier
	Degree     int
}

// DefaultPixelSampler is a degree 4 grid.
var DefaultPixelSampler = PixelSampler{Stratifier: StratifierGrid, Degree: 4}

type tracerImpl struct {
	mu *sync.Mutex

	width  int
	height int

	sampler   PixelSampler
	seedCount int
	rng       *rand.Rand
	seeds     []float32

	strict      bool
	template    shader.Template
	specializer shader.Specializer
	screen      screen.Screen

	scene  scene.Scene
	camera camera.Camera

	buffers     *compiler.CompiledBuffers
	indexMap    compiler.MaterialIndexMap
	specialized shader.SpecializedProgram
	program     renderer.Program
}

// Tracer renders one noisy sample of a scene per call by drawing a full-screen quad with a program specialized
// for that scene's element counts. Update rebuilds everything scene dependent; Render only refreshes the random
// seeds and draws.
type Tracer interface {
	// Update compiles the scene, specializes the shader template to its counts, and binds every uniform.
	// The scene is copied, so later changes to the caller's scene are not observed. The previous program is
	// reused when the specialized source did not change. A nil scene or camera keeps the current one.
	//
	// Parameters:
	//   - s: the scene to trace
	//   - cam: the camera to trace from
	//   - ps: the pixel sampler; a degree below 1 is treated as 1
	//
	// Returns:
	//   - error: *UnsupportedStratifierError, or the compiler, specializer, or shader error unchanged
	Update(s scene.Scene, cam camera.Camera, ps PixelSampler) error

	// Render draws one sample into target, or into the surface when target is nil. Fresh random seeds are
	// uploaded on every call.
	//
	// Parameters:
	//   - b: the backend to render with
	//   - target: the destination target, or nil for the surface
	//
	// Returns:
	//   - error: ErrNotUpdated before the first Update, otherwise the backend's error
	Render(b renderer.Backend, target renderer.Target) error

	// SetResolution changes the render resolution. It is applied to the uniforms on the next Update.
	//
	// Parameters:
	//   - width, height: the new resolution in pixels
	SetResolution(width, height int)

	// Resolution returns the configured render resolution.
	//
	// Returns:
	//   - int, int: width and height in pixels
	Resolution() (int, int)

	// Scene returns a copy of the scene last passed to Update.
	Scene() scene.Scene

	Camera() camera.Camera
	PixelSampler() PixelSampler

	// Buffers returns the buffers compiled by the last Update, or nil.
	Buffers() *compiler.CompiledBuffers

	// MaterialIndex returns a copy of the material index map built by the last Update.
	MaterialIndex() compiler.MaterialIndexMap

	// Program returns the current program, or nil before the first Update.
	Program() renderer.Program

	// Seeds returns a copy of the seeds uploaded by the last Render.
	Seeds() []float32

	// Specialized returns the specialized sources of the current program.
	Specialized() shader.SpecializedProgram
}

var _ Tracer = &tracerImpl{}

// NewTracer creates a tracer rendering at 100x100 with a degree 4 grid sampler, 1000 random seeds, an empty
// scene and a 75 degree perspective camera.
//
// Parameters:
//   - options: functional options to configure the tracer
//
// Returns:
//   - Tracer: the new tracer
func NewTracer(options ...TracerBuilderOption) Tracer {
	t := &tracerImpl{
		mu:        &sync.Mutex{},
		width:     100,
		height:    100,
		sampler:   DefaultPixelSampler,
		seedCount: DefaultRandomSeedCount,
		template:  DefaultTemplate,
	}
	for _, option := range options {
		option(t)
	}
	if t.specializer == nil {
		t.specializer = shader.NewSpecializer(shader.WithStrictValidation(t.strict))
	}
	if t.rng == nil {
		t.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if t.screen == nil {
		t.screen = screen.NewScreen("tracer screen")
	}
	if t.scene == nil {
		t.scene = scene.NewScene()
	}
	if t.camera == nil {
		t.camera = camera.NewCamera()
	}
	t.seedCount = max(t.seedCount, 1)
	return t
}

func (t *tracerImpl) Update(s scene.Scene, cam camera.Camera, ps PixelSampler) error {
	if ps.Stratifier != StratifierGrid {
		return &UnsupportedStratifierError{Stratifier: ps.Stratifier}
	}
	ps.Degree = max(ps.Degree, 1)

	t.mu.Lock()
	defer t.mu.Unlock()

	if s == nil {
		s = t.scene
	}
	s = s.Clone()
	if cam == nil {
		cam = t.camera
	}

	buffers, indexMap, err := compiler.Compile(s)
	if err != nil {
		return err
	}
	specialized, err := t.specializer.Specialize(t.template, buffers.Counts(t.seedCount))
	if err != nil {
		return err
	}

	program := t.program
	reused := program != nil && specialized.Equal(t.specialized)
	if !reused {
		program, err = buildProgram(specialized)
		if err != nil {
			return err
		}
	}

	uniforms := newGPUTracerUniforms(cam, t.width, t.height, ps.Degree)
	bind := bindScene
	if reused {
		bind = rebindScene
	}
	if err := bind(program, buffers, uniforms.Marshal()); err != nil {
		if !reused {
			program.Release()
		}
		return err
	}

	if !reused && t.program != nil {
		t.program.Release()
	}
	t.program = program
	t.specialized = specialized
	t.buffers = buffers
	t.indexMap = indexMap
	t.scene = s
	t.camera = cam
	t.sampler = ps
	t.screen.SetProgram(program)

	logger.Log.Debug("tracer updated",
		zap.Any("counts", specialized.Counts),
		zap.Bool("program_reused", reused),
		zap.Int("width", t.width),
		zap.Int("height", t.height),
	)
	return nil
}

func (t *tracerImpl) Render(b renderer.Backend, target renderer.Target) error {
	t.mu.Lock()
	if t.program == nil {
		t.mu.Unlock()
		return ErrNotUpdated
	}
	seeds := make([]float32, t.seedCount)
	for i := range seeds {
		seeds[i] = t.rng.Float32()
	}
	t.seeds = seeds
	err := t.program.SetUniform(UniformRandomSeeds, renderer.TextureUniform{Texture: common.FromFloatArray(seeds)})
	t.mu.Unlock()
	if err != nil {
		return err
	}
	return t.screen.Draw(b, target)
}

func (t *tracerImpl) SetResolution(width, height int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.width, t.height = width, height
}

func (t *tracerImpl) Resolution() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.width, t.height
}

func (t *tracerImpl) Scene() scene.Scene {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scene.Clone()
}

func (t *tracerImpl) Camera() camera.Camera {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.camera
}

func (t *tracerImpl) PixelSampler() PixelSampler {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sampler
}

func (t *tracerImpl) Buffers() *compiler.CompiledBuffers {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buffers
}

func (t *tracerImpl) MaterialIndex() compiler.MaterialIndexMap {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.indexMap)
}

func (t *tracerImpl) Program() renderer.Program {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.program
}

func (t *tracerImpl) Seeds() []float32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.seeds)
}

func (t *tracerImpl) Specialized() shader.SpecializedProgram {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.specialized
}

// buildProgram parses both specialized stages and pairs them under ProgramKey.
func buildProgram(sp shader.SpecializedProgram) (renderer.Program, error) {
	vs, err := shader.NewShader(ProgramKey+"_vertex", shader.ShaderTypeVertex, sp.Vertex)
	if err != nil {
		return nil, err
	}
	fs, err := shader.NewShader(ProgramKey+"_fragment", shader.ShaderTypeFragment, sp.Fragment)
	if err != nil {
		return nil, err
	}
	return renderer.NewProgram(ProgramKey, vs, fs)
}

// bindScene uploads the uniform block, the data textures and the storage arrays. Only names the program declares
// are bound, so custom templates may use a subset of the compiled arrays.
// rebindScene binds a scene into a program that is already live. On failure the program's previous uniforms are
// restored so it keeps matching the scene the tracer still reports.
func rebindScene(p renderer.Program, buffers *compiler.CompiledBuffers, block []byte) error {
	previous := p.Uniforms()
	err := bindScene(p, buffers, block)
	if err == nil {
		return nil
	}
	for name, u := range previous {
		if rerr := p.SetUniform(name, u); rerr != nil {
			err = errors.Join(err, rerr)
		}
	}
	return err
}

func bindScene(p renderer.Program, buffers *compiler.CompiledBuffers, block []byte) error {
	declared := func(name string) bool {
		return slices.ContainsFunc(p.Bindings(), func(b shader.Binding) bool { return b.Name == name })
	}
	if err := p.SetUniform(UniformTracer, renderer.BufferUniform{Data: block}); err != nil {
		return fmt.Errorf("tracer: bind %s: %w", UniformTracer, err)
	}
	for name, tex := range buffers.DataTextures() {
		if !declared(name) {
			continue
		}
		if err := p.SetUniform(name, renderer.TextureUniform{Texture: tex}); err != nil {
			return fmt.Errorf("tracer: bind %s: %w", name, err)
		}
	}
	for name, data := range buffers.StorageArrays() {
		if !declared(name) {
			continue
		}
		if err := p.SetUniform(name, renderer.BufferUniform{Data: data}); err != nil {
			return fmt.Errorf("tracer: bind %s: %w", name, err)
		}
	}
	return nil
}
