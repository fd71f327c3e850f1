package composer

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-trace/engine/logger"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-trace/engine/screen"
	"go.uber.org/zap"
)

var (
	//go:embed assets/screen_vertex.wgsl
	vertexSource string

	//go:embed assets/add_fragment.wgsl
	addSource string

	//go:embed assets/divide_fragment.wgsl
	divideSource string
)

const (
	// AddProgramKey identifies the pass that sums a sample into the running total.
	AddProgramKey = "composer_add"

	// DivideProgramKey identifies the pass that divides the running total by the pass count.
	DivideProgramKey = "composer_divide"

	// Uniform names declared by the composer's shaders.
	UniformA        = "a"
	UniformB        = "b"
	UniformDividend = "dividend"
	UniformDivisor  = "divisor"
)

type composerImpl struct {
	mu *sync.Mutex

	width  int
	height int

	current renderer.Target
	sumIn   renderer.Target
	sumOut  renderer.Target
	// output is nil when the averaged image goes to the surface.
	output    renderer.Target
	offscreen bool

	passCount int

	add    renderer.Program
	divide renderer.Program
	screen screen.Screen
}

// Composer accumulates tracer samples into a running mean.
// Each Process adds one sample to the running sum held in a pair of targets, draws sum / passCount to the output,
// and swaps the pair so the new sum becomes the next pass's input. The averaging is done by the divide shader.
type Composer interface {
	// Clear discards the running sum and resets the pass count to zero.
	//
	// Parameters:
	//   - b: the backend that owns the targets
	//
	// Returns:
	//   - error: error if the replacement sum target cannot be allocated
	Clear(b renderer.Backend) error

	// Process accumulates one sample and redraws the average.
	// If the add pass fails the pass count is restored and nothing is swapped. If the divide pass fails the
	// running sum is still swapped in, since it already includes the sample, and the error is returned.
	//
	// Parameters:
	//   - b: the backend to render with
	//   - sample: the sample to accumulate, or nil for Current()
	//
	// Returns:
	//   - error: the add or divide pass error
	Process(b renderer.Backend, sample renderer.Target) error

	// Update reallocates every target at a new resolution. Contents are not preserved, so the pass count
	// is reset to zero.
	//
	// Parameters:
	//   - b: the backend that owns the targets
	//   - width, height: the new resolution in pixels
	//
	// Returns:
	//   - error: error if a target cannot be allocated; the previous targets are kept in that case
	Update(b renderer.Backend, width, height int) error

	// Target returns the target holding the latest average, or nil when it is drawn to the surface.
	Target() renderer.Target

	// Current returns the target the tracer renders its sample into.
	Current() renderer.Target

	SumIn() renderer.Target
	SumOut() renderer.Target
	PassCount() int
	Resolution() (int, int)

	// Release frees the composer's targets and programs.
	Release()
}

var _ Composer = &composerImpl{}

// NewComposer builds the add and divide programs and allocates the current sample and the running sum pair.
//
// Parameters:
//   - b: the backend to allocate targets on
//   - width, height: the accumulation resolution in pixels
//   - options: functional options to configure the composer
//
// Returns:
//   - Composer: the new composer in the empty state
//   - error: error if a program cannot be built or a target cannot be allocated
func NewComposer(b renderer.Backend, width, height int, options ...ComposerBuilderOption) (Composer, error) {
	c := &composerImpl{
		mu:     &sync.Mutex{},
		screen: screen.NewScreen("composer screen"),
	}
	for _, option := range options {
		option(c)
	}

	var err error
	if c.add, err = newProgram(AddProgramKey, addSource); err != nil {
		return nil, err
	}
	if c.divide, err = newProgram(DivideProgramKey, divideSource); err != nil {
		c.add.Release()
		return nil, err
	}
	if err := c.allocate(b, width, height); err != nil {
		c.add.Release()
		c.divide.Release()
		return nil, err
	}
	return c, nil
}

func newProgram(key, fragment string) (renderer.Program, error) {
	vs, err := shader.NewShader(key+"_vertex", shader.ShaderTypeVertex, vertexSource)
	if err != nil {
		return nil, fmt.Errorf("composer: %w", err)
	}
	fs, err := shader.NewShader(key+"_fragment", shader.ShaderTypeFragment, fragment)
	if err != nil {
		return nil, fmt.Errorf("composer: %w", err)
	}
	return renderer.NewProgram(key, vs, fs)
}

// allocate creates a full set of targets and swaps them in only once all succeeded. Caller must hold the mutex or
// own the composer exclusively.
func (c *composerImpl) allocate(b renderer.Backend, width, height int) error {
	labels := []string{"composer current", "composer sum a", "composer sum b"}
	if c.offscreen {
		labels = append(labels, "composer output")
	}
	targets := make([]renderer.Target, 0, len(labels))
	for _, label := range labels {
		t, err := b.CreateTarget(label, width, height)
		if err != nil {
			for _, made := range targets {
				made.Release()
			}
			return fmt.Errorf("composer: allocate %s: %w", label, err)
		}
		targets = append(targets, t)
	}

	c.releaseTargets()
	c.current, c.sumIn, c.sumOut = targets[0], targets[1], targets[2]
	if c.offscreen {
		c.output = targets[3]
	}
	c.width, c.height = width, height
	c.passCount = 0
	return nil
}

func (c *composerImpl) releaseTargets() {
	for _, t := range []renderer.Target{c.current, c.sumIn, c.sumOut, c.output} {
		if t != nil {
			t.Release()
		}
	}
	c.current, c.sumIn, c.sumOut, c.output = nil, nil, nil, nil
}

func (c *composerImpl) Clear(b renderer.Backend) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	fresh, err := b.CreateTarget("composer sum a", c.width, c.height)
	if err != nil {
		return fmt.Errorf("composer: clear: %w", err)
	}
	c.sumIn.Release()
	c.sumIn = fresh
	c.passCount = 0
	logger.Log.Debug("composer cleared", zap.Int("width", c.width), zap.Int("height", c.height))
	return nil
}

func (c *composerImpl) Process(b renderer.Backend, sample renderer.Target) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sample == nil {
		sample = c.current
	}
	c.passCount++

	if err := c.runAdd(b, sample); err != nil {
		c.passCount--
		return fmt.Errorf("composer: add: %w", err)
	}

	divErr := c.runDivide(b)
	c.sumIn, c.sumOut = c.sumOut, c.sumIn
	if divErr != nil {
		return fmt.Errorf("composer: divide: %w", divErr)
	}
	return nil
}

func (c *composerImpl) runAdd(b renderer.Backend, sample renderer.Target) error {
	if err := c.add.SetUniform(UniformA, renderer.TargetUniform{Target: sample}); err != nil {
		return err
	}
	if err := c.add.SetUniform(UniformB, renderer.TargetUniform{Target: c.sumIn}); err != nil {
		return err
	}
	c.screen.SetProgram(c.add)
	return c.screen.Draw(b, c.sumOut)
}

func (c *composerImpl) runDivide(b renderer.Backend) error {
	if err := c.divide.SetUniform(UniformDividend, renderer.TargetUniform{Target: c.sumOut}); err != nil {
		return err
	}
	params := GPUDivideParams{PassCount: uint32(c.passCount)}
	if err := c.divide.SetUniform(UniformDivisor, renderer.BufferUniform{Data: params.Marshal()}); err != nil {
		return err
	}
	c.screen.SetProgram(c.divide)
	return c.screen.Draw(b, c.output)
}

func (c *composerImpl) Update(b renderer.Backend, width, height int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.allocate(b, width, height); err != nil {
		return err
	}
	logger.Log.Debug("composer resized", zap.Int("width", width), zap.Int("height", height))
	return nil
}

func (c *composerImpl) Target() renderer.Target {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.output
}

func (c *composerImpl) Current() renderer.Target {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *composerImpl) SumIn() renderer.Target {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sumIn
}

func (c *composerImpl) SumOut() renderer.Target {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sumOut
}

func (c *composerImpl) PassCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.passCount
}

func (c *composerImpl) Resolution() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *composerImpl) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseTargets()
	c.add.Release()
	c.divide.Release()
}
