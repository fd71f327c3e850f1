package engine

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-trace/engine/camera"
	"github.com/Carmen-Shannon/oxy-trace/engine/composer"
	"github.com/Carmen-Shannon/oxy-trace/engine/logger"
	"github.com/Carmen-Shannon/oxy-trace/engine/profiler"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene"
	"github.com/Carmen-Shannon/oxy-trace/engine/tracer"
	"github.com/Carmen-Shannon/oxy-trace/engine/window"
	"go.uber.org/zap"
)

// surfaceResizer is implemented by backends that own a presentable surface.
type surfaceResizer interface {
	Resize(width, height int)
}

type engine struct {
	tickRateChannel chan time.Duration

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once

	window window.Window

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	// engineTickRate is read by the render goroutine while the tick goroutine may replace it.
	engineTickRate   atomic.Int64
	tickCallback     func(deltaTime float32)
	renderCallback   func(deltaTime float32)
	renderFrameLimit time.Duration

	// mu guards the view and the invalidation state below; the render goroutine snapshots them once per frame.
	mu           *sync.Mutex
	tracer       tracer.Tracer
	composer     composer.Composer
	backend      renderer.Backend
	scene        scene.Scene
	camera       camera.Camera
	maxPasses    int
	dirty        bool
	ready        bool
	lastRevision uint64
	resize       *[2]int
}

// Engine drives progressive rendering. A tick goroutine moves the camera at a fixed rate; a render goroutine
// traces one sample per frame into the composer until the image converges, and starts over whenever the scene,
// the camera, or the resolution changes.
type Engine interface {
	// Window returns the window the engine was built with, or nil when headless.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// SetView installs the tracer, accumulator and backend used by the render loop and invalidates the image.
	//
	// Parameters:
	//   - t: the tracer producing samples
	//   - c: the composer averaging them
	//   - b: the backend both render with
	SetView(t tracer.Tracer, c composer.Composer, b renderer.Backend)

	// SetScene replaces the traced scene and invalidates the image.
	//
	// Parameters:
	//   - s: the new scene; it is copied
	SetScene(s scene.Scene)

	// SetCamera replaces the camera and invalidates the image. Camera movement is detected through its revision,
	// so moving the installed camera needs no further call.
	//
	// Parameters:
	//   - cam: the camera to trace from
	SetCamera(cam camera.Camera)

	// Invalidate discards the accumulated image; the next frame recompiles the scene and starts over.
	Invalidate()

	// Resize queues a resolution change for the surface, the tracer and the composer.
	//
	// Parameters:
	//   - width, height: the new resolution in pixels
	Resize(width, height int)

	// SetMaxPasses caps accumulation. Zero accumulates forever.
	//
	// Parameters:
	//   - n: the pass cap
	SetMaxPasses(n int)

	// RenderFrame runs one iteration of the render loop on the calling goroutine.
	//
	// Returns:
	//   - bool: true if a sample was traced and accumulated
	//   - error: the tracer or composer error
	RenderFrame() (bool, error)

	// Converged reports whether the pass cap has been reached.
	Converged() bool

	// PassCount returns the number of samples in the current image, or 0 without a view.
	PassCount() int

	EnableProfiler()
	DisableProfiler()

	// SetTickRate sets the tick rate in ticks per second.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each tick, after the camera has pulled its controller.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each render frame.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit caps the render loop in frames per second. Pass 0 to uncap it.
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run starts the tick and render goroutines and blocks until the window closes or Quit is called.
	Run()

	// Quit signals all engine goroutines to stop. Safe to call multiple times.
	Quit()
}

// NewEngine creates an Engine. Without a window it runs headless until Quit.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		profiler:        profiler.NewProfiler(time.Second),
		mu:              &sync.Mutex{},
		dirty:           true,
	}
	e.engineTickRate.Store(int64(time.Second / 60))
	for _, opt := range options {
		opt(e)
	}
	if e.window != nil {
		e.window.SetResizeCallback(e.Resize)
	}
	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) SetView(t tracer.Tracer, c composer.Composer, b renderer.Backend) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tracer, e.composer, e.backend = t, c, b
	e.dirty = true
}

func (e *engine) SetScene(s scene.Scene) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s != nil {
		s = s.Clone()
	}
	e.scene = s
	e.dirty = true
}

func (e *engine) SetCamera(cam camera.Camera) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.camera = cam
	e.dirty = true
}

func (e *engine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dirty = true
}

func (e *engine) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		// minimized
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resize = &[2]int{width, height}
}

// requeueResize keeps a resize that could not be applied pending so the next frame retries it, unless a newer
// one arrived meanwhile.
func (e *engine) requeueResize(resize *[2]int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.resize == nil {
		e.resize = resize
	}
	e.dirty = true
}

func (e *engine) SetMaxPasses(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.maxPasses = max(n, 0)
}

func (e *engine) Converged() bool {
	e.mu.Lock()
	c, limit := e.composer, e.maxPasses
	e.mu.Unlock()
	return c != nil && limit > 0 && c.PassCount() >= limit
}

func (e *engine) PassCount() int {
	e.mu.Lock()
	c := e.composer
	e.mu.Unlock()
	if c == nil {
		return 0
	}
	return c.PassCount()
}

func (e *engine) RenderFrame() (bool, error) {
	e.mu.Lock()
	tr, comp, b := e.tracer, e.composer, e.backend
	sc, cam, limit := e.scene, e.camera, e.maxPasses
	resize, dirty := e.resize, e.dirty
	e.resize, e.dirty = nil, false
	e.mu.Unlock()

	if tr == nil || comp == nil || b == nil {
		return false, nil
	}
	if cam == nil {
		cam = tr.Camera()
	}

	if resize != nil {
		w, h := resize[0], resize[1]
		if err := comp.Update(b, w, h); err != nil {
			e.requeueResize(resize)
			return false, fmt.Errorf("engine: resize: %w", err)
		}
		if r, ok := b.(surfaceResizer); ok {
			r.Resize(w, h)
		}
		tr.SetResolution(w, h)
		if cam != nil {
			cam.SetAspect(float32(w) / float32(h))
		}
		dirty = true
	}

	if cam != nil {
		if rev := cam.Revision(); rev != e.lastRevision {
			e.lastRevision = rev
			dirty = true
		}
	}

	if dirty {
		logger.Log.Debug("accumulation invalidated", zap.Int("passes", comp.PassCount()))
		e.ready = false
		if err := tr.Update(sc, cam, tr.PixelSampler()); err != nil {
			return false, fmt.Errorf("engine: update tracer: %w", err)
		}
		if err := comp.Clear(b); err != nil {
			return false, fmt.Errorf("engine: clear: %w", err)
		}
		e.ready = true
	}

	if !e.ready || (limit > 0 && comp.PassCount() >= limit) {
		return false, nil
	}
	if err := tr.Render(b, comp.Current()); err != nil {
		return false, fmt.Errorf("engine: trace: %w", err)
	}
	if err := comp.Process(b, nil); err != nil {
		return false, fmt.Errorf("engine: accumulate: %w", err)
	}
	return true, nil
}

func (e *engine) Run() {
	e.running.Store(true)
	e.handle()
	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	}
	e.wg.Wait()
}

func (e *engine) Quit() {
	e.signalQuit()
}

func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running.Store(false)
		close(e.quitChannel)
	})
}

// handle launches the tick and render goroutines. Each is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleRender()
}

// handleEngine runs the fixed-rate tick loop. The camera pulls its controller before the tick callback runs.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.tickRate())
	defer ticker.Stop()
	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			e.mu.Lock()
			cam := e.camera
			e.mu.Unlock()
			if cam != nil {
				cam.Update()
			}
			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate.Store(int64(newRate))
		}
	}
}

// handleRender runs the render loop. A panic is logged and shuts the engine down instead of crashing the process.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("render goroutine recovered from panic", zap.Any("panic", r))
			e.signalQuit()
		}
	}()

	lastRender := time.Now()
	var lastErr string
	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		now := time.Now()
		dt := float32(now.Sub(lastRender).Seconds())
		lastRender = now

		traced, err := e.RenderFrame()
		if err != nil {
			// a broken scene fails every frame until something changes; log it once
			if err.Error() != lastErr {
				logger.Log.Error("render frame failed", zap.Error(err))
				lastErr = err.Error()
			}
		} else {
			lastErr = ""
		}

		if e.renderCallback != nil {
			e.renderCallback(dt)
		}
		if e.profilingEnabled.Load() && traced {
			e.mu.Lock()
			comp := e.composer
			e.mu.Unlock()
			e.profiler.Tick(comp.PassCount())
		}

		limit := e.renderFrameLimit
		if !traced && limit == 0 {
			// converged or idle: wait for the next tick instead of spinning
			limit = e.tickRate()
		}
		if remaining := limit - time.Since(now); remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)
	if !e.running.Load() {
		e.engineTickRate.Store(int64(newRate))
		return
	}
	// replace any pending update so the loop sees the newest rate
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) tickRate() time.Duration {
	return time.Duration(e.engineTickRate.Load())
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
