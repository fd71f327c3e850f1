package software

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-trace/engine/logger"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer"
	"go.uber.org/zap"
)

// ErrNoKernel is returned by Render when no kernel is registered for the program key.
var ErrNoKernel = errors.New("software: no kernel registered for program")

// maxTasksPerRender bounds the row chunks queued per Render so a single pass never exceeds the pool queue.
const maxTasksPerRender = 256

type backend struct {
	mu *sync.Mutex

	kernels map[string]Kernel
	surface *Image

	workers int
	pool    worker.DynamicWorkerPool
	taskID  int

	renders int
}

// Backend is a CPU implementation of renderer.Backend. Every Render evaluates the kernel registered under the
// program key for each output pixel, spreading rows over a worker pool. Output is written into a fresh pixel
// buffer and swapped into the target afterwards, so a program may read the target it renders into.
type Backend interface {
	renderer.Backend

	// RegisterKernel installs the kernel executed for programs with the given key, replacing any previous one.
	//
	// Parameters:
	//   - key: the program key
	//   - k: the kernel
	RegisterKernel(key string, k Kernel)

	// Surface returns the image that Render writes to when called with a nil target.
	//
	// Returns:
	//   - *Image: the surface image
	Surface() *Image

	// Resize reallocates the surface image, discarding its contents.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// Renders returns how many Render calls completed successfully.
	//
	// Returns:
	//   - int: the render count
	Renders() int
}

var _ Backend = &backend{}

// NewBackend creates a software backend with a surface of the given size.
//
// Parameters:
//   - width: the surface width in pixels
//   - height: the surface height in pixels
//   - opts: variadic list of BackendBuilderOption functions
//
// Returns:
//   - Backend: the new backend
func NewBackend(width, height int, opts ...BackendBuilderOption) Backend {
	b := &backend{
		mu:      &sync.Mutex{},
		kernels: make(map[string]Kernel),
		surface: newImage("surface", max(width, 1), max(height, 1)),
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.workers = max(b.workers, 1)
	b.pool = worker.NewDynamicWorkerPool(b.workers, maxTasksPerRender, 1*time.Second)
	return b
}

func (b *backend) RegisterKernel(key string, k Kernel) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.kernels[key] = k
}

func (b *backend) Surface() *Image {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.surface
}

func (b *backend) Resize(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.surface.swap(make([]float32, max(width, 1)*max(height, 1)*4), max(width, 1), max(height, 1))
}

func (b *backend) Renders() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.renders
}

func (b *backend) CreateTarget(label string, width, height int) (renderer.Target, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %s is %dx%d", renderer.ErrInvalidTargetSize, label, width, height)
	}
	return newImage(label, width, height), nil
}

func (b *backend) Render(mesh renderer.Mesh, p renderer.Program, target renderer.Target) error {
	if mesh == nil || p == nil {
		return errors.New("software: render needs a mesh and a program")
	}
	if mesh.VertexCount() == 0 {
		return fmt.Errorf("software: mesh %s has no vertices", mesh.Label())
	}

	b.mu.Lock()
	kernel, ok := b.kernels[p.Key()]
	dest := b.surface
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w %s", ErrNoKernel, p.Key())
	}

	if target != nil {
		img, isImage := target.(*Image)
		if !isImage || img.released() {
			return renderer.ErrForeignTarget
		}
		dest = img
	}

	uniforms := p.Uniforms()
	for _, binding := range p.Bindings() {
		if _, set := uniforms[binding.Name]; !set {
			return &renderer.MissingUniformError{Program: p.Key(), Name: binding.Name}
		}
	}

	width, height := dest.Width(), dest.Height()
	pixel, err := kernel(&Inputs{Width: width, Height: height, program: p.Key(), uniforms: uniforms})
	if err != nil {
		return fmt.Errorf("software: program %s: %w", p.Key(), err)
	}

	fresh := make([]float32, width*height*4)
	b.shade(fresh, width, height, pixel)
	dest.swap(fresh, width, height)

	b.mu.Lock()
	b.renders++
	b.mu.Unlock()

	logger.Log.Debug("software pass",
		zap.String("program", p.Key()),
		zap.String("target", dest.Label()),
		zap.Int("width", width),
		zap.Int("height", height),
	)
	return nil
}

// shade evaluates pixel over every row of out, in contiguous row chunks on the worker pool.
func (b *backend) shade(out []float32, width, height int, pixel PixelFunc) {
	chunks := min(height, b.workers*4, maxTasksPerRender)
	rowsPerChunk := (height + chunks - 1) / chunks

	var wg sync.WaitGroup
	for start := 0; start < height; start += rowsPerChunk {
		end := min(start+rowsPerChunk, height)

		wg.Add(1)
		b.mu.Lock()
		id := b.taskID
		b.taskID++
		b.mu.Unlock()

		rowStart, rowEnd := start, end
		b.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for y := rowStart; y < rowEnd; y++ {
					row := out[y*width*4 : (y+1)*width*4]
					for x := 0; x < width; x++ {
						v := pixel(x, y)
						copy(row[x*4:x*4+4], v[:])
					}
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
}
