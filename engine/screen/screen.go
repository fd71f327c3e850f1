package screen

import (
	"errors"
	"sync"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/bind_group_provider"
)

// ErrNoProgram is returned by Draw when no program has been installed on the screen.
var ErrNoProgram = errors.New("screen: no program set")

// quadVertices are two triangles covering clip space, three floats per vertex.
var quadVertices = [...]float32{
	-1, -1, 0,
	-1, 1, 0,
	1, 1, 0,
	1, 1, 0,
	1, -1, 0,
	-1, -1, 0,
}

// VertexStride is the byte size of one quad vertex, a vec3<f32>.
const VertexStride = 12

type screenImpl struct {
	mu *sync.Mutex

	label      string
	vertexData []byte
	provider   bind_group_provider.BindGroupProvider
	program    renderer.Program
}

// Screen is a full-screen quad paired with the program that shades it. It is the mesh every tracer and
// accumulator pass is drawn with.
type Screen interface {
	renderer.Mesh

	// Vertices returns a copy of the quad's vertex positions, three floats per vertex.
	//
	// Returns:
	//   - []float32: 18 floats
	Vertices() []float32

	// Program returns the installed program, or nil.
	//
	// Returns:
	//   - renderer.Program: the program or nil
	Program() renderer.Program

	// SetProgram installs the program used by Draw. Passing nil clears the slot.
	//
	// Parameters:
	//   - p: the program
	SetProgram(p renderer.Program)

	// Draw renders the quad with the installed program into target, or into the surface when target is nil.
	//
	// Parameters:
	//   - b: the backend to draw with
	//   - target: the destination, or nil for the surface
	//
	// Returns:
	//   - error: ErrNoProgram if the slot is empty, otherwise the backend's error
	Draw(b renderer.Backend, target renderer.Target) error
}

var _ Screen = &screenImpl{}

// NewScreen creates a full-screen quad. The vertex bytes are packed once here and shared by every draw.
//
// Parameters:
//   - label: debug label, also used for the GPU vertex buffer
//
// Returns:
//   - Screen: the new screen
func NewScreen(label string) Screen {
	return &screenImpl{
		mu:         &sync.Mutex{},
		label:      label,
		vertexData: common.Float32sToBytes(quadVertices[:]),
		provider:   bind_group_provider.NewBindGroupProvider(label),
	}
}

func (s *screenImpl) Label() string {
	return s.label
}

func (s *screenImpl) Vertices() []float32 {
	out := make([]float32, len(quadVertices))
	copy(out, quadVertices[:])
	return out
}

func (s *screenImpl) VertexData() []byte {
	return s.vertexData
}

func (s *screenImpl) VertexCount() int {
	return len(quadVertices) / 3
}

func (s *screenImpl) Provider() bind_group_provider.BindGroupProvider {
	return s.provider
}

func (s *screenImpl) Program() renderer.Program {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.program
}

func (s *screenImpl) SetProgram(p renderer.Program) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.program = p
}

func (s *screenImpl) Draw(b renderer.Backend, target renderer.Target) error {
	p := s.Program()
	if p == nil {
		return ErrNoProgram
	}
	return b.Render(s, p, target)
}
