package screen

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-trace/engine/renderer"
)

type recordingBackend struct {
	mesh    renderer.Mesh
	program renderer.Program
	target  renderer.Target
	calls   int
}

func (b *recordingBackend) CreateTarget(string, int, int) (renderer.Target, error) {
	return nil, errors.New("not supported")
}

func (b *recordingBackend) Render(mesh renderer.Mesh, p renderer.Program, target renderer.Target) error {
	b.mesh, b.program, b.target = mesh, p, target
	b.calls++
	return nil
}

func TestQuadVertices(t *testing.T) {
	s := NewScreen("quad")
	want := []float32{-1, -1, 0, -1, 1, 0, 1, 1, 0, 1, 1, 0, 1, -1, 0, -1, -1, 0}

	got := s.Vertices()
	if len(got) != len(want) {
		t.Fatalf("got %d floats, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("vertex float %d = %v, want %v", i, got[i], want[i])
		}
	}
	if s.VertexCount() != 6 {
		t.Errorf("VertexCount = %d", s.VertexCount())
	}

	got[0] = 42
	if s.Vertices()[0] != -1 {
		t.Error("Vertices returned shared storage")
	}
}

func TestVertexDataLayout(t *testing.T) {
	s := NewScreen("quad")
	data := s.VertexData()
	if len(data) != 6*VertexStride {
		t.Fatalf("vertex data is %d bytes, want %d", len(data), 6*VertexStride)
	}
	// third vertex is (1, 1, 0)
	x := math.Float32frombits(binary.LittleEndian.Uint32(data[2*VertexStride:]))
	y := math.Float32frombits(binary.LittleEndian.Uint32(data[2*VertexStride+4:]))
	if x != 1 || y != 1 {
		t.Fatalf("vertex 2 = (%v, %v), want (1, 1)", x, y)
	}
	if &s.VertexData()[0] != &data[0] {
		t.Error("vertex data repacked on every call")
	}
}

func TestDrawRequiresProgram(t *testing.T) {
	s := NewScreen("quad")
	b := &recordingBackend{}
	if err := s.Draw(b, nil); !errors.Is(err, ErrNoProgram) {
		t.Fatalf("got %v, want ErrNoProgram", err)
	}
	if b.calls != 0 {
		t.Fatal("backend called without a program")
	}
}

func TestDrawForwardsToBackend(t *testing.T) {
	s := NewScreen("quad")
	b := &recordingBackend{}
	var p renderer.Program = &stubProgram{}
	s.SetProgram(p)

	if err := s.Draw(b, nil); err != nil {
		t.Fatal(err)
	}
	if b.calls != 1 || b.mesh != s || b.program != p || b.target != nil {
		t.Fatalf("unexpected render call %+v", b)
	}

	s.SetProgram(nil)
	if s.Program() != nil {
		t.Fatal("program slot not cleared")
	}
}

// stubProgram satisfies renderer.Program for identity checks only.
type stubProgram struct{ renderer.Program }
