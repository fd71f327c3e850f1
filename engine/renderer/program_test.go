package renderer

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/shader"
)

const programTestVertex = `
//@oxy:include screen_vertex
@vertex
fn vs_main(in: VertexInput) -> @builtin(position) vec4<f32> {
    return vec4<f32>(in.position, 1.0);
}
`

const programTestFragment = `
//@oxy:include divide_params
//@oxy:group 0 0 storage_uniform divisor divide_params
@group(0) @binding(1) var dividend: texture_2d<f32>;
@group(0) @binding(2) var<storage, read> weights: array<f32>;
@fragment
fn fs_main(@builtin(position) pos: vec4<f32>) -> @location(0) vec4<f32> {
    let v = textureLoad(dividend, vec2<i32>(pos.xy), 0);
    return v / f32(divisor.pass_count) * weights[0];
}
`

type fakeTarget struct{ label string }

func (t *fakeTarget) Label() string { return t.label }
func (t *fakeTarget) Width() int    { return 1 }
func (t *fakeTarget) Height() int   { return 1 }
func (t *fakeTarget) Release()      {}

func newTestProgram(t *testing.T) Program {
	t.Helper()
	vs, err := shader.NewShader("test_vs", shader.ShaderTypeVertex, programTestVertex)
	if err != nil {
		t.Fatalf("vertex shader: %v", err)
	}
	fs, err := shader.NewShader("test_fs", shader.ShaderTypeFragment, programTestFragment)
	if err != nil {
		t.Fatalf("fragment shader: %v", err)
	}
	p, err := NewProgram("test_program", vs, fs)
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}
	return p
}

func TestNewProgramRejectsWrongStages(t *testing.T) {
	vs, err := shader.NewShader("vs", shader.ShaderTypeVertex, programTestVertex)
	if err != nil {
		t.Fatal(err)
	}
	fs, err := shader.NewShader("fs", shader.ShaderTypeFragment, programTestFragment)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		vs, fs shader.Shader
	}{
		{"missing vertex", nil, fs},
		{"missing fragment", vs, nil},
		{"swapped", fs, vs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewProgram("bad", tt.vs, tt.fs); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestSetUniformUnknownName(t *testing.T) {
	p := newTestProgram(t)

	err := p.SetUniform("nope", BufferUniform{Data: make([]byte, 16)})
	var unknown *UnknownUniformError
	if !errors.As(err, &unknown) {
		t.Fatalf("got %v, want *UnknownUniformError", err)
	}
	if unknown.Name != "nope" || unknown.Program != "test_program" {
		t.Errorf("unexpected error fields %+v", unknown)
	}
	if len(p.Uniforms()) != 0 {
		t.Error("failed SetUniform stored a value")
	}
}

func TestSetUniformKindMismatch(t *testing.T) {
	p := newTestProgram(t)

	tests := []struct {
		name    string
		uniform string
		value   Uniform
	}{
		{"texture into buffer", "divisor", TextureUniform{Texture: common.FromFloatArray([]float32{1})}},
		{"buffer into texture", "dividend", BufferUniform{Data: make([]byte, 16)}},
		{"target into storage", "weights", TargetUniform{Target: &fakeTarget{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.SetUniform(tt.uniform, tt.value)
			var kind *UniformKindError
			if !errors.As(err, &kind) {
				t.Fatalf("got %v, want *UniformKindError", err)
			}
		})
	}
}

func TestSetUniformStoresValues(t *testing.T) {
	p := newTestProgram(t)
	target := &fakeTarget{label: "sum"}

	if err := p.SetUniform("divisor", BufferUniform{Data: make([]byte, 16)}); err != nil {
		t.Fatal(err)
	}
	if err := p.SetUniform("dividend", TargetUniform{Target: target}); err != nil {
		t.Fatal(err)
	}
	if err := p.SetUniform("weights", BufferUniform{Data: common.Float32sToBytes([]float32{0.5})}); err != nil {
		t.Fatal(err)
	}

	u, ok := p.Uniform("dividend")
	if !ok {
		t.Fatal("dividend not stored")
	}
	if tu, isTarget := u.(TargetUniform); !isTarget || tu.Target != target {
		t.Fatalf("dividend = %#v", u)
	}

	snapshot := p.Uniforms()
	delete(snapshot, "divisor")
	if _, still := p.Uniform("divisor"); !still {
		t.Fatal("Uniforms returned the live table")
	}
}

func TestProgramBindingsMergedAndSorted(t *testing.T) {
	p := newTestProgram(t)
	bindings := p.Bindings()
	if len(bindings) != 3 {
		t.Fatalf("got %d bindings, want 3", len(bindings))
	}
	for i, want := range []string{"divisor", "dividend", "weights"} {
		if bindings[i].Name != want {
			t.Errorf("binding %d = %s, want %s", i, bindings[i].Name, want)
		}
	}
	if bindings[0].MinBindingSize != 16 {
		t.Errorf("divisor MinBindingSize = %d, want 16", bindings[0].MinBindingSize)
	}
}

func TestProviderIsStablePerGroup(t *testing.T) {
	p := newTestProgram(t)
	a := p.Provider(0)
	if a != p.Provider(0) {
		t.Fatal("provider recreated for the same group")
	}
	if a == p.Provider(1) {
		t.Fatal("groups share a provider")
	}
	if a.Label() != "test_program group 0" {
		t.Errorf("label = %q", a.Label())
	}
}
