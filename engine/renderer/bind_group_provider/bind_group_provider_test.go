package bind_group_provider

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func TestNewBindGroupProviderKeepsLabel(t *testing.T) {
	p := NewBindGroupProvider("tracer group 0")
	if p.Label() != "tracer group 0" {
		t.Fatalf("label = %q", p.Label())
	}
	if p.BindGroup() != nil {
		t.Fatal("fresh provider has a bind group")
	}
	if buf, size := p.Buffer(0); buf != nil || size != 0 {
		t.Fatalf("fresh provider has buffer %v of size %d", buf, size)
	}
}

func TestMatchesTracksHandles(t *testing.T) {
	p := NewBindGroupProvider("matches")
	bufA, bufB := &wgpu.Buffer{}, &wgpu.Buffer{}
	view := &wgpu.TextureView{}

	entries := []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: bufA, Size: wgpu.WholeSize},
		{Binding: 1, TextureView: view},
	}
	if p.Matches(entries) {
		t.Fatal("matches without a bind group")
	}

	p.SetBindGroup(&wgpu.BindGroup{}, entries)
	if !p.Matches(entries) {
		t.Fatal("identical handles should match")
	}

	changed := []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: bufB, Size: wgpu.WholeSize},
		{Binding: 1, TextureView: view},
	}
	if p.Matches(changed) {
		t.Fatal("swapped buffer handle should not match")
	}
	if p.Matches(entries[:1]) {
		t.Fatal("different entry count should not match")
	}

	entries[0].Buffer = bufB
	if p.Matches(entries) {
		t.Fatal("caller mutation leaked into recorded entries")
	}
}
