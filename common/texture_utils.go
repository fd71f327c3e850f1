package common

import "github.com/go-gl/mathgl/mgl32"

// FromVec3Array packs a list of vectors into a one-texel-high RGBA32Float data texture, one texel per vector,
// with alpha set to 1. An empty list still produces a single zero texel since GPU textures cannot be empty;
// shaders rely on their specialized count constants and never read past the real length.
//
// Parameters:
//   - values: the vectors to pack
//
// Returns:
//   - FloatTexture: the packed texture
func FromVec3Array(values []mgl32.Vec3) FloatTexture {
	t := newDataTexture(len(values))
	for i, v := range values {
		t.Texels[i*4] = v[0]
		t.Texels[i*4+1] = v[1]
		t.Texels[i*4+2] = v[2]
		t.Texels[i*4+3] = 1
	}
	return t
}

// FromFloatArray packs a list of scalars into a one-texel-high RGBA32Float data texture.
// Each scalar is splatted across the color channels as (x, x, x, 1).
//
// Parameters:
//   - values: the scalars to pack
//
// Returns:
//   - FloatTexture: the packed texture
func FromFloatArray(values []float32) FloatTexture {
	t := newDataTexture(len(values))
	for i, x := range values {
		t.Texels[i*4] = x
		t.Texels[i*4+1] = x
		t.Texels[i*4+2] = x
		t.Texels[i*4+3] = 1
	}
	return t
}

func newDataTexture(n int) FloatTexture {
	width := max(n, 1)
	return FloatTexture{
		Texels: make([]float32, width*4),
		Width:  uint32(width),
		Height: 1,
	}
}
