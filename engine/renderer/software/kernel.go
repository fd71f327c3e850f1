package software

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
)

// PixelFunc computes the output color of the pixel at column x, row y. It is called concurrently from several
// workers and must not mutate shared state.
type PixelFunc func(x, y int) mgl32.Vec4

// Kernel is the software counterpart of a fragment shader. It resolves the program's uniforms once per Render and
// returns the per-pixel function, or an error if a uniform is missing or malformed.
type Kernel func(in *Inputs) (PixelFunc, error)

// Inputs exposes the uniforms of one Render call to a Kernel.
type Inputs struct {
	// Width and Height are the output dimensions.
	Width, Height int

	program  string
	uniforms map[string]renderer.Uniform
}

// Texture resolves a texture uniform. Target uniforms are snapshotted, so the kernel never observes the
// output being written.
//
// Parameters:
//   - name: the uniform name
//
// Returns:
//   - common.FloatTexture: the texel data
//   - error: error if the uniform is unset or not a texture
func (in *Inputs) Texture(name string) (common.FloatTexture, error) {
	u, ok := in.uniforms[name]
	if !ok {
		return common.FloatTexture{}, &renderer.MissingUniformError{Program: in.program, Name: name}
	}
	switch v := u.(type) {
	case renderer.TextureUniform:
		return v.Texture, nil
	case renderer.TargetUniform:
		img, ok := v.Target.(*Image)
		if !ok {
			return common.FloatTexture{}, renderer.ErrForeignTarget
		}
		return img.Snapshot(), nil
	default:
		return common.FloatTexture{}, fmt.Errorf("software: uniform %s is %T, want a texture", name, u)
	}
}

// Buffer resolves a buffer uniform.
//
// Parameters:
//   - name: the uniform name
//
// Returns:
//   - []byte: the buffer contents
//   - error: error if the uniform is unset or not a buffer
func (in *Inputs) Buffer(name string) ([]byte, error) {
	u, ok := in.uniforms[name]
	if !ok {
		return nil, &renderer.MissingUniformError{Program: in.program, Name: name}
	}
	v, ok := u.(renderer.BufferUniform)
	if !ok {
		return nil, fmt.Errorf("software: uniform %s is %T, want a buffer", name, u)
	}
	return v.Data, nil
}

// Uint32 reads a little-endian u32 field at a byte offset of a buffer uniform.
func (in *Inputs) Uint32(name string, offset int) (uint32, error) {
	data, err := in.Buffer(name)
	if err != nil {
		return 0, err
	}
	if offset < 0 || offset+4 > len(data) {
		return 0, fmt.Errorf("software: uniform %s has %d bytes, cannot read u32 at %d", name, len(data), offset)
	}
	return binary.LittleEndian.Uint32(data[offset:]), nil
}

// Float32s decodes a buffer uniform as a little-endian f32 array.
func (in *Inputs) Float32s(name string) ([]float32, error) {
	data, err := in.Buffer(name)
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out, nil
}

// AddKernel writes a + b per pixel, mirroring the accumulator's add shader.
func AddKernel(in *Inputs) (PixelFunc, error) {
	a, err := in.Texture("a")
	if err != nil {
		return nil, err
	}
	b, err := in.Texture("b")
	if err != nil {
		return nil, err
	}
	return func(x, y int) mgl32.Vec4 {
		return a.At(x, y).Add(b.At(x, y))
	}, nil
}

// DivideKernel writes dividend / pass_count per pixel, mirroring the accumulator's divide shader.
// A pass count of zero is treated as one.
func DivideKernel(in *Inputs) (PixelFunc, error) {
	dividend, err := in.Texture("dividend")
	if err != nil {
		return nil, err
	}
	count, err := in.Uint32("divisor", 0)
	if err != nil {
		return nil, err
	}
	inv := 1 / float32(max(count, 1))
	return func(x, y int) mgl32.Vec4 {
		return dividend.At(x, y).Mul(inv)
	}, nil
}
