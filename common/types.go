// package common contains plain data types and helpers shared across the engine. They are not interface-wrapped
// structs, just values that express commonly used data.
package common

import "github.com/go-gl/mathgl/mgl32"

// TexelSize is the byte size of one RGBA32Float texel.
const TexelSize = 16

// FloatTexture holds RGBA32Float texel data pending GPU upload. Every texel is four float32 channels.
// Data textures built by FromVec3Array and FromFloatArray are one texel high.
type FloatTexture struct {
	// Texels is the flat RGBA channel data, 4 floats per texel, row-major.
	Texels []float32
	// Width is the texture width in texels.
	Width uint32
	// Height is the texture height in texels.
	Height uint32
}

// At returns the texel at column x, row y. Out-of-range coordinates return the zero vector.
//
// Parameters:
//   - x: the texel column
//   - y: the texel row
//
// Returns:
//   - mgl32.Vec4: the RGBA value of the texel
func (t FloatTexture) At(x, y int) mgl32.Vec4 {
	if x < 0 || y < 0 || x >= int(t.Width) || y >= int(t.Height) {
		return mgl32.Vec4{}
	}
	i := (y*int(t.Width) + x) * 4
	return mgl32.Vec4{t.Texels[i], t.Texels[i+1], t.Texels[i+2], t.Texels[i+3]}
}

// Bytes encodes the texel data as little-endian bytes for a queue texture write.
//
// Returns:
//   - []byte: Width*Height*TexelSize bytes
func (t FloatTexture) Bytes() []byte {
	return Float32sToBytes(t.Texels)
}

// BytesPerRow returns the byte length of a single texel row.
//
// Returns:
//   - uint32: Width*TexelSize
func (t FloatTexture) BytesPerRow() uint32 {
	return t.Width * TexelSize
}
