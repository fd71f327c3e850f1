package tracer

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-trace/engine/camera"
)

// GPUTracerUniforms is the host copy of the shader's TracerUniforms block.
// Size: 160 bytes (WGSL uniform layout).
type GPUTracerUniforms struct {
	CameraWorld             [16]float32 // offset   0: camera-to-world matrix (mat4x4<f32>)
	CameraInverseProjection [16]float32 // offset  64: inverse projection (mat4x4<f32>)
	CameraPosition          [3]float32  // offset 128: eye position (vec3<f32>)
	GridDegree              uint32      // offset 140: pixel sampler grid degree (u32)
	Resolution              [2]float32  // offset 144: target size in pixels (vec2<f32>)
	_pad                    [2]float32  // offset 152: padding to 160 bytes
}

// newGPUTracerUniforms snapshots a camera and the sampling settings into the uniform block.
//
// Parameters:
//   - cam: the camera to read matrices from
//   - width, height: the render resolution
//   - degree: the grid sampler degree
//
// Returns:
//   - GPUTracerUniforms: the packed block
func newGPUTracerUniforms(cam camera.Camera, width, height, degree int) GPUTracerUniforms {
	return GPUTracerUniforms{
		CameraWorld:             cam.WorldMatrix(),
		CameraInverseProjection: cam.InverseProjectionMatrix(),
		CameraPosition:          cam.Position(),
		GridDegree:              uint32(degree),
		Resolution:              [2]float32{float32(width), float32(height)},
	}
}

// Size returns the size of the GPUTracerUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (160)
func (g *GPUTracerUniforms) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the block into little-endian bytes for upload.
//
// Returns:
//   - []byte: the serialized buffer
func (g *GPUTracerUniforms) Marshal() []byte {
	buf := make([]byte, g.Size())
	put := func(offset int, values []float32) {
		for i, v := range values {
			binary.LittleEndian.PutUint32(buf[offset+i*4:], math.Float32bits(v))
		}
	}
	put(0, g.CameraWorld[:])
	put(64, g.CameraInverseProjection[:])
	put(128, g.CameraPosition[:])
	binary.LittleEndian.PutUint32(buf[140:], g.GridDegree)
	put(144, g.Resolution[:])
	return buf
}
