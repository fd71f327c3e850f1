package common

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(size)*len(data))
}

// Float32sToBytes encodes a float32 slice as little-endian bytes into a freshly allocated buffer.
// Unlike SliceToBytes the result never aliases the input, so it is safe to retain.
//
// Parameters:
//   - data: the values to encode
//
// Returns:
//   - []byte: 4*len(data) bytes
func Float32sToBytes(data []float32) []byte {
	buf := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// Int32sToBytes encodes an int32 slice as little-endian bytes into a freshly allocated buffer.
//
// Parameters:
//   - data: the values to encode
//
// Returns:
//   - []byte: 4*len(data) bytes
func Int32sToBytes(data []int32) []byte {
	buf := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
	}
	return buf
}
