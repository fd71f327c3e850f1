package composer

import (
	"encoding/binary"
	"unsafe"
)

// GPUDivideParams is the host copy of the divide pass's DivideParams block.
// Size: 16 bytes, the minimum uniform binding size.
type GPUDivideParams struct {
	PassCount uint32    // offset 0: number of samples in the running sum (u32)
	_pad      [3]uint32 // offset 4: padding to 16 bytes
}

// Size returns the size of the GPUDivideParams struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (g *GPUDivideParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the block into little-endian bytes for upload.
//
// Returns:
//   - []byte: the serialized buffer
func (g *GPUDivideParams) Marshal() []byte {
	buf := make([]byte, g.Size())
	binary.LittleEndian.PutUint32(buf, g.PassCount)
	return buf
}
