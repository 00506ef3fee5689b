package camera

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUCameraUniformSource is the WGSL definition of the Camera struct.
// Matches GPUCameraUniform layout exactly (256 bytes).
//
//go:embed assets/camera_uniform.wgsl
var GPUCameraUniformSource string

// GPUCameraUniform is the GPU-aligned representation of the camera uniform buffer.
// Size: 256 bytes, four mat4x4<f32>.
type GPUCameraUniform struct {
	View           [16]float32 // offset   0
	InverseView    [16]float32 // offset  64
	Projection     [16]float32 // offset 128
	ViewProjection [16]float32 // offset 192
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (256)
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the uniform little-endian for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for m, mat := range [4]*[16]float32{&g.View, &g.InverseView, &g.Projection, &g.ViewProjection} {
		for i := range 16 {
			binary.LittleEndian.PutUint32(buf[m*64+i*4:], math.Float32bits(mat[i]))
		}
	}
	return buf
}
