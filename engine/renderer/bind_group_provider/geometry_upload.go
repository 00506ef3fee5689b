package bind_group_provider

import (
	"fmt"

	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// UploadGeometry creates a vertex and an index buffer from the given bytes and stores them on p.
// Nothing is stored unless both buffers exist.
//
// Parameters:
//   - dev: the device to create the buffers with
//   - p: the provider that takes ownership of the buffers
//   - vertices: the packed vertex data
//   - indices: the packed uint32 index data
//
// Returns:
//   - error: error if either buffer cannot be created
func UploadGeometry(dev gpu.Device, p BindGroupProvider, vertices, indices []byte) error {
	vb, err := dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: p.Label() + " Vertex Buffer",
		Size:  uint64(len(vertices)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	}, vertices)
	if err != nil {
		return fmt.Errorf("%s: vertex buffer: %w", p.Label(), err)
	}
	ib, err := dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: p.Label() + " Index Buffer",
		Size:  uint64(len(indices)),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	}, indices)
	if err != nil {
		dev.Release(vb)
		return fmt.Errorf("%s: index buffer: %w", p.Label(), err)
	}
	p.SetGeometry(dev, vb, ib, len(indices)/4)
	return nil
}
