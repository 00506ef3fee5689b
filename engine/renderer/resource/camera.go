package resource

import (
	"fmt"
	"log"
	"time"

	"github.com/Carmen-Shannon/cubensis-go/engine/camera"
	"github.com/Carmen-Shannon/cubensis-go/engine/event"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// Camera exposes an arcball camera as a uniform. The buffer is written only when the camera moved.
type Camera struct {
	dev      gpu.Device
	binding  Binding
	provider bind_group_provider.BindGroupProvider
	camera   camera.Camera
}

// NewCamera creates the camera uniform buffer.
//
// Parameters:
//   - dev: the device to allocate with
//   - binding: the range reserved for KindCamera
//   - cam: the camera to expose
//
// Returns:
//   - *Camera: the resource payload
//   - error: error if the binding does not fit or the buffer cannot be created
func NewCamera(dev gpu.Device, binding Binding, cam camera.Camera) (*Camera, error) {
	if err := checkBinding(KindCamera, binding); err != nil {
		return nil, err
	}
	c := &Camera{
		dev:      dev,
		binding:  binding,
		provider: bind_group_provider.NewBindGroupProvider("Camera"),
		camera:   cam,
	}
	uniform, _ := cam.TakeUniform()
	buf, err := dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Camera Uniform",
		Size:  uint64(uniform.Size()),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	}, uniform.Marshal())
	if err != nil {
		return nil, fmt.Errorf("failed to create camera uniform: %w", err)
	}
	c.provider.SetBuffer(binding.Offset, buf)
	return c, nil
}

// Camera returns the wrapped camera.
func (c *Camera) Camera() camera.Camera { return c.camera }

// Update uploads the uniform if the camera changed. It never requires a rebuild.
func (c *Camera) Update(dt time.Duration) bool {
	if dt <= 0 {
		return false
	}
	uniform, dirty := c.camera.TakeUniform()
	if !dirty {
		return false
	}
	err := bind_group_provider.WriteBuffers(c.dev, bind_group_provider.BufferWrite{
		Provider: c.provider,
		Binding:  c.binding.Offset,
		Data:     uniform.Marshal(),
	})
	if err != nil {
		log.Printf("[Renderer] camera uniform write failed: %v", err)
	}
	return false
}

// Resize updates the camera aspect and the controller's screen size.
func (c *Camera) Resize(width, height int) {
	c.camera.Resize(width, height)
}

// HandleInput forwards input to the camera.
func (c *Camera) HandleInput(e event.Input) bool {
	return c.camera.HandleInput(e)
}

// LayoutEntries returns the single uniform entry.
func (c *Camera) LayoutEntries() []wgpu.BindGroupLayoutEntry {
	var u camera.GPUCameraUniform
	return []wgpu.BindGroupLayoutEntry{uniformEntry(c.binding.Offset, uint64(u.Size()))}
}

func (c *Camera) WGSL() string {
	return fmt.Sprintf("%s@group(%d) @binding(%d) var<uniform> camera: Camera;\n",
		camera.GPUCameraUniformSource, c.binding.Group, c.binding.Offset)
}
