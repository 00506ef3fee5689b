package resource

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// TimeUniformSize is the size of the time uniform in bytes.
const TimeUniformSize = 16

// Time exposes the frame counter, the elapsed time and the frame time as a uniform.
type Time struct {
	dev      gpu.Device
	binding  Binding
	provider bind_group_provider.BindGroupProvider

	frame   uint32
	elapsed time.Duration
	delta   time.Duration
}

// NewTime creates the time uniform buffer.
//
// Parameters:
//   - dev: the device to allocate with
//   - binding: the range reserved for KindTime
//
// Returns:
//   - *Time: the resource payload
//   - error: error if the binding does not fit or the buffer cannot be created
func NewTime(dev gpu.Device, binding Binding) (*Time, error) {
	if err := checkBinding(KindTime, binding); err != nil {
		return nil, err
	}
	t := &Time{
		dev:      dev,
		binding:  binding,
		provider: bind_group_provider.NewBindGroupProvider("Time"),
	}
	buf, err := dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Time Uniform",
		Size:  TimeUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	}, t.Marshal())
	if err != nil {
		return nil, fmt.Errorf("failed to create time uniform: %w", err)
	}
	t.provider.SetBuffer(binding.Offset, buf)
	return t, nil
}

// Frame returns the number of non-zero updates so far.
func (t *Time) Frame() uint32 { return t.frame }

// Elapsed returns the accumulated time.
func (t *Time) Elapsed() time.Duration { return t.elapsed }

// Update advances the clock and uploads the uniform. It never requires a rebuild.
func (t *Time) Update(dt time.Duration) bool {
	if dt <= 0 {
		return false
	}
	t.frame++
	t.elapsed += dt
	t.delta = dt
	err := bind_group_provider.WriteBuffers(t.dev, bind_group_provider.BufferWrite{
		Provider: t.provider,
		Binding:  t.binding.Offset,
		Data:     t.Marshal(),
	})
	if err != nil {
		log.Printf("[Renderer] time uniform write failed: %v", err)
	}
	return false
}

// Marshal serializes {frame u32, elapsed f32, delta f32, pad} little-endian.
func (t *Time) Marshal() []byte {
	buf := make([]byte, TimeUniformSize)
	binary.LittleEndian.PutUint32(buf[0:], t.frame)
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(t.elapsed.Seconds())))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(float32(t.delta.Seconds())))
	return buf
}

// LayoutEntries returns the single uniform entry.
func (t *Time) LayoutEntries() []wgpu.BindGroupLayoutEntry {
	return []wgpu.BindGroupLayoutEntry{uniformEntry(t.binding.Offset, TimeUniformSize)}
}

func (t *Time) WGSL() string {
	return fmt.Sprintf(`struct Time {
    frame: u32,
    elapsed: f32,
    delta: f32,
    _pad: f32,
}
@group(%d) @binding(%d) var<uniform> time: Time;
`, t.binding.Group, t.binding.Offset)
}

func uniformEntry(binding uint32, size uint64) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
	}
	entry.Buffer.Type = wgpu.BufferBindingTypeUniform
	entry.Buffer.MinBindingSize = size
	return entry
}
