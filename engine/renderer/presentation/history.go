package presentation

import (
	"fmt"

	"github.com/Carmen-Shannon/cubensis-go/common"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// HistoryIncludeName is the shader include that declares the read history texture and sampler.
const HistoryIncludeName = "history"

// HistoryInclude returns the WGSL declarations of the history group bound at group.
//
// Parameters:
//   - group: the bind group index of the history group in mesh pipelines
//
// Returns:
//   - string: the declarations of history_texture and history_sampler
func HistoryInclude(group uint32) string {
	return fmt.Sprintf(`@group(%d) @binding(0) var history_texture: texture_2d<f32>;
@group(%d) @binding(1) var history_sampler: sampler;
`, group, group)
}

// historyLayoutEntries is the shared layout of every history slot: a 2D float texture at 0 and a
// filtering sampler at 1.
func historyLayoutEntries() []wgpu.BindGroupLayoutEntry {
	entries := []wgpu.BindGroupLayoutEntry{
		{Binding: 0, Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment},
		{Binding: 1, Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment},
	}
	entries[0].Texture.SampleType = wgpu.TextureSampleTypeFloat
	entries[0].Texture.ViewDimension = wgpu.TextureViewDimension2D
	entries[1].Sampler.Type = wgpu.SamplerBindingTypeFiltering
	return entries
}

// historySampler clamps to the edge so feedback shaders that zoom out do not wrap.
var historySampler = common.SamplerStagingData{
	AddressModeU: wgpu.AddressModeClampToEdge,
	AddressModeV: wgpu.AddressModeClampToEdge,
	MagFilter:    wgpu.FilterModeLinear,
	MinFilter:    wgpu.FilterModeNearest,
	MipmapFilter: wgpu.MipmapFilterModeNearest,
}

// historySlot is one render target of the ring and the bind group that samples it.
type historySlot struct {
	provider  bind_group_provider.BindGroupProvider
	bindGroup *wgpu.BindGroup
}

// newHistorySlot creates a render target of the given size and format and binds it against layout.
func newHistorySlot(dev gpu.Device, index int, width, height int, format wgpu.TextureFormat, layout *wgpu.BindGroupLayout, entries []wgpu.BindGroupLayoutEntry) (*historySlot, error) {
	label := fmt.Sprintf("Render History Texture %d", index)
	s := &historySlot{provider: bind_group_provider.NewBindGroupProvider(label)}

	tex, view, err := dev.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage: wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding |
			wgpu.TextureUsageCopySrc | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", label, err)
	}
	s.provider.SetTexture(0, tex, view)

	sampler, err := dev.CreateSampler(historySampler.ToDescriptor(label + " Sampler"))
	if err != nil {
		s.release(dev)
		return nil, fmt.Errorf("failed to create %s sampler: %w", label, err)
	}
	s.provider.SetSampler(1, sampler)

	bindEntries, err := s.provider.Entries(entries)
	if err != nil {
		s.release(dev)
		return nil, err
	}
	s.bindGroup, err = dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   label + " Bind Group",
		Layout:  layout,
		Entries: bindEntries,
	})
	if err != nil {
		s.release(dev)
		return nil, fmt.Errorf("failed to create %s bind group: %w", label, err)
	}
	return s, nil
}

func (s *historySlot) view() *wgpu.TextureView {
	return s.provider.TextureView(0)
}

func (s *historySlot) release(dev gpu.Device) {
	dev.Release(s.bindGroup)
	s.bindGroup = nil
	s.provider.Release(dev)
}
