package resource

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Carmen-Shannon/cubensis-go/common"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureSlots is the number of optional scene textures.
const TextureSlots = 5

// Texture exposes the scene's five optional images as 2D RGBA8 sRGB textures plus one filtering
// sampler. Missing or unreadable images are bound as a 1x1 transparent texture.
type Texture struct {
	dev      gpu.Device
	binding  Binding
	provider bind_group_provider.BindGroupProvider

	paths   [TextureSlots]string
	changed bool
}

// NewTexture decodes and uploads the images at paths. Empty paths are treated as missing.
//
// Parameters:
//   - dev: the device to allocate with
//   - binding: the range reserved for KindTexture
//   - paths: the resolved image paths, one per slot
//
// Returns:
//   - *Texture: the resource payload
//   - error: error if the binding does not fit or a GPU object cannot be created
func NewTexture(dev gpu.Device, binding Binding, paths [TextureSlots]string) (*Texture, error) {
	if err := checkBinding(KindTexture, binding); err != nil {
		return nil, err
	}
	t := &Texture{
		dev:      dev,
		binding:  binding,
		provider: bind_group_provider.NewBindGroupProvider("Scene Textures"),
	}
	sampler, err := dev.CreateSampler(common.SamplerStagingData{}.ToDescriptor("Scene Texture Sampler"))
	if err != nil {
		return nil, fmt.Errorf("failed to create texture sampler: %w", err)
	}
	t.provider.SetSampler(binding.Offset+TextureSlots, sampler)

	if err := t.load(paths); err != nil {
		t.provider.Release(dev)
		return nil, err
	}
	t.changed = false
	return t, nil
}

// Paths returns the image path bound at each slot.
func (t *Texture) Paths() [TextureSlots]string { return t.paths }

// SetPaths replaces the bound images. The next Update reports the change.
//
// Parameters:
//   - paths: the resolved image paths, one per slot
//
// Returns:
//   - error: error if a GPU texture cannot be created; the previous images stay bound
func (t *Texture) SetPaths(paths [TextureSlots]string) error {
	return t.load(paths)
}

// Update reports whether SetPaths replaced the textures since the previous call.
func (t *Texture) Update(dt time.Duration) bool {
	if dt <= 0 {
		return false
	}
	changed := t.changed
	t.changed = false
	return changed
}

// LayoutEntries returns five texture_2d entries followed by the sampler entry.
func (t *Texture) LayoutEntries() []wgpu.BindGroupLayoutEntry {
	entries := make([]wgpu.BindGroupLayoutEntry, TextureSlots+1)
	for i := range TextureSlots {
		entries[i] = wgpu.BindGroupLayoutEntry{
			Binding:    t.binding.Offset + uint32(i),
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
		}
		entries[i].Texture.SampleType = wgpu.TextureSampleTypeFloat
		entries[i].Texture.ViewDimension = wgpu.TextureViewDimension2D
	}
	entries[TextureSlots] = wgpu.BindGroupLayoutEntry{
		Binding:    t.binding.Offset + TextureSlots,
		Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
	}
	entries[TextureSlots].Sampler.Type = wgpu.SamplerBindingTypeFiltering
	return entries
}

func (t *Texture) WGSL() string {
	var b strings.Builder
	for i := range TextureSlots {
		fmt.Fprintf(&b, "@group(%d) @binding(%d) var texture_%d: texture_2d<f32>;\n", t.binding.Group, t.binding.Offset+uint32(i), i+1)
	}
	fmt.Fprintf(&b, "@group(%d) @binding(%d) var texture_sampler: sampler;\n", t.binding.Group, t.binding.Offset+TextureSlots)
	return b.String()
}

// load uploads every slot and swaps them in only once all uploads succeeded.
func (t *Texture) load(paths [TextureSlots]string) error {
	type uploaded struct {
		tex  *wgpu.Texture
		view *wgpu.TextureView
	}
	var created [TextureSlots]uploaded
	for i, path := range paths {
		staging := stagingFor(path)
		tex, view, err := t.dev.CreateTexture(&wgpu.TextureDescriptor{
			Label:     fmt.Sprintf("Scene Texture %d", i+1),
			Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
			Dimension: wgpu.TextureDimension2D,
			Size: wgpu.Extent3D{
				Width:              staging.Width,
				Height:             staging.Height,
				DepthOrArrayLayers: 1,
			},
			Format:        wgpu.TextureFormatRGBA8UnormSrgb,
			MipLevelCount: 1,
			SampleCount:   1,
		})
		if err != nil {
			for _, c := range created[:i] {
				t.dev.Release(c.view, c.tex)
			}
			return fmt.Errorf("failed to create scene texture %d: %w", i+1, err)
		}
		size := wgpu.Extent3D{Width: staging.Width, Height: staging.Height, DepthOrArrayLayers: 1}
		if err := t.dev.WriteTexture(tex, staging.Pixels, staging.Width*4, size); err != nil {
			log.Printf("[Renderer] scene texture %d upload failed: %v", i+1, err)
		}
		created[i] = uploaded{tex: tex, view: view}
	}

	for i, c := range created {
		oldTex, oldView := t.provider.SetTexture(t.binding.Offset+uint32(i), c.tex, c.view)
		t.dev.Release(oldView, oldTex)
	}
	t.paths = paths
	t.changed = true
	return nil
}

// stagingFor decodes the image at path, falling back to a blank texel when the path is empty
// or the image cannot be read.
func stagingFor(path string) common.TextureStagingData {
	if path == "" {
		return common.BlankTexture()
	}
	staging, err := common.DecodeImageFile(path)
	if err != nil {
		log.Printf("[Renderer] %v; using a blank texture", err)
		return common.BlankTexture()
	}
	return staging
}
