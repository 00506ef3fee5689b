package resource

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/Carmen-Shannon/cubensis-go/engine/audio"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// Audio exposes the wave and spectrum of an audio source as two 1D R32Float textures plus a
// non-filtering sampler. The textures are recreated whenever a sample length changes.
type Audio struct {
	dev      gpu.Device
	binding  Binding
	provider bind_group_provider.BindGroupProvider
	source   audio.Source

	waveWidth     uint32
	spectrumWidth uint32
}

// NewAudio creates the audio textures sized to the source's current buffers.
//
// Parameters:
//   - dev: the device to allocate with
//   - binding: the range reserved for KindAudio
//   - source: the audio source to sample every frame
//
// Returns:
//   - *Audio: the resource payload
//   - error: error if the binding does not fit or a GPU object cannot be created
func NewAudio(dev gpu.Device, binding Binding, source audio.Source) (*Audio, error) {
	if err := checkBinding(KindAudio, binding); err != nil {
		return nil, err
	}
	a := &Audio{
		dev:      dev,
		binding:  binding,
		provider: bind_group_provider.NewBindGroupProvider("Audio"),
		source:   source,
	}
	sampler, err := dev.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Audio Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeNearest,
		MinFilter:     wgpu.FilterModeNearest,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create audio sampler: %w", err)
	}
	a.provider.SetSampler(binding.Offset+2, sampler)

	wave, spectrum := source.WaveAndSpectrum()
	if err := a.recreate(wave, spectrum); err != nil {
		a.provider.Release(dev)
		return nil, err
	}
	if err := a.upload(wave, spectrum); err != nil {
		log.Printf("[Audio] initial texture upload failed: %v", err)
	}
	return a, nil
}

// Source returns the sampled audio source.
func (a *Audio) Source() audio.Source { return a.source }

// Widths returns the current wave and spectrum texture widths.
func (a *Audio) Widths() (wave, spectrum uint32) { return a.waveWidth, a.spectrumWidth }

// Update samples the source and uploads both textures.
//
// Returns:
//   - bool: true if a texture was recreated because a sample length changed
func (a *Audio) Update(dt time.Duration) bool {
	if dt <= 0 {
		return false
	}
	wave, spectrum := a.source.WaveAndSpectrum()
	changed := texelWidth(wave) != a.waveWidth || texelWidth(spectrum) != a.spectrumWidth
	if changed {
		if err := a.recreate(wave, spectrum); err != nil {
			log.Printf("[Audio] failed to resize audio textures: %v", err)
			return false
		}
	}
	if err := a.upload(wave, spectrum); err != nil {
		log.Printf("[Audio] texture upload failed: %v", err)
	}
	return changed
}

// LayoutEntries returns the wave texture, the spectrum texture and the sampler entries.
func (a *Audio) LayoutEntries() []wgpu.BindGroupLayoutEntry {
	o := a.binding.Offset
	entries := []wgpu.BindGroupLayoutEntry{
		{Binding: o, Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment},
		{Binding: o + 1, Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment},
		{Binding: o + 2, Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment},
	}
	for i := range 2 {
		entries[i].Texture.SampleType = wgpu.TextureSampleTypeUnfilterableFloat
		entries[i].Texture.ViewDimension = wgpu.TextureViewDimension1D
	}
	entries[2].Sampler.Type = wgpu.SamplerBindingTypeNonFiltering
	return entries
}

func (a *Audio) WGSL() string {
	g, o := a.binding.Group, a.binding.Offset
	return fmt.Sprintf(`@group(%d) @binding(%d) var audio_wave: texture_1d<f32>;
@group(%d) @binding(%d) var audio_spectrum: texture_1d<f32>;
@group(%d) @binding(%d) var audio_sampler: sampler;
`, g, o, g, o+1, g, o+2)
}

// recreate replaces both textures with ones sized to the given samples. The old textures are
// released only after both new ones exist.
func (a *Audio) recreate(wave, spectrum []float32) error {
	waveTex, waveView, err := a.createTexture("Audio Wave", texelWidth(wave))
	if err != nil {
		return err
	}
	spectrumTex, spectrumView, err := a.createTexture("Audio Spectrum", texelWidth(spectrum))
	if err != nil {
		a.dev.Release(waveView, waveTex)
		return err
	}
	oldTex, oldView := a.provider.SetTexture(a.binding.Offset, waveTex, waveView)
	a.dev.Release(oldView, oldTex)
	oldTex, oldView = a.provider.SetTexture(a.binding.Offset+1, spectrumTex, spectrumView)
	a.dev.Release(oldView, oldTex)
	a.waveWidth, a.spectrumWidth = texelWidth(wave), texelWidth(spectrum)
	return nil
}

func (a *Audio) createTexture(label string, width uint32) (*wgpu.Texture, *wgpu.TextureView, error) {
	return a.dev.CreateTexture(&wgpu.TextureDescriptor{
		Label:     label,
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension1D,
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             1,
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatR32Float,
		MipLevelCount: 1,
		SampleCount:   1,
	})
}

func (a *Audio) upload(wave, spectrum []float32) error {
	return errors.Join(
		a.writeTexture(a.binding.Offset, wave, a.waveWidth),
		a.writeTexture(a.binding.Offset+1, spectrum, a.spectrumWidth),
	)
}

func (a *Audio) writeTexture(binding uint32, samples []float32, width uint32) error {
	data := make([]byte, width*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(s))
	}
	return a.dev.WriteTexture(a.provider.Texture(binding), data, width*4, wgpu.Extent3D{
		Width:              width,
		Height:             1,
		DepthOrArrayLayers: 1,
	})
}

// texelWidth is the texture width for a sample slice. Empty slices still get one texel.
func texelWidth(samples []float32) uint32 {
	return uint32(max(len(samples), 1))
}
