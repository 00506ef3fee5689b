package bind_group_provider

import (
	"fmt"

	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// The following fields are GPU allocated resources and must be released when no longer needed.

	// buffers holds the GPU buffers keyed by binding index.
	buffers map[uint32]*wgpu.Buffer
	// textures holds the GPU textures backing textureViews, keyed by binding index.
	textures map[uint32]*wgpu.Texture
	// textureViews holds the GPU texture views keyed by binding index.
	textureViews map[uint32]*wgpu.TextureView
	// samplers holds the GPU samplers keyed by binding index.
	samplers map[uint32]*wgpu.Sampler

	// vertexBuffer and indexBuffer hold mesh geometry; indexCount is used for drawIndexed.
	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	indexCount   int
}

// BindGroupProvider stores the GPU handles that back a set of bindings, keyed by binding index,
// and projects them onto bind group entries for any layout that references those bindings.
//
// Usage pattern:
//  1. A resource creates its buffers, textures and samplers through a gpu.Device and stores them here
//  2. Entries(layoutEntries) maps each layout entry to the stored handle with the same binding
//  3. Meshes and full-screen passes keep their vertex and index buffers here through UploadGeometry
//  4. Release hands every stored handle back to the device
type BindGroupProvider interface {
	// Release releases every GPU handle held by this provider through dev and clears the provider.
	//
	// Parameters:
	//   - dev: the device that created the handles
	Release(dev gpu.Device)

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Buffer returns the buffer stored at binding, or nil.
	Buffer(binding uint32) *wgpu.Buffer

	// Texture returns the texture stored at binding, or nil.
	Texture(binding uint32) *wgpu.Texture

	// TextureView returns the texture view stored at binding, or nil.
	TextureView(binding uint32) *wgpu.TextureView

	// Sampler returns the sampler stored at binding, or nil.
	Sampler(binding uint32) *wgpu.Sampler

	// VertexBuffer returns the vertex buffer, or nil.
	VertexBuffer() *wgpu.Buffer

	// IndexBuffer returns the index buffer, or nil.
	IndexBuffer() *wgpu.Buffer

	// IndexCount returns the number of indices for draw calls.
	IndexCount() int

	// SetBuffer stores buf at binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the buffer to store
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer previously stored at binding, which the caller now owns
	SetBuffer(binding uint32, buf *wgpu.Buffer) *wgpu.Buffer

	// SetTexture stores a texture and its view at binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - tex: the texture
	//   - view: the view of tex that is bound
	//
	// Returns:
	//   - *wgpu.Texture: the previously stored texture, which the caller now owns
	//   - *wgpu.TextureView: the previously stored view, which the caller now owns
	SetTexture(binding uint32, tex *wgpu.Texture, view *wgpu.TextureView) (*wgpu.Texture, *wgpu.TextureView)

	// SetSampler stores s at binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - s: the sampler to store
	//
	// Returns:
	//   - *wgpu.Sampler: the previously stored sampler, which the caller now owns
	SetSampler(binding uint32, s *wgpu.Sampler) *wgpu.Sampler

	// SetGeometry stores the vertex and index buffers and the index count. Buffers previously
	// stored are released through dev.
	SetGeometry(dev gpu.Device, vertexBuffer, indexBuffer *wgpu.Buffer, indexCount int)

	// Entries projects the stored handles onto bind group entries, one per layout entry, in the
	// order of layoutEntries. Buffers are bound whole.
	//
	// Parameters:
	//   - layoutEntries: the layout entries to satisfy
	//
	// Returns:
	//   - []wgpu.BindGroupEntry: the bind group entries
	//   - error: error if a layout entry has no stored handle of the matching kind
	Entries(layoutEntries []wgpu.BindGroupLayoutEntry) ([]wgpu.BindGroupEntry, error)
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates an empty BindGroupProvider.
//
// Parameters:
//   - label: the debug label used for every object the provider builds
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new provider
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		buffers:      make(map[uint32]*wgpu.Buffer),
		textures:     make(map[uint32]*wgpu.Texture),
		textureViews: make(map[uint32]*wgpu.TextureView),
		samplers:     make(map[uint32]*wgpu.Sampler),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Buffer(binding uint32) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) Texture(binding uint32) *wgpu.Texture {
	return p.textures[binding]
}

func (p *bindGroupProvider) TextureView(binding uint32) *wgpu.TextureView {
	return p.textureViews[binding]
}

func (p *bindGroupProvider) Sampler(binding uint32) *wgpu.Sampler {
	return p.samplers[binding]
}

func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer {
	return p.vertexBuffer
}

func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer {
	return p.indexBuffer
}

func (p *bindGroupProvider) IndexCount() int {
	return p.indexCount
}

func (p *bindGroupProvider) SetBuffer(binding uint32, buf *wgpu.Buffer) *wgpu.Buffer {
	prev := p.buffers[binding]
	p.buffers[binding] = buf
	return prev
}

func (p *bindGroupProvider) SetTexture(binding uint32, tex *wgpu.Texture, view *wgpu.TextureView) (*wgpu.Texture, *wgpu.TextureView) {
	prevTex, prevView := p.textures[binding], p.textureViews[binding]
	p.textures[binding] = tex
	p.textureViews[binding] = view
	return prevTex, prevView
}

func (p *bindGroupProvider) SetSampler(binding uint32, s *wgpu.Sampler) *wgpu.Sampler {
	prev := p.samplers[binding]
	p.samplers[binding] = s
	return prev
}

func (p *bindGroupProvider) SetGeometry(dev gpu.Device, vertexBuffer, indexBuffer *wgpu.Buffer, indexCount int) {
	if p.vertexBuffer != nil && p.vertexBuffer != vertexBuffer {
		dev.Release(p.vertexBuffer)
	}
	if p.indexBuffer != nil && p.indexBuffer != indexBuffer {
		dev.Release(p.indexBuffer)
	}
	p.vertexBuffer = vertexBuffer
	p.indexBuffer = indexBuffer
	p.indexCount = indexCount
}

func (p *bindGroupProvider) Entries(layoutEntries []wgpu.BindGroupLayoutEntry) ([]wgpu.BindGroupEntry, error) {
	entries := make([]wgpu.BindGroupEntry, len(layoutEntries))
	for i, entry := range layoutEntries {
		binding := entry.Binding

		isTexture := entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined
		isSampler := entry.Sampler.Type != wgpu.SamplerBindingTypeUndefined

		switch {
		case isTexture:
			tv := p.textureViews[binding]
			if tv == nil {
				return nil, fmt.Errorf("%s: texture binding %d has no texture view", p.label, binding)
			}
			entries[i] = wgpu.BindGroupEntry{
				Binding:     binding,
				TextureView: tv,
			}
		case isSampler:
			s := p.samplers[binding]
			if s == nil {
				return nil, fmt.Errorf("%s: sampler binding %d has no sampler", p.label, binding)
			}
			entries[i] = wgpu.BindGroupEntry{
				Binding: binding,
				Sampler: s,
			}
		default:
			buf := p.buffers[binding]
			if buf == nil {
				return nil, fmt.Errorf("%s: buffer binding %d has no buffer", p.label, binding)
			}
			entries[i] = wgpu.BindGroupEntry{
				Binding: binding,
				Buffer:  buf,
				Offset:  0,
				Size:    wgpu.WholeSize,
			}
		}
	}
	return entries, nil
}

func (p *bindGroupProvider) Release(dev gpu.Device) {
	// Views before textures.
	for i, tv := range p.textureViews {
		dev.Release(tv)
		delete(p.textureViews, i)
	}
	for i, tex := range p.textures {
		dev.Release(tex)
		delete(p.textures, i)
	}
	for i, s := range p.samplers {
		dev.Release(s)
		delete(p.samplers, i)
	}
	for i, buf := range p.buffers {
		dev.Release(buf)
		delete(p.buffers, i)
	}
	if p.vertexBuffer != nil {
		dev.Release(p.vertexBuffer)
		p.vertexBuffer = nil
	}
	if p.indexBuffer != nil {
		dev.Release(p.indexBuffer)
		p.indexBuffer = nil
	}
	p.indexCount = 0
}
