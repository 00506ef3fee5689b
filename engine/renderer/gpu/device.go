// Package gpu is the narrow seam between the renderer and WebGPU. Everything above it creates
// GPU objects through a Device, which lets the mesh, resource, presentation and hot-reload
// logic run against the recording fake in gputest.
package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// DepthFormat is the depth attachment format used by every render pass.
const DepthFormat = wgpu.TextureFormatDepth24Plus

// RenderPipelineDescriptor describes a single-target render pipeline compiled from one WGSL module.
type RenderPipelineDescriptor struct {
	// Label is the debug label of the pipeline.
	Label string
	// Source is the complete WGSL source containing both entry points.
	Source string
	// VertexEntry and FragmentEntry name the shader entry points.
	VertexEntry, FragmentEntry string
	// BindGroupLayouts are the layouts in group order.
	BindGroupLayouts []*wgpu.BindGroupLayout
	// VertexBuffers describes the vertex input layout.
	VertexBuffers []wgpu.VertexBufferLayout
	// Blend is the color blend state, or nil to disable blending.
	Blend *wgpu.BlendState
	// Format is the color target format.
	Format wgpu.TextureFormat
	// DepthTest enables the depth attachment with a LessEqual compare.
	DepthTest bool
	// CullMode and FrontFace configure rasterization.
	CullMode  wgpu.CullMode
	FrontFace wgpu.FrontFace
}

// LayoutGroup pairs a bind group layout with the entries it was created from, so shaders can be
// checked against it before a pipeline is built.
type LayoutGroup struct {
	Layout  *wgpu.BindGroupLayout
	Entries []wgpu.BindGroupLayoutEntry
}

// Layouts returns the layout handles of groups in order.
func Layouts(groups []LayoutGroup) []*wgpu.BindGroupLayout {
	out := make([]*wgpu.BindGroupLayout, len(groups))
	for i, g := range groups {
		out[i] = g.Layout
	}
	return out
}

// Device creates and writes GPU objects. All methods must be called from the render thread.
type Device interface {
	// SurfaceFormat returns the color format of the configured surface.
	SurfaceFormat() wgpu.TextureFormat

	// CreateBuffer creates a buffer. When data is non-empty it is written at offset 0.
	//
	// Parameters:
	//   - desc: the buffer descriptor
	//   - data: optional initial contents
	//
	// Returns:
	//   - *wgpu.Buffer: the created buffer
	//   - error: error if creation fails
	CreateBuffer(desc *wgpu.BufferDescriptor, data []byte) (*wgpu.Buffer, error)

	// WriteBuffer queues a write of data into buf at offset.
	WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) error

	// CreateTexture creates a texture and its default view.
	//
	// Parameters:
	//   - desc: the texture descriptor
	//
	// Returns:
	//   - *wgpu.Texture: the texture
	//   - *wgpu.TextureView: the default view of the texture
	//   - error: error if creation fails
	CreateTexture(desc *wgpu.TextureDescriptor) (*wgpu.Texture, *wgpu.TextureView, error)

	// WriteTexture uploads tightly packed texel rows into the first mip level of tex.
	//
	// Parameters:
	//   - tex: the destination texture
	//   - data: the texel data
	//   - bytesPerRow: the size of one row in bytes
	//   - size: the extent to write
	WriteTexture(tex *wgpu.Texture, data []byte, bytesPerRow uint32, size wgpu.Extent3D) error

	// CreateSampler creates a sampler.
	CreateSampler(desc *wgpu.SamplerDescriptor) (*wgpu.Sampler, error)

	// CreateBindGroupLayout creates a bind group layout.
	CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error)

	// CreateBindGroup creates a bind group.
	CreateBindGroup(desc *wgpu.BindGroupDescriptor) (*wgpu.BindGroup, error)

	// CreateRenderPipeline compiles the shader module and builds the pipeline. The intermediate
	// shader module and pipeline layout are released before returning.
	//
	// Parameters:
	//   - desc: the pipeline descriptor
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the compiled pipeline
	//   - error: error if compilation or creation fails
	CreateRenderPipeline(desc *RenderPipelineDescriptor) (*wgpu.RenderPipeline, error)

	// BeginEncoder starts recording a command encoder.
	BeginEncoder(label string) (Encoder, error)

	// AcquireSurface acquires the next surface texture. Errors are classified with
	// ClassifySurfaceError.
	//
	// Returns:
	//   - *wgpu.TextureView: a view of the surface texture, valid until Present
	//   - error: a wrapped Err* surface error
	AcquireSurface() (*wgpu.TextureView, error)

	// Present presents the acquired surface texture and releases it.
	Present()

	// Release releases any number of GPU handles. Nil handles and unknown types are ignored.
	Release(handles ...any)
}

// Encoder records render passes and submits them to the queue.
type Encoder interface {
	// BeginRenderPass begins a render pass on the encoder.
	BeginRenderPass(desc *wgpu.RenderPassDescriptor) RenderPass

	// Submit finishes the encoder and submits the command buffer. The encoder must not be used
	// afterwards.
	Submit() error

	// Release drops the encoder without submitting.
	Release()
}

// RenderPass records draw commands.
type RenderPass interface {
	SetPipeline(p *wgpu.RenderPipeline)
	SetBindGroup(index uint32, group *wgpu.BindGroup)
	SetVertexBuffer(buf *wgpu.Buffer)
	SetIndexBuffer(buf *wgpu.Buffer)
	DrawIndexed(indexCount uint32)
	Draw(vertexCount uint32)

	// End finishes the pass.
	End()
}
