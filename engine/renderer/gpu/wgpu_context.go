package gpu

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"slices"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuContext owns the WebGPU instance, adapter, device, queue and window surface.
type wgpuContext struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode

	// Pre-creation config collected from builder options
	vsync                bool
	forceFallbackAdapter bool

	width, height int

	frameTexture *wgpu.Texture
	frameView    *wgpu.TextureView
}

// Context is a Device bound to a window surface.
type Context interface {
	Device

	// ConfigureSurface (re)configures the surface for the given size. Sizes are clamped to 1x1.
	//
	// Parameters:
	//   - width: the surface width in pixels
	//   - height: the surface height in pixels
	ConfigureSurface(width, height int)

	// SetVSync switches between the Fifo and Immediate present modes and reconfigures the surface.
	//
	// Parameters:
	//   - enabled: true for Fifo, false for Immediate when the surface supports it
	SetVSync(enabled bool)

	// Destroy releases the device and every object owned by the context.
	Destroy()
}

var _ Context = &wgpuContext{}

// NewContext creates the WebGPU instance, requests an adapter compatible with the surface and
// opens the device. The calling goroutine is locked to its OS thread.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor from the window
//   - options: functional options to configure the context
//
// Returns:
//   - Context: the ready-to-configure context
//   - error: error if no adapter or device could be obtained
func NewContext(surfaceDescriptor *wgpu.SurfaceDescriptor, options ...ContextBuilderOption) (Context, error) {
	runtime.LockOSThread()
	c := &wgpuContext{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
	}
	for _, option := range options {
		option(c)
	}
	c.surface = c.instance.CreateSurface(surfaceDescriptor)

	adapter, err := c.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: c.forceFallbackAdapter,
		CompatibleSurface:    c.surface,
	})
	if err != nil {
		c.Destroy()
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	c.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		c.Destroy()
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	c.device = device
	c.queue = device.GetQueue()

	capabilities := c.surface.GetCapabilities(c.adapter)
	if len(capabilities.Formats) == 0 {
		c.Destroy()
		return nil, errors.New("surface reports no supported formats")
	}
	c.surfaceFormat = capabilities.Formats[0]
	c.presentMode = selectPresentMode(c.vsync, capabilities.PresentModes)

	return c, nil
}

func (c *wgpuContext) SurfaceFormat() wgpu.TextureFormat {
	return c.surfaceFormat
}

func (c *wgpuContext) ConfigureSurface(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width, c.height = max(width, 1), max(height, 1)
	c.configureLocked()
}

func (c *wgpuContext) SetVSync(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	capabilities := c.surface.GetCapabilities(c.adapter)
	c.vsync = enabled
	c.presentMode = selectPresentMode(enabled, capabilities.PresentModes)
	if c.width > 0 {
		c.configureLocked()
	}
}

func (c *wgpuContext) CreateBuffer(desc *wgpu.BufferDescriptor, data []byte) (*wgpu.Buffer, error) {
	buf, err := c.device.CreateBuffer(desc)
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer %q: %w", desc.Label, err)
	}
	if len(data) > 0 {
		if err := c.queue.WriteBuffer(buf, 0, data); err != nil {
			buf.Release()
			return nil, fmt.Errorf("failed to write buffer %q: %w", desc.Label, err)
		}
	}
	return buf, nil
}

func (c *wgpuContext) WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) error {
	return c.queue.WriteBuffer(buf, offset, data)
}

func (c *wgpuContext) CreateTexture(desc *wgpu.TextureDescriptor) (*wgpu.Texture, *wgpu.TextureView, error) {
	tex, err := c.device.CreateTexture(desc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create texture %q: %w", desc.Label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("failed to create view for texture %q: %w", desc.Label, err)
	}
	return tex, view, nil
}

func (c *wgpuContext) WriteTexture(tex *wgpu.Texture, data []byte, bytesPerRow uint32, size wgpu.Extent3D) error {
	c.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		data,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  bytesPerRow,
			RowsPerImage: size.Height,
		},
		&size,
	)
	return nil
}

func (c *wgpuContext) CreateSampler(desc *wgpu.SamplerDescriptor) (*wgpu.Sampler, error) {
	return c.device.CreateSampler(desc)
}

func (c *wgpuContext) CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error) {
	return c.device.CreateBindGroupLayout(desc)
}

func (c *wgpuContext) CreateBindGroup(desc *wgpu.BindGroupDescriptor) (*wgpu.BindGroup, error) {
	return c.device.CreateBindGroup(desc)
}

func (c *wgpuContext) CreateRenderPipeline(desc *RenderPipelineDescriptor) (*wgpu.RenderPipeline, error) {
	module, err := c.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: desc.Source,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create shader module %q: %w", desc.Label, err)
	}
	defer module.Release()

	layout, err := c.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label + " Layout",
		BindGroupLayouts: desc.BindGroupLayouts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline layout %q: %w", desc.Label, err)
	}
	defer layout.Release()

	var depthStencil *wgpu.DepthStencilState
	if desc.DepthTest {
		depthStencil = &wgpu.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLessEqual,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	created, err := c.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: desc.VertexEntry,
			Buffers:    desc.VertexBuffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: desc.FragmentEntry,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    desc.Format,
					Blend:     desc.Blend,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: desc.FrontFace,
			CullMode:  desc.CullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencil,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create render pipeline %q: %w", desc.Label, err)
	}
	return created, nil
}

func (c *wgpuContext) BeginEncoder(label string) (Encoder, error) {
	encoder, err := c.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create command encoder %q: %w", label, err)
	}
	return &wgpuEncoder{queue: c.queue, encoder: encoder}, nil
}

func (c *wgpuContext) AcquireSurface() (*wgpu.TextureView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A held surface texture means the previous frame never reached Present.
	if c.frameTexture != nil {
		return nil, fmt.Errorf("%w: previous frame surface not yet presented", ErrSurfaceOther)
	}

	surfaceTexture, err := c.surface.GetCurrentTexture()
	if err != nil {
		return nil, ClassifySurfaceError(err)
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return nil, fmt.Errorf("%w: %w", ErrSurfaceOther, err)
	}
	c.frameTexture = surfaceTexture
	c.frameView = view
	return view, nil
}

func (c *wgpuContext) Present() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frameTexture == nil {
		return
	}
	c.surface.Present()

	c.frameView.Release()
	c.frameTexture.Release()
	c.frameView = nil
	c.frameTexture = nil
}

func (c *wgpuContext) Release(handles ...any) {
	for _, h := range handles {
		release(h)
	}
}

func (c *wgpuContext) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frameTexture != nil {
		c.frameView.Release()
		c.frameTexture.Release()
		c.frameView, c.frameTexture = nil, nil
	}
	if c.queue != nil {
		c.queue.Release()
		c.queue = nil
	}
	if c.device != nil {
		c.device.Release()
		c.device = nil
	}
	if c.adapter != nil {
		c.adapter.Release()
		c.adapter = nil
	}
	if c.surface != nil {
		c.surface.Release()
		c.surface = nil
	}
	if c.instance != nil {
		c.instance.Release()
		c.instance = nil
	}
}

// configureLocked applies the current size and present mode to the surface.
// Caller must hold the mutex.
func (c *wgpuContext) configureLocked() {
	capabilities := c.surface.GetCapabilities(c.adapter)
	c.surface.Configure(c.adapter, c.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      c.surfaceFormat,
		Width:       uint32(c.width),
		Height:      uint32(c.height),
		PresentMode: c.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	log.Printf("[Renderer] surface configured %dx%d (present mode %v)", c.width, c.height, c.presentMode)
}

// selectPresentMode returns Fifo for vsync and Immediate otherwise, falling back to Fifo when the
// surface does not support Immediate. Fifo support is guaranteed by WebGPU.
func selectPresentMode(vsync bool, supported []wgpu.PresentMode) wgpu.PresentMode {
	if !vsync && slices.Contains(supported, wgpu.PresentModeImmediate) {
		return wgpu.PresentModeImmediate
	}
	return wgpu.PresentModeFifo
}

// release releases a single GPU handle of any known type.
func release(h any) {
	switch v := h.(type) {
	case *wgpu.Buffer:
		if v != nil {
			v.Release()
		}
	case *wgpu.Texture:
		if v != nil {
			v.Release()
		}
	case *wgpu.TextureView:
		if v != nil {
			v.Release()
		}
	case *wgpu.Sampler:
		if v != nil {
			v.Release()
		}
	case *wgpu.BindGroupLayout:
		if v != nil {
			v.Release()
		}
	case *wgpu.BindGroup:
		if v != nil {
			v.Release()
		}
	case *wgpu.RenderPipeline:
		if v != nil {
			v.Release()
		}
	}
}

// wgpuEncoder wraps a command encoder and the passes begun on it.
type wgpuEncoder struct {
	queue   *wgpu.Queue
	encoder *wgpu.CommandEncoder
	passes  []*wgpu.RenderPassEncoder
}

func (e *wgpuEncoder) BeginRenderPass(desc *wgpu.RenderPassDescriptor) RenderPass {
	pass := e.encoder.BeginRenderPass(desc)
	e.passes = append(e.passes, pass)
	return &wgpuRenderPass{pass: pass}
}

func (e *wgpuEncoder) Submit() error {
	// Passes must be released before Finish.
	e.releasePasses()
	commandBuffer, err := e.encoder.Finish(nil)
	if err != nil {
		e.encoder.Release()
		return fmt.Errorf("failed to finish command encoder: %w", err)
	}
	e.queue.Submit(commandBuffer)
	commandBuffer.Release()
	e.encoder.Release()
	return nil
}

func (e *wgpuEncoder) Release() {
	e.releasePasses()
	e.encoder.Release()
}

func (e *wgpuEncoder) releasePasses() {
	for _, p := range e.passes {
		p.Release()
	}
	e.passes = nil
}

// wgpuRenderPass adapts a RenderPassEncoder to RenderPass with whole-buffer bindings and a
// single instance per draw.
type wgpuRenderPass struct {
	pass *wgpu.RenderPassEncoder
}

func (p *wgpuRenderPass) SetPipeline(pipeline *wgpu.RenderPipeline) {
	p.pass.SetPipeline(pipeline)
}

func (p *wgpuRenderPass) SetBindGroup(index uint32, group *wgpu.BindGroup) {
	p.pass.SetBindGroup(index, group, nil)
}

func (p *wgpuRenderPass) SetVertexBuffer(buf *wgpu.Buffer) {
	p.pass.SetVertexBuffer(0, buf, 0, wgpu.WholeSize)
}

func (p *wgpuRenderPass) SetIndexBuffer(buf *wgpu.Buffer) {
	p.pass.SetIndexBuffer(buf, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
}

func (p *wgpuRenderPass) DrawIndexed(indexCount uint32) {
	p.pass.DrawIndexed(indexCount, 1, 0, 0, 0)
}

func (p *wgpuRenderPass) Draw(vertexCount uint32) {
	p.pass.Draw(vertexCount, 1, 0, 0)
}

func (p *wgpuRenderPass) End() {
	p.pass.End()
}
