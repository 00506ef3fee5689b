// Package presentation owns the render history ring and the final composite onto the window
// surface. Meshes draw into slot 0 while sampling slot 1, the previous frame.
package presentation

import (
	_ "embed"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/cubensis-go/common"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/gpu"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/mesh"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/shader"
	"github.com/Carmen-Shannon/cubensis-go/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

//go:embed assets/composite.wgsl
var compositeSource string

// ErrInvalidHistoryDepth is returned by NewPass for a history depth below one.
var ErrInvalidHistoryDepth = errors.New("history depth must be at least 1")

// Drawer draws on top of the composited frame before it is presented.
type Drawer interface {
	Draw(encoder gpu.Encoder, view *wgpu.TextureView) error
}

// pass is the implementation of the Pass interface.
type pass struct {
	mu *sync.Mutex

	dev          gpu.Device
	historyDepth int
	format       wgpu.TextureFormat
	clearColor   wgpu.Color

	width, height int

	layout        *wgpu.BindGroupLayout
	layoutEntries []wgpu.BindGroupLayoutEntry
	history       *Ring[*historySlot]

	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView

	compiler  pipeline.Compiler
	module    *shader.Module
	composite pipeline.Pipeline

	// quad holds the full-screen quad geometry of the composite draw.
	quad bind_group_provider.BindGroupProvider
}

// Pass keeps the last HistoryDepth frames in a ring of HistoryDepth+1 render targets and
// composites the newest one onto the surface.
type Pass interface {
	// StartFrame rotates the history ring by one. Call exactly once per frame before any draw.
	StartFrame()

	// PresentationView returns slot 0, the target meshes draw into this frame.
	PresentationView() *wgpu.TextureView

	// CurrentBindGroup returns the bind group of slot 1, the previous frame.
	CurrentBindGroup() *wgpu.BindGroup

	// BindGroupLayout returns the layout shared by every history bind group.
	BindGroupLayout() *wgpu.BindGroupLayout

	// HistoryLayoutGroup returns the history layout with its entries, for pipeline validation.
	HistoryLayoutGroup() gpu.LayoutGroup

	// DepthView returns the depth attachment sized to the surface.
	DepthView() *wgpu.TextureView

	// HistoryDepth returns the number of previous frames kept.
	HistoryDepth() int

	// Size returns the size of the history textures.
	Size() (width, height int)

	// Present composites slot 0 onto the surface, lets drawer draw on top, submits encoder and
	// presents. A surface error releases encoder without submitting.
	//
	// Parameters:
	//   - encoder: the frame encoder holding the mesh passes
	//   - drawer: the overlay, or nil
	//
	// Returns:
	//   - error: a classified surface error, or a submit error
	Present(encoder gpu.Encoder, drawer Drawer) error

	// Resize recreates the history textures, the depth texture and the composite pipeline. Sizes
	// are clamped to 1x1.
	//
	// Parameters:
	//   - width: the new surface width
	//   - height: the new surface height
	//
	// Returns:
	//   - error: error if a GPU object cannot be created; the old targets are kept
	Resize(width, height int) error

	// Release releases every GPU object owned by the pass.
	Release()
}

var _ Pass = &pass{}

// NewPass creates the history ring, depth texture and composite pipeline.
//
// Parameters:
//   - dev: the device
//   - historyDepth: the number of previous frames kept, at least 1
//   - width: the surface width
//   - height: the surface height
//   - options: functional options to configure the pass
//
// Returns:
//   - Pass: the presentation pass
//   - error: ErrInvalidHistoryDepth, or an error creating GPU objects
func NewPass(dev gpu.Device, historyDepth, width, height int, options ...PassBuilderOption) (Pass, error) {
	if historyDepth < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHistoryDepth, historyDepth)
	}
	p := &pass{
		mu:            &sync.Mutex{},
		dev:           dev,
		historyDepth:  historyDepth,
		format:        dev.SurfaceFormat(),
		clearColor:    wgpu.Color{R: 0.01, G: 0.01, B: 0.01, A: 1},
		layoutEntries: historyLayoutEntries(),
		quad:          bind_group_provider.NewBindGroupProvider("Presentation"),
	}
	for _, option := range options {
		option(p)
	}

	pp := shader.NewPreProcessor(shader.WithInclude(HistoryIncludeName, HistoryInclude(0)))
	f, err := shader.ParseFile("composite.wgsl", compositeSource)
	if err != nil {
		return nil, err
	}
	p.module, err = shader.LoadFile(f, pp)
	if err != nil {
		return nil, err
	}
	p.compiler = pipeline.NewCompiler(dev, pp, pipeline.WithFormat(p.format), pipeline.WithDepthTestEnabled(false))

	p.layout, err = dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   "Render History Bind Group Layout",
		Entries: p.layoutEntries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create history layout: %w", err)
	}

	geometry, _ := mesh.GeometryFor(scene.QuadGeometry())
	if err := bind_group_provider.UploadGeometry(dev, p.quad, geometry.VertexBytes(), geometry.IndexBytes()); err != nil {
		p.Release()
		return nil, err
	}

	if err := p.Resize(width, height); err != nil {
		p.Release()
		return nil, err
	}
	common.Debugf("[Renderer] created presentation pass with %d history textures", historyDepth+1)
	return p, nil
}

func (p *pass) StartFrame() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history.RotateRight()
}

func (p *pass) PresentationView() *wgpu.TextureView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.history.At(0).view()
}

func (p *pass) CurrentBindGroup() *wgpu.BindGroup {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.history.At(1).bindGroup
}

func (p *pass) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.layout
}

func (p *pass) HistoryLayoutGroup() gpu.LayoutGroup {
	return gpu.LayoutGroup{Layout: p.layout, Entries: p.layoutEntries}
}

func (p *pass) DepthView() *wgpu.TextureView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.depthView
}

func (p *pass) HistoryDepth() int {
	return p.historyDepth
}

func (p *pass) Size() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.width, p.height
}

func (p *pass) Present(encoder gpu.Encoder, drawer Drawer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	surfaceView, err := p.dev.AcquireSurface()
	if err != nil {
		encoder.Release()
		return err
	}

	rp := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Presentation Render Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       surfaceView,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: p.clearColor,
			},
		},
	})
	rp.SetPipeline(p.composite.RenderPipeline())
	rp.SetBindGroup(0, p.history.At(0).bindGroup)
	rp.SetVertexBuffer(p.quad.VertexBuffer())
	rp.SetIndexBuffer(p.quad.IndexBuffer())
	rp.DrawIndexed(uint32(p.quad.IndexCount()))
	rp.End()

	if drawer != nil {
		if err := drawer.Draw(encoder, surfaceView); err != nil {
			log.Printf("[Renderer] overlay draw failed: %v", err)
		}
	}

	if err := encoder.Submit(); err != nil {
		return fmt.Errorf("failed to submit frame: %w", err)
	}
	p.dev.Present()
	return nil
}

func (p *pass) Resize(width, height int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	width, height = max(width, 1), max(height, 1)

	slots := make([]*historySlot, 0, p.historyDepth+1)
	releaseSlots := func() {
		for _, s := range slots {
			s.release(p.dev)
		}
	}
	for i := range p.historyDepth + 1 {
		s, err := newHistorySlot(p.dev, i, width, height, p.format, p.layout, p.layoutEntries)
		if err != nil {
			releaseSlots()
			return err
		}
		slots = append(slots, s)
	}

	depthTexture, depthView, err := p.dev.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        gpu.DepthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		releaseSlots()
		return fmt.Errorf("failed to create depth texture: %w", err)
	}

	composite, err := p.compiler.CompileModule("Presentation Pipeline", p.module, scene.BlendingReplace, []gpu.LayoutGroup{p.HistoryLayoutGroup()})
	if err != nil {
		releaseSlots()
		p.dev.Release(depthView, depthTexture)
		return err
	}

	p.releaseTargets()
	p.history = NewRing(slots...)
	p.depthTexture, p.depthView = depthTexture, depthView
	p.composite = composite
	p.width, p.height = width, height
	return nil
}

// releaseTargets releases the size-dependent objects. The caller holds p.mu.
func (p *pass) releaseTargets() {
	if p.history != nil {
		for _, s := range p.history.Slots() {
			s.release(p.dev)
		}
		p.history = nil
	}
	p.dev.Release(p.depthView, p.depthTexture)
	p.depthView, p.depthTexture = nil, nil
	if p.composite != nil {
		p.compiler.Release(p.composite)
		p.composite = nil
	}
}

func (p *pass) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.releaseTargets()
	p.quad.Release(p.dev)
	p.dev.Release(p.layout)
	p.layout = nil
}
