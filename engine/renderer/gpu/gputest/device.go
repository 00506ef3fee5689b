// Package gputest provides a recording gpu.Device for tests that exercise renderer logic without
// a GPU adapter.
package gputest

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// FailMarker makes CreateRenderPipeline fail when it appears in the shader source.
const FailMarker = "//@gputest:fail"

// ErrInjected is returned by operations the test asked to fail.
var ErrInjected = errors.New("gputest: injected failure")

// Command is one recorded render pass command. Every pass starts with a "Begin" command whose
// Arg is a copy of the *wgpu.RenderPassDescriptor.
type Command struct {
	Op    string
	Index uint32
	Count uint32
	Arg   any
}

// Device is a fake gpu.Device. Handles are distinct zero-value pointers that are never passed
// to the native library. Every creation and release is recorded.
type Device struct {
	mu *sync.Mutex

	// Format is returned by SurfaceFormat.
	Format wgpu.TextureFormat
	// SurfaceErr, when set, is classified and returned by AcquireSurface.
	SurfaceErr error

	Buffers          []*wgpu.BufferDescriptor
	Textures         []*wgpu.TextureDescriptor
	Samplers         []*wgpu.SamplerDescriptor
	BindGroupLayouts []*wgpu.BindGroupLayoutDescriptor
	BindGroups       []*wgpu.BindGroupDescriptor
	Pipelines        []*gpu.RenderPipelineDescriptor
	BufferWrites     int
	TextureWrites    int
	Submits          int
	Presents         int
	Passes           [][]Command

	live map[any]string
}

var _ gpu.Device = &Device{}

// NewDevice creates an empty recording device with a BGRA8 surface format.
func NewDevice() *Device {
	return &Device{
		mu:     &sync.Mutex{},
		Format: wgpu.TextureFormatBGRA8Unorm,
		live:   make(map[any]string),
	}
}

func (d *Device) SurfaceFormat() wgpu.TextureFormat {
	return d.Format
}

func (d *Device) CreateBuffer(desc *wgpu.BufferDescriptor, data []byte) (*wgpu.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *desc
	d.Buffers = append(d.Buffers, &cp)
	if len(data) > 0 {
		d.BufferWrites++
	}
	buf := &wgpu.Buffer{}
	d.live[buf] = "buffer " + desc.Label
	return buf, nil
}

func (d *Device) WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.live[buf]; !ok {
		return fmt.Errorf("gputest: write to unknown or released buffer")
	}
	d.BufferWrites++
	return nil
}

func (d *Device) CreateTexture(desc *wgpu.TextureDescriptor) (*wgpu.Texture, *wgpu.TextureView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if desc.Size.Width == 0 || desc.Size.Height == 0 {
		return nil, nil, fmt.Errorf("gputest: texture %q has a zero extent", desc.Label)
	}
	cp := *desc
	d.Textures = append(d.Textures, &cp)
	tex, view := &wgpu.Texture{}, &wgpu.TextureView{}
	d.live[tex] = "texture " + desc.Label
	d.live[view] = "view " + desc.Label
	return tex, view, nil
}

func (d *Device) WriteTexture(tex *wgpu.Texture, data []byte, bytesPerRow uint32, size wgpu.Extent3D) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.live[tex]; !ok {
		return fmt.Errorf("gputest: write to unknown or released texture")
	}
	if want := int(bytesPerRow) * int(size.Height); len(data) < want {
		return fmt.Errorf("gputest: texture write has %d bytes, want %d", len(data), want)
	}
	d.TextureWrites++
	return nil
}

func (d *Device) CreateSampler(desc *wgpu.SamplerDescriptor) (*wgpu.Sampler, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *desc
	d.Samplers = append(d.Samplers, &cp)
	s := &wgpu.Sampler{}
	d.live[s] = "sampler " + desc.Label
	return s, nil
}

func (d *Device) CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	seen := make(map[uint32]bool, len(desc.Entries))
	for _, e := range desc.Entries {
		if seen[e.Binding] {
			return nil, fmt.Errorf("gputest: layout %q repeats binding %d", desc.Label, e.Binding)
		}
		seen[e.Binding] = true
	}
	cp := *desc
	cp.Entries = append([]wgpu.BindGroupLayoutEntry(nil), desc.Entries...)
	d.BindGroupLayouts = append(d.BindGroupLayouts, &cp)
	l := &wgpu.BindGroupLayout{}
	d.live[l] = "layout " + desc.Label
	return l, nil
}

func (d *Device) CreateBindGroup(desc *wgpu.BindGroupDescriptor) (*wgpu.BindGroup, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.live[desc.Layout]; !ok {
		return nil, fmt.Errorf("gputest: bind group %q uses an unknown or released layout", desc.Label)
	}
	cp := *desc
	cp.Entries = append([]wgpu.BindGroupEntry(nil), desc.Entries...)
	d.BindGroups = append(d.BindGroups, &cp)
	g := &wgpu.BindGroup{}
	d.live[g] = "bind group " + desc.Label
	return g, nil
}

func (d *Device) CreateRenderPipeline(desc *gpu.RenderPipelineDescriptor) (*wgpu.RenderPipeline, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if strings.Contains(desc.Source, FailMarker) {
		return nil, fmt.Errorf("pipeline %q: %w", desc.Label, ErrInjected)
	}
	cp := *desc
	d.Pipelines = append(d.Pipelines, &cp)
	p := &wgpu.RenderPipeline{}
	d.live[p] = "pipeline " + desc.Label
	return p, nil
}

func (d *Device) BeginEncoder(label string) (gpu.Encoder, error) {
	return &encoder{device: d}, nil
}

func (d *Device) AcquireSurface() (*wgpu.TextureView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.SurfaceErr != nil {
		return nil, gpu.ClassifySurfaceError(d.SurfaceErr)
	}
	return &wgpu.TextureView{}, nil
}

func (d *Device) Present() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Presents++
}

func (d *Device) Release(handles ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, h := range handles {
		delete(d.live, h)
	}
}

// Live reports whether a handle was created by this device and not yet released.
func (d *Device) Live(handle any) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.live[handle]
	return ok
}

// LiveCount returns the number of unreleased handles.
func (d *Device) LiveCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

// PipelineCount returns the number of pipelines created so far.
func (d *Device) PipelineCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Pipelines)
}

// LastLayout returns the most recently created bind group layout descriptor.
func (d *Device) LastLayout() *wgpu.BindGroupLayoutDescriptor {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.BindGroupLayouts) == 0 {
		return nil
	}
	return d.BindGroupLayouts[len(d.BindGroupLayouts)-1]
}

type encoder struct {
	device *Device
	passes [][]Command
}

func (e *encoder) BeginRenderPass(desc *wgpu.RenderPassDescriptor) gpu.RenderPass {
	cp := *desc
	cp.ColorAttachments = append([]wgpu.RenderPassColorAttachment(nil), desc.ColorAttachments...)
	e.passes = append(e.passes, []Command{{Op: "Begin", Arg: &cp}})
	return &pass{encoder: e, index: len(e.passes) - 1}
}

func (e *encoder) Submit() error {
	e.device.mu.Lock()
	defer e.device.mu.Unlock()
	e.device.Submits++
	e.device.Passes = append(e.device.Passes, e.passes...)
	return nil
}

func (e *encoder) Release() {}

type pass struct {
	encoder *encoder
	index   int
}

func (p *pass) record(c Command) {
	p.encoder.passes[p.index] = append(p.encoder.passes[p.index], c)
}

func (p *pass) SetPipeline(pl *wgpu.RenderPipeline) {
	p.record(Command{Op: "SetPipeline", Arg: pl})
}

func (p *pass) SetBindGroup(index uint32, group *wgpu.BindGroup) {
	p.record(Command{Op: "SetBindGroup", Index: index, Arg: group})
}

func (p *pass) SetVertexBuffer(buf *wgpu.Buffer) {
	p.record(Command{Op: "SetVertexBuffer", Arg: buf})
}

func (p *pass) SetIndexBuffer(buf *wgpu.Buffer) {
	p.record(Command{Op: "SetIndexBuffer", Arg: buf})
}

func (p *pass) DrawIndexed(indexCount uint32) {
	p.record(Command{Op: "DrawIndexed", Count: indexCount})
}

func (p *pass) Draw(vertexCount uint32) {
	p.record(Command{Op: "Draw", Count: vertexCount})
}

func (p *pass) End() {
	p.record(Command{Op: "End"})
}
