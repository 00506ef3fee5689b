// Package mesh owns the geometry buffers and the per-pass pipelines of one scene mesh. Every
// pass has a fixed slot; hot-reload and resize replace pipelines slot by slot without touching
// the other passes.
package mesh

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/cubensis-go/common"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/gpu"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/cubensis-go/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrShaderNotFound is returned when no pass of the mesh uses the given shader file.
var ErrShaderNotFound = errors.New("shader not found in mesh")

// slot is one render pass of the mesh. The shader descriptor and pipeline always change together.
type slot struct {
	shader   scene.RenderShader
	pipeline pipeline.Pipeline
}

// mesh is the implementation of the Mesh interface.
type mesh struct {
	mu *sync.Mutex

	dev      gpu.Device
	compiler pipeline.Compiler

	name     string
	geometry scene.GeometrySource

	// geometry buffers live in provider
	provider bind_group_provider.BindGroupProvider

	slots []slot
}

// Mesh is a quad drawn once per render shader, in descriptor order.
type Mesh interface {
	// Name returns the mesh name from the descriptor.
	Name() string

	// Descriptor returns a copy of the descriptor reflecting the current slots.
	//
	// Returns:
	//   - scene.MeshDescriptor: the current descriptor
	Descriptor() scene.MeshDescriptor

	// Pipelines returns the pipeline of every slot in pass order.
	Pipelines() []pipeline.Pipeline

	// MatchingSlots returns the slots whose shader file or any of its imports is path.
	//
	// Parameters:
	//   - path: the changed file, compared after canonicalization
	//
	// Returns:
	//   - []int: the matching slot indices in pass order
	MatchingSlots(path string) []int

	// Rebuild recompiles the first slot whose shader path matches updated.Path. On success the slot
	// takes the new descriptor and pipeline and the old pipeline is released. On failure the slot
	// is unchanged.
	//
	// Parameters:
	//   - updated: the new render shader descriptor
	//   - resources: the resource layouts in group order
	//   - history: the history layout, bound after the resource groups
	//
	// Returns:
	//   - error: ErrShaderNotFound if no slot uses the path, or the compile error
	Rebuild(updated scene.RenderShader, resources []gpu.LayoutGroup, history gpu.LayoutGroup) error

	// RebuildSlot recompiles slot i from its current descriptor, with the same atomic rule as
	// Rebuild.
	RebuildSlot(i int, resources []gpu.LayoutGroup, history gpu.LayoutGroup) error

	// RebuildAll recompiles every slot returned by MatchingSlots(path). Each slot is swapped on
	// its own; failures are joined.
	//
	// Parameters:
	//   - path: the changed file
	//   - resources: the resource layouts in group order
	//   - history: the history layout
	//
	// Returns:
	//   - int: the number of slots rebuilt
	//   - error: ErrShaderNotFound if nothing matched, or the joined compile errors
	RebuildAll(path string, resources []gpu.LayoutGroup, history gpu.LayoutGroup) (int, error)

	// Resize recompiles every pipeline. The new set replaces the old one only when every slot
	// compiles.
	Resize(resources []gpu.LayoutGroup, history gpu.LayoutGroup) error

	// Draw records one indexed draw per slot. Resource groups are bound at 0..n-1 and the
	// history group at n.
	//
	// Parameters:
	//   - pass: the render pass targeting the history write slot
	//   - bindGroups: the resource bind groups in group order
	//   - historyGroup: the read history bind group
	Draw(pass gpu.RenderPass, bindGroups []*wgpu.BindGroup, historyGroup *wgpu.BindGroup)

	// Release releases the buffers and every pipeline.
	Release()
}

var _ Mesh = &mesh{}

// New uploads the geometry of descriptor and compiles one pipeline per render shader. Shaders are
// validated in parallel before any pipeline is created. Any failure releases everything built so
// far.
//
// Parameters:
//   - dev: the device
//   - descriptor: the mesh descriptor
//   - compiler: the pipeline compiler
//   - resources: the resource layouts in group order
//   - history: the history layout
//
// Returns:
//   - Mesh: the mesh
//   - error: error if any buffer or pipeline cannot be created
func New(dev gpu.Device, descriptor scene.MeshDescriptor, compiler pipeline.Compiler, resources []gpu.LayoutGroup, history gpu.LayoutGroup) (Mesh, error) {
	geometry, ok := GeometryFor(descriptor.GeometrySource)
	if !ok {
		log.Printf("[Renderer] mesh %q: compute shader geometry is not supported, drawing a quad", descriptor.Name)
	}

	m := &mesh{
		mu:       &sync.Mutex{},
		dev:      dev,
		compiler: compiler,
		name:     descriptor.Name,
		geometry: descriptor.GeometrySource,
		provider: bind_group_provider.NewBindGroupProvider(descriptor.Name),
	}

	if err := bind_group_provider.UploadGeometry(dev, m.provider, geometry.VertexBytes(), geometry.IndexBytes()); err != nil {
		return nil, fmt.Errorf("mesh %q: %w", descriptor.Name, err)
	}

	modules, err := compiler.LoadModules(descriptor.RenderShaders)
	if err != nil {
		m.Release()
		return nil, fmt.Errorf("mesh %q: %w", descriptor.Name, err)
	}

	groups := pipelineGroups(resources, history)
	for i, rs := range descriptor.RenderShaders {
		p, err := compiler.CompileModule(rs.Name, modules[i], rs.Blending, groups)
		if err != nil {
			m.Release()
			return nil, fmt.Errorf("mesh %q: pass %d: %w", descriptor.Name, i, err)
		}
		m.slots = append(m.slots, slot{shader: rs, pipeline: p})
	}

	common.Debugf("[Renderer] created mesh %q with %d passes", m.name, len(m.slots))
	return m, nil
}

// pipelineGroups appends the history layout after the resource layouts.
func pipelineGroups(resources []gpu.LayoutGroup, history gpu.LayoutGroup) []gpu.LayoutGroup {
	return append(slices.Clone(resources), history)
}

func (m *mesh) Name() string {
	return m.name
}

func (m *mesh) Descriptor() scene.MeshDescriptor {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := scene.MeshDescriptor{
		Name:           m.name,
		GeometrySource: m.geometry,
		RenderShaders:  make([]scene.RenderShader, len(m.slots)),
	}
	for i, s := range m.slots {
		out.RenderShaders[i] = s.shader
	}
	return out
}

func (m *mesh) Pipelines() []pipeline.Pipeline {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]pipeline.Pipeline, len(m.slots))
	for i, s := range m.slots {
		out[i] = s.pipeline
	}
	return out
}

func (m *mesh) MatchingSlots(path string) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchingSlots(common.CanonicalPath(path))
}

func (m *mesh) matchingSlots(target string) []int {
	var out []int
	for i, s := range m.slots {
		if m.slotUses(s, target) {
			out = append(out, i)
		}
	}
	return out
}

// slotUses reports whether the canonical path target is the slot's shader file or one of the
// files the compiled module imported.
func (m *mesh) slotUses(s slot, target string) bool {
	if common.CanonicalPath(m.compiler.ResolvePath(s.shader.Path)) == target {
		return true
	}
	if s.pipeline == nil {
		return false
	}
	for _, p := range s.pipeline.Module().SourcePaths() {
		if common.CanonicalPath(p) == target {
			return true
		}
	}
	return false
}

func (m *mesh) Rebuild(updated scene.RenderShader, resources []gpu.LayoutGroup, history gpu.LayoutGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	target := common.CanonicalPath(m.compiler.ResolvePath(updated.Path))
	for i, s := range m.slots {
		if common.CanonicalPath(m.compiler.ResolvePath(s.shader.Path)) == target {
			return m.rebuildSlot(i, updated, pipelineGroups(resources, history))
		}
	}
	return fmt.Errorf("mesh %q: %s: %w", m.name, updated.Path, ErrShaderNotFound)
}

func (m *mesh) RebuildSlot(i int, resources []gpu.LayoutGroup, history gpu.LayoutGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i < 0 || i >= len(m.slots) {
		return fmt.Errorf("mesh %q: slot %d out of range [0, %d)", m.name, i, len(m.slots))
	}
	return m.rebuildSlot(i, m.slots[i].shader, pipelineGroups(resources, history))
}

func (m *mesh) RebuildAll(path string, resources []gpu.LayoutGroup, history gpu.LayoutGroup) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matches := m.matchingSlots(common.CanonicalPath(path))
	if len(matches) == 0 {
		return 0, fmt.Errorf("mesh %q: %s: %w", m.name, path, ErrShaderNotFound)
	}

	groups := pipelineGroups(resources, history)
	var errs []error
	rebuilt := 0
	for _, i := range matches {
		if err := m.rebuildSlot(i, m.slots[i].shader, groups); err != nil {
			errs = append(errs, err)
			continue
		}
		rebuilt++
	}
	return rebuilt, errors.Join(errs...)
}

// rebuildSlot compiles rs and swaps it into slot i. The caller holds m.mu.
func (m *mesh) rebuildSlot(i int, rs scene.RenderShader, groups []gpu.LayoutGroup) error {
	p, err := m.compiler.Compile(rs, groups)
	if err != nil {
		return fmt.Errorf("mesh %q: pass %d: %w", m.name, i, err)
	}
	old := m.slots[i].pipeline
	m.slots[i] = slot{shader: rs, pipeline: p}
	m.compiler.Release(old)
	log.Printf("[Renderer] rebuilt pass %d (%q) of mesh %q", i, rs.Name, m.name)
	return nil
}

func (m *mesh) Resize(resources []gpu.LayoutGroup, history gpu.LayoutGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	groups := pipelineGroups(resources, history)
	next := make([]pipeline.Pipeline, 0, len(m.slots))
	for i, s := range m.slots {
		p, err := m.compiler.Compile(s.shader, groups)
		if err != nil {
			for _, built := range next {
				m.compiler.Release(built)
			}
			return fmt.Errorf("mesh %q: resize pass %d: %w", m.name, i, err)
		}
		next = append(next, p)
	}

	for i, p := range next {
		m.compiler.Release(m.slots[i].pipeline)
		m.slots[i].pipeline = p
	}
	return nil
}

func (m *mesh) Draw(pass gpu.RenderPass, bindGroups []*wgpu.BindGroup, historyGroup *wgpu.BindGroup) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.slots {
		pass.SetPipeline(s.pipeline.RenderPipeline())
		for g, group := range bindGroups {
			pass.SetBindGroup(uint32(g), group)
		}
		pass.SetBindGroup(uint32(len(bindGroups)), historyGroup)
		pass.SetVertexBuffer(m.provider.VertexBuffer())
		pass.SetIndexBuffer(m.provider.IndexBuffer())
		pass.DrawIndexed(uint32(m.provider.IndexCount()))
	}
}

func (m *mesh) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.slots {
		m.compiler.Release(s.pipeline)
	}
	m.slots = nil
	m.provider.Release(m.dev)
}
