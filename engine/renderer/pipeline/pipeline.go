// Package pipeline compiles validated shader modules into render pipelines for one pass of a
// mesh or for the presentation composite.
package pipeline

import (
	"fmt"
	"log"

	"github.com/Carmen-Shannon/cubensis-go/common"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/gpu"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/shader"
	"github.com/Carmen-Shannon/cubensis-go/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	label    string
	module   *shader.Module
	blending scene.Blending

	renderPipeline *wgpu.RenderPipeline
}

// Pipeline is a compiled render pipeline together with the module it was built from.
type Pipeline interface {
	// Label returns the debug label of the pipeline.
	Label() string

	// Module returns the validated shader module.
	//
	// Returns:
	//   - *shader.Module: the module the pipeline was compiled from
	Module() *shader.Module

	// Blending returns the blend mode of the color target.
	Blending() scene.Blending

	// RenderPipeline returns the GPU pipeline.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the render pipeline handle
	RenderPipeline() *wgpu.RenderPipeline
}

var _ Pipeline = &pipeline{}

func (p *pipeline) Label() string {
	return p.label
}

func (p *pipeline) Module() *shader.Module {
	return p.module
}

func (p *pipeline) Blending() scene.Blending {
	return p.blending
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

// compiler is the implementation of the Compiler interface.
type compiler struct {
	dev gpu.Device
	pp  shader.PreProcessor

	vertexLayout wgpu.VertexBufferLayout
	format       wgpu.TextureFormat
	depthTest    bool
	cullMode     wgpu.CullMode
	frontFace    wgpu.FrontFace
	resolvePath  func(string) string
}

// Compiler turns shader files into render pipelines against a set of bind group layouts. Every
// shader is validated and checked against the layouts before the device sees it.
type Compiler interface {
	// ResolvePath maps a scene shader path to the file that is loaded.
	ResolvePath(path string) string

	// Compile loads the shader of rs and builds its pipeline.
	//
	// Parameters:
	//   - rs: the render shader descriptor
	//   - groups: the bind group layouts in group order
	//
	// Returns:
	//   - Pipeline: the compiled pipeline
	//   - error: a *shader.ValidationError or a device error
	Compile(rs scene.RenderShader, groups []gpu.LayoutGroup) (Pipeline, error)

	// LoadModules loads and validates the shaders of several passes in parallel. The result is
	// aligned with shaders; failed entries are nil and their errors are joined.
	//
	// Parameters:
	//   - shaders: the render shader descriptors
	//
	// Returns:
	//   - []*shader.Module: the validated modules
	//   - error: the joined validation errors
	LoadModules(shaders []scene.RenderShader) ([]*shader.Module, error)

	// CompileModule builds a pipeline from an already validated module.
	//
	// Parameters:
	//   - label: the debug label
	//   - module: the validated module
	//   - blending: the blend mode of the color target
	//   - groups: the bind group layouts in group order
	//
	// Returns:
	//   - Pipeline: the compiled pipeline
	//   - error: a *shader.ValidationError or a device error
	CompileModule(label string, module *shader.Module, blending scene.Blending, groups []gpu.LayoutGroup) (Pipeline, error)

	// Release releases the GPU pipeline of p. Nil is ignored.
	Release(p Pipeline)
}

var _ Compiler = &compiler{}

// NewCompiler creates a Compiler for the quad vertex layout targeting the surface format, with
// depth testing enabled and no culling.
//
// Parameters:
//   - dev: the device pipelines are created on
//   - pp: the pre-processor expanding include directives
//   - options: functional options to configure the compiler
//
// Returns:
//   - Compiler: the compiler
func NewCompiler(dev gpu.Device, pp shader.PreProcessor, options ...CompilerBuilderOption) Compiler {
	c := &compiler{
		dev:          dev,
		pp:           pp,
		vertexLayout: QuadVertexLayout(),
		format:       dev.SurfaceFormat(),
		depthTest:    true,
		cullMode:     wgpu.CullModeNone,
		frontFace:    wgpu.FrontFaceCCW,
		resolvePath:  func(p string) string { return p },
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// QuadVertexLayout is the layout of the quad geometry: vec3 position then vec2 uv.
func QuadVertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: 5 * 4,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 3 * 4, ShaderLocation: 1},
		},
	}
}

func (c *compiler) ResolvePath(path string) string {
	return c.resolvePath(path)
}

func (c *compiler) Compile(rs scene.RenderShader, groups []gpu.LayoutGroup) (Pipeline, error) {
	path := c.resolvePath(rs.Path)
	module, err := shader.Load(path, c.pp)
	if err != nil {
		return nil, err
	}
	return c.CompileModule(rs.Name, module, rs.Blending, groups)
}

func (c *compiler) LoadModules(shaders []scene.RenderShader) ([]*shader.Module, error) {
	paths := make([]string, len(shaders))
	for i, rs := range shaders {
		paths[i] = c.resolvePath(rs.Path)
	}
	return shader.LoadAll(paths, c.pp)
}

func (c *compiler) CompileModule(label string, module *shader.Module, blending scene.Blending, groups []gpu.LayoutGroup) (Pipeline, error) {
	if err := module.CheckVertexInput(c.vertexLayout); err != nil {
		return nil, err
	}
	if err := module.CheckBindings(groups); err != nil {
		return nil, err
	}

	rp, err := c.dev.CreateRenderPipeline(&gpu.RenderPipelineDescriptor{
		Label:            label,
		Source:           module.Source,
		VertexEntry:      module.VertexEntry,
		FragmentEntry:    module.FragmentEntry,
		BindGroupLayouts: gpu.Layouts(groups),
		VertexBuffers:    []wgpu.VertexBufferLayout{c.vertexLayout},
		Blend:            BlendState(blending),
		Format:           c.format,
		DepthTest:        c.depthTest,
		CullMode:         c.cullMode,
		FrontFace:        c.frontFace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create render pipeline %q: %w", label, err)
	}
	common.Debugf("[Renderer] compiled pipeline %q (%s, %s/%s)", label, blending, module.VertexEntry, module.FragmentEntry)
	return &pipeline{
		label:          label,
		module:         module,
		blending:       blending,
		renderPipeline: rp,
	}, nil
}

func (c *compiler) Release(p Pipeline) {
	if p == nil {
		return
	}
	if p.RenderPipeline() == nil {
		log.Printf("[Renderer] pipeline %q has no GPU pipeline to release", p.Label())
		return
	}
	c.dev.Release(p.RenderPipeline())
}
