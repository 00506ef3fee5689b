// Package shader loads mesh shader files, expands their imports and include directives, and
// validates the resulting WGSL before any of it reaches the GPU.
package shader

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
)

// Phase names the step of shader loading that failed.
type Phase string

const (
	PhaseRead       Phase = "read"
	PhaseHeader     Phase = "header"
	PhaseImport     Phase = "import"
	PhaseInclude    Phase = "include"
	PhaseCompile    Phase = "compile"
	PhaseEntryPoint Phase = "entry point"
	PhaseBinding    Phase = "binding"
	PhaseVertex     Phase = "vertex input"
)

var (
	// ErrMissingEntryPoint is returned when a module lacks a vertex or fragment entry point.
	ErrMissingEntryPoint = errors.New("missing entry point")

	// ErrBindingMismatch is returned when a declaration does not fit the pipeline's layouts.
	ErrBindingMismatch = errors.New("binding does not match the pipeline layout")
)

// ValidationError describes why a shader could not be turned into a pipeline.
type ValidationError struct {
	Path  string
	Phase Phase
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("shader %s: %s: %v", e.Path, e.Phase, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Module is a fully expanded shader that passed validation.
type Module struct {
	// Path is the shader file path, empty for modules validated from a string.
	Path string
	// Name is the header name, or empty for plain WGSL files.
	Name string
	// Source is the complete WGSL handed to the GPU.
	Source string
	// VertexEntry and FragmentEntry are the entry points the pipeline uses.
	VertexEntry, FragmentEntry string
	// Imports are the resolved paths of imported files.
	Imports []string
	// Includes are the include directives that were expanded, in source order.
	Includes []Directive

	reflection reflection
}

// Load reads the shader at path, concatenates its imports, expands include directives and
// validates the result.
//
// Parameters:
//   - path: the shader file path
//   - pp: the pre-processor holding the include registry
//
// Returns:
//   - *Module: the validated module
//   - error: a *ValidationError naming the failing phase
func Load(path string, pp PreProcessor) (*Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ValidationError{Path: path, Phase: PhaseRead, Err: err}
	}
	f, err := ParseFile(path, string(data))
	if err != nil {
		return nil, &ValidationError{Path: path, Phase: PhaseHeader, Err: err}
	}
	return LoadFile(f, pp)
}

// LoadFile is Load for an already parsed file.
func LoadFile(f *File, pp PreProcessor) (*Module, error) {
	assembled, err := f.Assemble()
	if err != nil {
		return nil, &ValidationError{Path: f.Path, Phase: PhaseImport, Err: err}
	}
	source, includes, err := pp.Process(assembled)
	if err != nil {
		return nil, &ValidationError{Path: f.Path, Phase: PhaseInclude, Err: err}
	}

	m, err := Validate(f.Path, source, entryHints(f.Header))
	if err != nil {
		return nil, err
	}
	m.Imports = f.ImportPaths()
	m.Includes = includes
	if f.Header != nil {
		m.Name = f.Header.Name
	}
	return m, nil
}

// EntryHints optionally pins the entry points Validate picks.
type EntryHints struct {
	Vertex, Fragment string
}

func entryHints(h *Header) EntryHints {
	if h == nil {
		return EntryHints{}
	}
	hints := EntryHints{Vertex: h.VertexStage.EntryPoint}
	if len(h.FragmentStages) > 0 {
		hints.Fragment = h.FragmentStages[0].EntryPoint
	}
	return hints
}

// Validate compiles source with naga and finds its entry points. Without hints the first
// @vertex and the first @fragment function are used.
//
// Parameters:
//   - path: the path reported in errors
//   - source: the complete WGSL source
//   - hints: entry point names that must exist, or empty to pick the first
//
// Returns:
//   - *Module: the validated module
//   - error: a *ValidationError naming the failing phase
func Validate(path, source string, hints EntryHints) (*Module, error) {
	if _, err := naga.Compile(source); err != nil {
		return nil, &ValidationError{Path: path, Phase: PhaseCompile, Err: err}
	}

	r := reflectSource(source)
	vertex, err := pickEntry("vertex", r.vertexEntries, hints.Vertex)
	if err != nil {
		return nil, &ValidationError{Path: path, Phase: PhaseEntryPoint, Err: err}
	}
	fragment, err := pickEntry("fragment", r.fragmentEntries, hints.Fragment)
	if err != nil {
		return nil, &ValidationError{Path: path, Phase: PhaseEntryPoint, Err: err}
	}
	return &Module{
		Path:          path,
		Source:        source,
		VertexEntry:   vertex,
		FragmentEntry: fragment,
		reflection:    r,
	}, nil
}

func pickEntry(stage string, found []string, hint string) (string, error) {
	if len(found) == 0 {
		return "", fmt.Errorf("%w: no @%s function", ErrMissingEntryPoint, stage)
	}
	if hint == "" {
		return found[0], nil
	}
	if !slices.Contains(found, hint) {
		return "", fmt.Errorf("%w: @%s function %q not found, have %v", ErrMissingEntryPoint, stage, hint, found)
	}
	return hint, nil
}

// Declarations returns the module's resource variables ordered by group and binding.
func (m *Module) Declarations() []Declaration {
	return slices.Clone(m.reflection.declarations)
}

// SourcePaths returns the shader file followed by its imports, every file whose edit changes
// the module.
func (m *Module) SourcePaths() []string {
	return append([]string{m.Path}, m.Imports...)
}

// CheckBindings verifies that every declaration exists in groups with a compatible shape, so a
// mismatch is reported here instead of failing inside the driver.
//
// Parameters:
//   - groups: the pipeline's bind group layouts in group order
//
// Returns:
//   - error: a *ValidationError wrapping ErrBindingMismatch, or nil
func (m *Module) CheckBindings(groups []gpu.LayoutGroup) error {
	var errs []error
	for _, d := range m.reflection.declarations {
		if err := checkDeclaration(d, groups); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Path: m.Path, Phase: PhaseBinding, Err: errors.Join(errs...)}
	}
	return nil
}

func checkDeclaration(d Declaration, groups []gpu.LayoutGroup) error {
	where := fmt.Sprintf("%s at group %d binding %d", d.Name, d.Group, d.Binding)
	if int(d.Group) >= len(groups) || groups[d.Group].Layout == nil {
		return fmt.Errorf("%w: %s: group %d is not bound", ErrBindingMismatch, where, d.Group)
	}
	idx := slices.IndexFunc(groups[d.Group].Entries, func(e wgpu.BindGroupLayoutEntry) bool {
		return e.Binding == d.Binding
	})
	if idx < 0 {
		return fmt.Errorf("%w: %s: binding is not in the layout", ErrBindingMismatch, where)
	}
	have := groups[d.Group].Entries[idx]
	want := d.Entry

	switch {
	case want.Buffer.Type != wgpu.BufferBindingTypeUndefined:
		if have.Buffer.Type != want.Buffer.Type {
			return fmt.Errorf("%w: %s: declared as a buffer the layout does not provide", ErrBindingMismatch, where)
		}
		if have.Buffer.MinBindingSize > 0 && d.Size > have.Buffer.MinBindingSize {
			return fmt.Errorf("%w: %s: %s is %d bytes, binding holds %d", ErrBindingMismatch, where, d.Type, d.Size, have.Buffer.MinBindingSize)
		}
	case want.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
		if have.Sampler.Type == wgpu.SamplerBindingTypeUndefined ||
			(want.Sampler.Type == wgpu.SamplerBindingTypeComparison) != (have.Sampler.Type == wgpu.SamplerBindingTypeComparison) {
			return fmt.Errorf("%w: %s: declared as %s", ErrBindingMismatch, where, d.Type)
		}
	case want.Texture.ViewDimension != wgpu.TextureViewDimensionUndefined:
		if have.Texture.ViewDimension != want.Texture.ViewDimension {
			return fmt.Errorf("%w: %s: declared as %s", ErrBindingMismatch, where, d.Type)
		}
		if want.Texture.SampleType == wgpu.TextureSampleTypeFloat &&
			have.Texture.SampleType != wgpu.TextureSampleTypeFloat &&
			have.Texture.SampleType != wgpu.TextureSampleTypeUnfilterableFloat {
			return fmt.Errorf("%w: %s: declared as %s", ErrBindingMismatch, where, d.Type)
		}
	}
	return nil
}

// CheckVertexInput verifies that every attribute of the vertex entry's input struct is provided
// by layout with the same format.
//
// Parameters:
//   - layout: the vertex buffer layout the pipeline binds
//
// Returns:
//   - error: a *ValidationError, or nil
func (m *Module) CheckVertexInput(layout wgpu.VertexBufferLayout) error {
	input, ok := m.reflection.vertexInputs[m.VertexEntry]
	if !ok {
		return nil
	}
	for _, attr := range input.Attributes {
		idx := slices.IndexFunc(layout.Attributes, func(a wgpu.VertexAttribute) bool {
			return a.ShaderLocation == attr.ShaderLocation
		})
		if idx < 0 {
			return &ValidationError{Path: m.Path, Phase: PhaseVertex, Err: fmt.Errorf("location %d is not provided by the geometry", attr.ShaderLocation)}
		}
		if layout.Attributes[idx].Format != attr.Format {
			return &ValidationError{Path: m.Path, Phase: PhaseVertex, Err: fmt.Errorf("location %d has format %v, geometry provides %v", attr.ShaderLocation, attr.Format, layout.Attributes[idx].Format)}
		}
	}
	return nil
}
