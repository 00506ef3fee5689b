// Package scene holds the on-disk scene model (scenes, meshes and their ordered shader passes)
// and the Library that discovers scene files in the configuration directory.
package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// FileExtension is the extension of scene files in the library directory.
const FileExtension = ".cubensis-scene"

var (
	// ErrUnknownBlending is returned when a scene names a blend mode that does not exist.
	ErrUnknownBlending = errors.New("unknown blending")

	// ErrUnknownGeometry is returned when a geometry source has no recognised variant.
	ErrUnknownGeometry = errors.New("unknown geometry source")
)

// Blending selects how a shader pass combines with what is already in the target.
type Blending int

const (
	// BlendingNone disables blending.
	BlendingNone Blending = iota
	// BlendingReplace overwrites the target.
	BlendingReplace
	// BlendingAlpha performs standard source-over alpha blending.
	BlendingAlpha
)

var blendingNames = map[Blending]string{
	BlendingNone:    "None",
	BlendingReplace: "Replace",
	BlendingAlpha:   "AlphaBlending",
}

func (b Blending) String() string {
	if name, ok := blendingNames[b]; ok {
		return name
	}
	return fmt.Sprintf("Blending(%d)", int(b))
}

// MarshalJSON encodes the blend mode by name.
func (b Blending) MarshalJSON() ([]byte, error) {
	name, ok := blendingNames[b]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBlending, int(b))
	}
	return json.Marshal(name)
}

// UnmarshalJSON decodes a blend mode name.
func (b *Blending) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for mode, n := range blendingNames {
		if n == name {
			*b = mode
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownBlending, name)
}

// RenderShader is one full-screen pass of a mesh.
type RenderShader struct {
	// Path is the shader file, relative to the scene library directory unless absolute.
	Path     string   `json:"path"`
	Name     string   `json:"name"`
	Blending Blending `json:"blending"`
}

// ComputeShader names a compute shader used as a geometry source.
type ComputeShader struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// Primitive is a built-in geometry.
type Primitive string

// PrimitiveQuad is the full-screen quad.
const PrimitiveQuad Primitive = "Quad"

// GeometrySource is either a built-in primitive or a compute shader. Exactly one field is set.
// Encoded as {"Primitive":"Quad"} or {"ComputeShader":{"path":...,"name":...}}.
type GeometrySource struct {
	Primitive     *Primitive
	ComputeShader *ComputeShader
}

// QuadGeometry returns the full-screen quad geometry source.
func QuadGeometry() GeometrySource {
	p := PrimitiveQuad
	return GeometrySource{Primitive: &p}
}

type geometrySourceJSON struct {
	Primitive     *Primitive     `json:"Primitive,omitempty"`
	ComputeShader *ComputeShader `json:"ComputeShader,omitempty"`
}

// MarshalJSON encodes the source as an externally tagged variant.
func (g GeometrySource) MarshalJSON() ([]byte, error) {
	if (g.Primitive == nil) == (g.ComputeShader == nil) {
		return nil, ErrUnknownGeometry
	}
	return json.Marshal(geometrySourceJSON(g))
}

// UnmarshalJSON decodes an externally tagged variant.
func (g *GeometrySource) UnmarshalJSON(data []byte) error {
	var raw geometrySourceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if (raw.Primitive == nil) == (raw.ComputeShader == nil) {
		return fmt.Errorf("%w: %s", ErrUnknownGeometry, string(data))
	}
	if raw.Primitive != nil && *raw.Primitive != PrimitiveQuad {
		return fmt.Errorf("%w: primitive %q", ErrUnknownGeometry, *raw.Primitive)
	}
	*g = GeometrySource(raw)
	return nil
}

// MeshDescriptor describes one mesh and its ordered shader passes.
type MeshDescriptor struct {
	Name           string         `json:"name"`
	GeometrySource GeometrySource `json:"geometry_source"`
	RenderShaders  []RenderShader `json:"render_shaders"`
}

// Clone returns a deep copy of the descriptor.
func (m MeshDescriptor) Clone() MeshDescriptor {
	out := m
	out.RenderShaders = append([]RenderShader(nil), m.RenderShaders...)
	return out
}

// TextureAsset is an image file bound into the texture resource.
type TextureAsset struct {
	Path string `json:"path"`
}

// TextureSlotCount is the number of scene texture slots.
const TextureSlotCount = 5

// SceneTextures are the optional images bound to texture_1 .. texture_5.
type SceneTextures struct {
	Texture1 *TextureAsset `json:"texture_1,omitempty"`
	Texture2 *TextureAsset `json:"texture_2,omitempty"`
	Texture3 *TextureAsset `json:"texture_3,omitempty"`
	Texture4 *TextureAsset `json:"texture_4,omitempty"`
	Texture5 *TextureAsset `json:"texture_5,omitempty"`
}

// Paths returns the configured path of every slot, empty for unset slots.
func (t SceneTextures) Paths() [TextureSlotCount]string {
	var out [TextureSlotCount]string
	for i, asset := range []*TextureAsset{t.Texture1, t.Texture2, t.Texture3, t.Texture4, t.Texture5} {
		if asset != nil {
			out[i] = asset.Path
		}
	}
	return out
}

// Scene is a named collection of meshes rendered in order.
type Scene struct {
	Name     string           `json:"name"`
	Meshes   []MeshDescriptor `json:"meshes"`
	Textures SceneTextures    `json:"textures"`

	// SourcePath is the file the scene was loaded from.
	SourcePath string `json:"-"`
}

// Clone returns a deep copy of the scene.
func (s Scene) Clone() Scene {
	out := s
	out.Meshes = make([]MeshDescriptor, len(s.Meshes))
	for i, m := range s.Meshes {
		out.Meshes[i] = m.Clone()
	}
	return out
}

// DefaultRenderShader is the first pass of the default mesh.
func DefaultRenderShader() RenderShader {
	return RenderShader{
		Path:     "../shaders/default_shader.wgsl",
		Name:     "Default Render Shader",
		Blending: BlendingReplace,
	}
}

// DefaultSecondPassShader is the feedback pass of the default mesh.
func DefaultSecondPassShader() RenderShader {
	return RenderShader{
		Path:     "../shaders/default_shader_second_pass.wgsl",
		Name:     "Default Render Shader 2nd pass",
		Blending: BlendingAlpha,
	}
}

// DefaultMesh returns a quad drawn by the two default shaders.
func DefaultMesh() MeshDescriptor {
	return MeshDescriptor{
		Name:           "Default Mesh",
		GeometrySource: QuadGeometry(),
		RenderShaders:  []RenderShader{DefaultRenderShader(), DefaultSecondPassShader()},
	}
}

// Default returns the scene written into a fresh library.
func Default() Scene {
	return Scene{
		Name:   "Default Scene",
		Meshes: []MeshDescriptor{DefaultMesh()},
	}
}

// Load reads and decodes a scene file.
//
// Parameters:
//   - path: the scene file path
//
// Returns:
//   - Scene: the decoded scene with SourcePath set
//   - error: error if the file cannot be read or decoded
func Load(path string) (Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scene{}, fmt.Errorf("failed to read scene %s: %w", path, err)
	}
	var s Scene
	if err := json.Unmarshal(data, &s); err != nil {
		return Scene{}, fmt.Errorf("failed to decode scene %s: %w", path, err)
	}
	if s.Name == "" {
		return Scene{}, fmt.Errorf("scene %s has no name", path)
	}
	s.SourcePath = path
	return s, nil
}

// Save encodes the scene as indented JSON at path.
//
// Parameters:
//   - path: the destination file path
//   - s: the scene to write
//
// Returns:
//   - error: error if encoding or writing fails
func Save(path string, s Scene) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode scene %s: %w", s.Name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write scene %s: %w", path, err)
	}
	return nil
}
