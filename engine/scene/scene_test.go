package scene

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleScene = `{
  "name": "Tunnel",
  "meshes": [
    {
      "name": "Background",
      "geometry_source": {"Primitive": "Quad"},
      "render_shaders": [
        {"path": "../shaders/tunnel.wgsl", "name": "Tunnel", "blending": "Replace"},
        {"path": "../shaders/glow.wgsl", "name": "Glow", "blending": "AlphaBlending"}
      ]
    },
    {
      "name": "Particles",
      "geometry_source": {"ComputeShader": {"path": "particles.wgsl", "name": "Particles"}},
      "render_shaders": [{"path": "dots.wgsl", "name": "Dots", "blending": "None"}]
    }
  ],
  "textures": {"texture_2": {"path": "noise.png"}}
}`

func TestDecodeScene(t *testing.T) {
	var s Scene
	require.NoError(t, json.Unmarshal([]byte(sampleScene), &s))

	assert.Equal(t, "Tunnel", s.Name)
	require.Len(t, s.Meshes, 2)

	bg := s.Meshes[0]
	require.NotNil(t, bg.GeometrySource.Primitive)
	assert.Equal(t, PrimitiveQuad, *bg.GeometrySource.Primitive)
	assert.Nil(t, bg.GeometrySource.ComputeShader)
	require.Len(t, bg.RenderShaders, 2)
	assert.Equal(t, BlendingReplace, bg.RenderShaders[0].Blending)
	assert.Equal(t, BlendingAlpha, bg.RenderShaders[1].Blending)

	particles := s.Meshes[1]
	require.NotNil(t, particles.GeometrySource.ComputeShader)
	assert.Equal(t, "particles.wgsl", particles.GeometrySource.ComputeShader.Path)
	assert.Equal(t, BlendingNone, particles.RenderShaders[0].Blending)

	assert.Equal(t, [TextureSlotCount]string{"", "noise.png", "", "", ""}, s.Textures.Paths())
}

func TestDecodeRejectsUnknownVariants(t *testing.T) {
	var rs RenderShader
	err := json.Unmarshal([]byte(`{"path":"a","name":"a","blending":"Additive"}`), &rs)
	assert.ErrorIs(t, err, ErrUnknownBlending)

	for _, doc := range []string{
		`{"Primitive":"Quad","ComputeShader":{"path":"a","name":"a"}}`,
		`{}`,
		`{"Primitive":"Cube"}`,
	} {
		var g GeometrySource
		assert.ErrorIs(t, json.Unmarshal([]byte(doc), &g), ErrUnknownGeometry, doc)
	}
}

func TestDefaultSceneEncoding(t *testing.T) {
	data, err := json.Marshal(Default())
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.Equal(t, "Default Scene", generic["name"])

	meshes := generic["meshes"].([]any)
	require.Len(t, meshes, 1)
	mesh := meshes[0].(map[string]any)
	assert.Equal(t, "Default Mesh", mesh["name"])
	assert.Equal(t, map[string]any{"Primitive": "Quad"}, mesh["geometry_source"])

	shaders := mesh["render_shaders"].([]any)
	require.Len(t, shaders, 2)
	assert.Equal(t, "../shaders/default_shader.wgsl", shaders[0].(map[string]any)["path"])
	assert.Equal(t, "Replace", shaders[0].(map[string]any)["blending"])
	assert.Equal(t, "Default Render Shader 2nd pass", shaders[1].(map[string]any)["name"])
	assert.Equal(t, "AlphaBlending", shaders[1].(map[string]any)["blending"])
}

func TestLoadSetsSourcePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tunnel"+FileExtension)
	require.NoError(t, os.WriteFile(path, []byte(sampleScene), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, s.SourcePath)
	assert.Equal(t, "Tunnel", s.Name)
}

func TestLoadRejectsNamelessScene(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x"+FileExtension)
	require.NoError(t, os.WriteFile(path, []byte(`{"meshes":[]}`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestCloneIsDeep(t *testing.T) {
	original := Default()
	clone := original.Clone()
	clone.Meshes[0].RenderShaders[0].Name = "changed"

	assert.Equal(t, "Default Render Shader", original.Meshes[0].RenderShaders[0].Name)
}
