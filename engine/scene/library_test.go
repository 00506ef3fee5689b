package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScene(t *testing.T, dir, file, name string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, file)
	s := Default()
	s.Name = name
	require.NoError(t, Save(path, s))
	return path
}

func TestLoadLibraryGroupsByName(t *testing.T) {
	root := t.TempDir()
	first := writeScene(t, root, "a"+FileExtension, "Waves")
	writeScene(t, root, "b"+FileExtension, "Waves")
	writeScene(t, filepath.Join(root, "nested"), "c"+FileExtension, "Bars")
	require.NoError(t, os.WriteFile(filepath.Join(root, "broken"+FileExtension), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("ignored"), 0o644))

	lib, err := LoadLibrary(root, "Bars", WithWorkers(2))
	require.NoError(t, err)

	assert.Equal(t, []string{"Bars", "Waves"}, lib.SceneNames())
	assert.Equal(t, "Bars", lib.CurrentName())

	waves, ok := lib.Scene("Waves")
	require.True(t, ok)
	assert.Equal(t, first, waves.SourcePath)
}

func TestLoadLibraryManyFiles(t *testing.T) {
	root := t.TempDir()
	for i := range 40 {
		writeScene(t, root, fmt.Sprintf("s%02d%s", i, FileExtension), fmt.Sprintf("Scene %02d", i))
	}

	lib, err := LoadLibrary(root, "", WithWorkers(4))
	require.NoError(t, err)
	assert.Len(t, lib.SceneNames(), 40)
	assert.Equal(t, "Scene 00", lib.CurrentName())
}

func TestLoadLibraryMaxDepth(t *testing.T) {
	root := t.TempDir()
	writeScene(t, filepath.Join(root, "one"), "a"+FileExtension, "Shallow")
	writeScene(t, filepath.Join(root, "one", "two", "three"), "b"+FileExtension, "Deep")

	lib, err := LoadLibrary(root, "", WithMaxDepth(2))
	require.NoError(t, err)
	assert.Equal(t, []string{"Shallow"}, lib.SceneNames())

	lib, err = LoadLibrary(root, "", WithMaxDepth(DefaultMaxDepth))
	require.NoError(t, err)
	assert.Equal(t, []string{"Deep", "Shallow"}, lib.SceneNames())
}

func TestLoadLibraryCurrentFallbacks(t *testing.T) {
	root := t.TempDir()
	writeScene(t, root, "a"+FileExtension, "Zeta")
	writeScene(t, root, "b"+FileExtension, Default().Name)

	lib, err := LoadLibrary(root, "Missing")
	require.NoError(t, err)
	assert.Equal(t, Default().Name, lib.CurrentName())

	root = t.TempDir()
	writeScene(t, root, "a"+FileExtension, "Zeta")
	writeScene(t, root, "b"+FileExtension, "Alpha")
	lib, err = LoadLibrary(root, "Missing")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", lib.CurrentName())
}

func TestLoadLibraryEmpty(t *testing.T) {
	_, err := LoadLibrary(t.TempDir(), "")
	assert.ErrorIs(t, err, ErrEmptyLibrary)

	lib, err := LoadLibrary(filepath.Join(t.TempDir(), "absent"), "", WithFallback(Default()))
	require.NoError(t, err)
	assert.Equal(t, Default().Name, lib.CurrentScene().Name)
}

func TestSetCurrent(t *testing.T) {
	root := t.TempDir()
	writeScene(t, root, "a"+FileExtension, "One")
	writeScene(t, root, "b"+FileExtension, "Two")

	lib, err := LoadLibrary(root, "One")
	require.NoError(t, err)

	require.NoError(t, lib.SetCurrent("Two"))
	assert.Equal(t, "Two", lib.CurrentScene().Name)

	assert.ErrorIs(t, lib.SetCurrent("Three"), ErrSceneNotFound)
	assert.Equal(t, "Two", lib.CurrentName())
}

func TestReloadPicksUpNewScenes(t *testing.T) {
	root := t.TempDir()
	writeScene(t, root, "a"+FileExtension, "One")
	lib, err := LoadLibrary(root, "One")
	require.NoError(t, err)

	writeScene(t, root, "b"+FileExtension, "Two")
	require.NoError(t, lib.Reload())
	assert.Equal(t, []string{"One", "Two"}, lib.SceneNames())
	assert.Equal(t, "One", lib.CurrentName())
}

func TestResolvePath(t *testing.T) {
	root := t.TempDir()
	writeScene(t, root, "a"+FileExtension, "One")
	lib, err := LoadLibrary(root, "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(filepath.Dir(root), "shaders", "x.wgsl"), lib.ResolvePath("../shaders/x.wgsl"))
	abs := filepath.Join(root, "abs.wgsl")
	assert.Equal(t, abs, lib.ResolvePath(abs))
	assert.Empty(t, lib.ResolvePath(""))
}

func TestCreateIfMissing(t *testing.T) {
	root := t.TempDir()
	scenes := filepath.Join(root, "scenes")
	shaders := filepath.Join(root, "shaders")

	created, err := CreateIfMissing(scenes, shaders)
	require.NoError(t, err)
	assert.True(t, created)
	assert.FileExists(t, filepath.Join(scenes, DefaultSceneFileName))
	assert.FileExists(t, filepath.Join(shaders, "default_shader.wgsl"))
	assert.FileExists(t, filepath.Join(shaders, "default_shader_second_pass.wgsl"))

	lib, err := LoadLibrary(scenes, "")
	require.NoError(t, err)
	current := lib.CurrentScene()
	assert.Equal(t, Default().Name, current.Name)
	for _, rs := range current.Meshes[0].RenderShaders {
		assert.FileExists(t, lib.ResolvePath(rs.Path))
	}

	created, err = CreateIfMissing(scenes, shaders)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestDefaultShaderSource(t *testing.T) {
	src, err := DefaultShaderSource("default_shader.wgsl")
	require.NoError(t, err)
	assert.Contains(t, src, "fn fs_main")

	_, err = DefaultShaderSource("missing.wgsl")
	assert.Error(t, err)
}
