package common

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 3, Coalesce(0, 0, 3, 4))
	assert.Equal(t, "", Coalesce[string]())
}

func TestCanonicalPathMatchesDifferentSpellings(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "shaders", "a.wgsl")
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	indirect := filepath.Join(dir, "shaders", "..", "shaders", "./a.wgsl")
	assert.Equal(t, CanonicalPath(file), CanonicalPath(indirect))
}

func TestCanonicalPathFollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "real.wgsl")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	link := filepath.Join(dir, "link.wgsl")
	if err := os.Symlink(file, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	assert.Equal(t, CanonicalPath(file), CanonicalPath(link))
}

func TestCanonicalPathMissingFile(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "later.wgsl")
	assert.Equal(t, filepath.Base(missing), filepath.Base(CanonicalPath(missing)))
	assert.Equal(t, "", CanonicalPath(""))
}

func TestDecodeImageFile(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 3))
	img.Set(1, 2, color.RGBA{R: 255, A: 255})
	path := filepath.Join(t.TempDir(), "tex.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	staging, err := DecodeImageFile(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), staging.Width)
	assert.Equal(t, uint32(3), staging.Height)
	assert.Len(t, staging.Pixels, 2*3*4)
	last := staging.Pixels[len(staging.Pixels)-4:]
	assert.Equal(t, []byte{255, 0, 0, 255}, last)
}

func TestDecodeImageFileMissing(t *testing.T) {
	_, err := DecodeImageFile(filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}
