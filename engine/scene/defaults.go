package scene

import (
	"embed"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// DefaultSceneFileName is the file CreateIfMissing writes the default scene to.
const DefaultSceneFileName = "default_scene" + FileExtension

//go:embed assets/*.wgsl
var defaultShaders embed.FS

// CreateIfMissing seeds an empty library. When scenesDir does not exist it is created with the
// default scene, and the default shaders are written into shadersDir without overwriting edits.
//
// Parameters:
//   - scenesDir: the scene library directory
//   - shadersDir: the directory the default scene's shader paths point into
//
// Returns:
//   - bool: true if the library directory was created
//   - error: error if a directory or file cannot be written
func CreateIfMissing(scenesDir, shadersDir string) (bool, error) {
	if _, err := os.Stat(scenesDir); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat scene library %s: %w", scenesDir, err)
	}

	if err := os.MkdirAll(scenesDir, 0o755); err != nil {
		return false, fmt.Errorf("failed to create scene library %s: %w", scenesDir, err)
	}
	if err := Save(filepath.Join(scenesDir, DefaultSceneFileName), Default()); err != nil {
		return false, err
	}
	if err := writeDefaultShaders(shadersDir); err != nil {
		return false, err
	}
	log.Printf("[Library] created default scene library in %s", scenesDir)
	return true, nil
}

func writeDefaultShaders(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create shader directory %s: %w", dir, err)
	}
	entries, err := defaultShaders.ReadDir("assets")
	if err != nil {
		return err
	}
	for _, entry := range entries {
		dst := filepath.Join(dir, entry.Name())
		if _, err := os.Stat(dst); err == nil {
			continue
		}
		data, err := defaultShaders.ReadFile("assets/" + entry.Name())
		if err != nil {
			return err
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return fmt.Errorf("failed to write default shader %s: %w", dst, err)
		}
	}
	return nil
}

// DefaultShaderSource returns the embedded source of a default shader by file name.
//
// Parameters:
//   - name: the file name, such as "default_shader.wgsl"
//
// Returns:
//   - string: the shader source
//   - error: error if no embedded shader has that name
func DefaultShaderSource(name string) (string, error) {
	data, err := defaultShaders.ReadFile("assets/" + name)
	if err != nil {
		return "", fmt.Errorf("no default shader %s: %w", name, err)
	}
	return string(data), nil
}
