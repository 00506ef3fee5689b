// Package config loads and persists the application configuration stored as TOML in the
// user's configuration directory (~/.cubensis by default).
package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
)

const (
	// DirName is the name of the configuration directory inside the user's home directory.
	DirName = ".cubensis"

	// FileName is the name of the configuration file inside the configuration directory.
	FileName = "config.toml"

	// ScenesDirName is the scene library directory inside the configuration directory.
	ScenesDirName = "scenes"

	// ShadersDirName is the shared shader directory inside the configuration directory.
	ShadersDirName = "shaders"

	// AudioSourceCapture selects the default capture device as the audio source.
	AudioSourceCapture = "capture"

	// HotReloadPolicyAll rebuilds every shader slot referencing an edited file.
	HotReloadPolicyAll = "all"

	// HotReloadPolicyFirst rebuilds only the first matching mesh.
	HotReloadPolicyFirst = "first"
)

// ErrInvalidConfig is wrapped by Validate for any field outside its allowed range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the root configuration document.
type Config struct {
	Audio     AudioConfig     `toml:"audio"`
	Graphics  GraphicsConfig  `toml:"graphics"`
	Network   NetworkConfig   `toml:"network"`
	Library   LibraryConfig   `toml:"library"`
	HotReload HotReloadConfig `toml:"hot_reload"`
}

// AudioConfig controls the audio input and analysis.
type AudioConfig struct {
	// BufferSize is the number of samples kept in the analysis ring buffer.
	BufferSize int `toml:"buffer_size"`
	// Source is either "capture" for the default input device or a path to a .wav file.
	Source string `toml:"source"`
}

// GraphicsConfig controls the GPU surface and render history.
type GraphicsConfig struct {
	EnableVSync          bool `toml:"enable_vsync"`
	PreferLegacyBackends bool `toml:"prefer_legacy_backends"`
	// HistoryDepth is the number of previous frames kept readable by shaders.
	HistoryDepth int `toml:"history_depth"`
	Width        int `toml:"width"`
	Height       int `toml:"height"`
	// MinWidth and MinHeight bound window resizes from below.
	MinWidth  int `toml:"min_width"`
	MinHeight int `toml:"min_height"`
	// MaxWidth and MaxHeight bound window resizes from above; -1 means unbounded.
	MaxWidth  int `toml:"max_width"`
	MaxHeight int `toml:"max_height"`
}

// NetworkConfig controls the remote-control socket.
type NetworkConfig struct {
	Address string `toml:"address"`
	Port    int    `toml:"port"`
}

// Addr returns the host:port listen address.
func (n NetworkConfig) Addr() string {
	return net.JoinHostPort(n.Address, strconv.Itoa(n.Port))
}

// LibraryConfig controls the scene library.
type LibraryConfig struct {
	DefaultSceneName string `toml:"default_scene_name"`
}

// HotReloadConfig controls shader hot-reload.
type HotReloadConfig struct {
	// Policy is "all" or "first".
	Policy string `toml:"policy"`
	// DebounceMillis collapses bursts of file writes into one reload.
	DebounceMillis int `toml:"debounce_ms"`
}

// Default returns the configuration used when no file exists or the file cannot be read.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	return Config{
		Audio: AudioConfig{
			BufferSize: 4096,
			Source:     AudioSourceCapture,
		},
		Graphics: GraphicsConfig{
			EnableVSync:          false,
			PreferLegacyBackends: false,
			HistoryDepth:         1,
			Width:                1280,
			Height:               720,
			MinWidth:             320,
			MinHeight:            200,
			MaxWidth:             -1,
			MaxHeight:            -1,
		},
		Network: NetworkConfig{
			Address: "127.0.0.1",
			Port:    3751,
		},
		Library: LibraryConfig{
			DefaultSceneName: "Default Scene",
		},
		HotReload: HotReloadConfig{
			Policy:         HotReloadPolicyAll,
			DebounceMillis: 500,
		},
	}
}

// Validate checks every field against its allowed range.
//
// Returns:
//   - error: an error wrapping ErrInvalidConfig naming the first bad field, or nil
func (c Config) Validate() error {
	switch {
	case c.Audio.BufferSize < 2:
		return fmt.Errorf("%w: audio.buffer_size must be at least 2, got %d", ErrInvalidConfig, c.Audio.BufferSize)
	case c.Graphics.HistoryDepth < 1:
		return fmt.Errorf("%w: graphics.history_depth must be at least 1, got %d", ErrInvalidConfig, c.Graphics.HistoryDepth)
	case c.Graphics.MinWidth < 1 || c.Graphics.MinHeight < 1:
		return fmt.Errorf("%w: graphics.min_width and min_height must be positive, got %dx%d", ErrInvalidConfig, c.Graphics.MinWidth, c.Graphics.MinHeight)
	case !withinLimit(c.Graphics.MaxWidth, c.Graphics.MinWidth) || !withinLimit(c.Graphics.MaxHeight, c.Graphics.MinHeight):
		return fmt.Errorf("%w: graphics.max_width and max_height must be -1 or at least the minimum, got %dx%d", ErrInvalidConfig, c.Graphics.MaxWidth, c.Graphics.MaxHeight)
	case c.Network.Port <= 0 || c.Network.Port > 65535:
		return fmt.Errorf("%w: network.port out of range: %d", ErrInvalidConfig, c.Network.Port)
	case c.HotReload.Policy != HotReloadPolicyAll && c.HotReload.Policy != HotReloadPolicyFirst:
		return fmt.Errorf("%w: hot_reload.policy must be %q or %q, got %q", ErrInvalidConfig, HotReloadPolicyAll, HotReloadPolicyFirst, c.HotReload.Policy)
	}
	return nil
}

// withinLimit reports whether max is unbounded (-1) or no smaller than min.
func withinLimit(max, min int) bool {
	return max == -1 || max >= min
}

// Paths holds the directory layout derived from the configuration root.
type Paths struct {
	Root       string
	ConfigFile string
	Scenes     string
	Shaders    string
}

// DefaultRoot returns ~/.cubensis for the current user.
//
// Returns:
//   - string: the configuration root directory
//   - error: error if the home directory cannot be determined
func DefaultRoot() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// NewPaths derives the configuration layout under root. A leading ~ is expanded.
//
// Parameters:
//   - root: the configuration root directory
//
// Returns:
//   - Paths: the derived paths
func NewPaths(root string) Paths {
	if expanded, err := homedir.Expand(root); err == nil {
		root = expanded
	}
	return Paths{
		Root:       root,
		ConfigFile: filepath.Join(root, FileName),
		Scenes:     filepath.Join(root, ScenesDirName),
		Shaders:    filepath.Join(root, ShadersDirName),
	}
}

// Load reads the TOML file at path on top of the defaults. Keys missing from the file keep their
// default values. Any read, parse or validation failure returns the full default configuration
// together with the error so the caller can log it and continue.
//
// Parameters:
//   - path: the configuration file path
//
// Returns:
//   - Config: the loaded configuration, or Default() on failure
//   - error: the load failure, or nil
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), fmt.Errorf("failed to read configuration %s: %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse configuration %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	if cfg.Audio.Source != AudioSourceCapture {
		if expanded, err := homedir.Expand(cfg.Audio.Source); err == nil {
			cfg.Audio.Source = expanded
		}
	}
	return cfg, nil
}

// LoadOrDefault calls Load and logs any failure, always returning a usable configuration.
//
// Parameters:
//   - path: the configuration file path
//
// Returns:
//   - Config: the loaded or default configuration
func LoadOrDefault(path string) Config {
	cfg, err := Load(path)
	if err != nil {
		log.Printf("[Config] %v, falling back to default values", err)
	}
	return cfg
}

// Save writes cfg to path as TOML, creating the parent directory if needed.
//
// Parameters:
//   - path: the destination file path
//   - cfg: the configuration to persist
//
// Returns:
//   - error: error if encoding or writing fails
func Save(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create configuration directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write configuration %s: %w", path, err)
	}
	return nil
}

// CreateIfMissing makes sure the configuration directory, the configuration file and the scene
// library directory exist, writing defaults for anything absent.
//
// Parameters:
//   - paths: the configuration layout
//
// Returns:
//   - bool: true if the configuration file was created
//   - error: error if a directory or file could not be created
func CreateIfMissing(paths Paths) (bool, error) {
	for _, dir := range []string{paths.Root, paths.Scenes} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	if _, err := os.Stat(paths.ConfigFile); err == nil {
		log.Printf("[Config] Configuration file found at %s", paths.ConfigFile)
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("failed to stat %s: %w", paths.ConfigFile, err)
	}

	log.Printf("[Config] Creating missing configuration file at %s", paths.ConfigFile)
	if err := Save(paths.ConfigFile, Default()); err != nil {
		return false, err
	}
	return true, nil
}
