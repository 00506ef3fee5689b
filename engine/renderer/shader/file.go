package shader

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// HeaderSeparator ends the optional JSON header of a mesh shader file.
const HeaderSeparator = "#END CUBENSIS"

// ErrMultipleHeaders is returned when a shader file contains more than one header separator.
var ErrMultipleHeaders = errors.New("only one header may be specified, found multiple " + HeaderSeparator + " lines")

// VertexStage names the vertex entry point of a mesh shader.
type VertexStage struct {
	EntryPoint string `json:"entry_point"`
}

// FragmentStage names a fragment entry point of a mesh shader.
type FragmentStage struct {
	EntryPoint string `json:"entry_point"`
}

// Header is the JSON metadata block at the top of a mesh shader file.
type Header struct {
	Name           string          `json:"name"`
	Imports        []string        `json:"imports"`
	Textures       []string        `json:"textures"`
	VertexStage    VertexStage     `json:"vertex_stage"`
	FragmentStages []FragmentStage `json:"fragment_stages"`
}

// File is a mesh shader file split into its optional header and WGSL body.
type File struct {
	// Path is the absolute path the file was read from.
	Path string
	// Header is nil for plain WGSL files.
	Header *Header
	// Body is the WGSL text after the header.
	Body string
}

// ParseFile splits raw into header and body. Text without a separator line is a plain WGSL file.
//
// Parameters:
//   - path: the file path, used to resolve relative imports
//   - raw: the file contents
//
// Returns:
//   - *File: the parsed file
//   - error: error if there is more than one separator or the header is not valid JSON
func ParseFile(path, raw string) (*File, error) {
	f := &File{Path: path}
	parts := strings.Split(raw, HeaderSeparator)
	switch len(parts) {
	case 1:
		f.Body = raw
		return f, nil
	case 2:
	default:
		return nil, ErrMultipleHeaders
	}

	var h Header
	if err := json.Unmarshal([]byte(parts[0]), &h); err != nil {
		return nil, fmt.Errorf("invalid shader header: %w", err)
	}
	f.Header = &h
	f.Body = strings.TrimPrefix(strings.TrimPrefix(parts[1], "\r"), "\n")
	return f, nil
}

// ImportPaths returns the header's imports resolved against the file's directory.
func (f *File) ImportPaths() []string {
	if f.Header == nil {
		return nil
	}
	paths := make([]string, len(f.Header.Imports))
	for i, imp := range f.Header.Imports {
		if !filepath.IsAbs(imp) {
			imp = filepath.Join(filepath.Dir(f.Path), imp)
		}
		paths[i] = filepath.Clean(imp)
	}
	return paths
}

// Assemble reads every import and returns them newline separated, followed by the body.
//
// Returns:
//   - string: the combined WGSL source
//   - error: error naming the first import that cannot be read
func (f *File) Assemble() (string, error) {
	var b strings.Builder
	for _, path := range f.ImportPaths() {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("import %s: %w", path, err)
		}
		b.Write(data)
		b.WriteByte('\n')
	}
	b.WriteString(f.Body)
	return b.String(), nil
}
