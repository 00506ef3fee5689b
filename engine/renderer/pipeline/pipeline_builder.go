package pipeline

import "github.com/cogentcore/webgpu/wgpu"

// CompilerBuilderOption is a functional option used to configure a Compiler during construction.
type CompilerBuilderOption func(*compiler)

// WithFormat sets the color target format. Defaults to the device's surface format.
//
// Parameters:
//   - format: the color target format
//
// Returns:
//   - CompilerBuilderOption: a function that sets the format
func WithFormat(format wgpu.TextureFormat) CompilerBuilderOption {
	return func(c *compiler) {
		c.format = format
	}
}

// WithDepthTestEnabled sets whether pipelines use the depth attachment.
//
// Parameters:
//   - enabled: whether depth testing is enabled
//
// Returns:
//   - CompilerBuilderOption: a function that sets the depth test state
func WithDepthTestEnabled(enabled bool) CompilerBuilderOption {
	return func(c *compiler) {
		c.depthTest = enabled
	}
}

// WithCullMode sets the cull mode of compiled pipelines.
func WithCullMode(mode wgpu.CullMode) CompilerBuilderOption {
	return func(c *compiler) {
		c.cullMode = mode
	}
}

// WithFrontFace sets the front face winding of compiled pipelines.
func WithFrontFace(frontFace wgpu.FrontFace) CompilerBuilderOption {
	return func(c *compiler) {
		c.frontFace = frontFace
	}
}

// WithVertexLayout replaces the quad vertex layout.
func WithVertexLayout(layout wgpu.VertexBufferLayout) CompilerBuilderOption {
	return func(c *compiler) {
		c.vertexLayout = layout
	}
}

// WithPathResolver sets how scene shader paths map to files, typically the scene library's
// ResolvePath.
//
// Parameters:
//   - resolve: the path resolver
//
// Returns:
//   - CompilerBuilderOption: a function that sets the resolver
func WithPathResolver(resolve func(string) string) CompilerBuilderOption {
	return func(c *compiler) {
		if resolve != nil {
			c.resolvePath = resolve
		}
	}
}
