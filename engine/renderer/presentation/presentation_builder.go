package presentation

import "github.com/cogentcore/webgpu/wgpu"

// PassBuilderOption is a functional option used to configure a Pass during construction.
type PassBuilderOption func(*pass)

// WithClearColor sets the color the surface is cleared to before compositing.
//
// Parameters:
//   - color: the clear color
//
// Returns:
//   - PassBuilderOption: a function that sets the clear color
func WithClearColor(color wgpu.Color) PassBuilderOption {
	return func(p *pass) {
		p.clearColor = color
	}
}

// WithFormat sets the format of the history textures and the composite target. Defaults to the
// device's surface format.
func WithFormat(format wgpu.TextureFormat) PassBuilderOption {
	return func(p *pass) {
		p.format = format
	}
}
