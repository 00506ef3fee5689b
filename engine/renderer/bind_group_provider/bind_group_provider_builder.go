package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithBuffer stores a buffer at a binding index.
//
// Parameters:
//   - binding: the binding index for this buffer
//   - buf: the buffer to associate with this binding
//
// Returns:
//   - BindGroupProviderOption: a function that sets the buffer for the specified binding
func WithBuffer(binding uint32, buf *wgpu.Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.buffers[binding] = buf
	}
}

// WithSampler stores a sampler at a binding index.
//
// Parameters:
//   - binding: the binding index for this sampler
//   - s: the sampler to associate with this binding
//
// Returns:
//   - BindGroupProviderOption: a function that sets the sampler for the specified binding
func WithSampler(binding uint32, s *wgpu.Sampler) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.samplers[binding] = s
	}
}
