package gpu

// ContextBuilderOption is a functional option applied to a context during construction via NewContext.
type ContextBuilderOption func(*wgpuContext)

// WithVSync selects the Fifo present mode when enabled. When disabled the context prefers
// Immediate and falls back to Fifo if the surface does not support it.
//
// Parameters:
//   - enabled: true to synchronize presentation with the display refresh
//
// Returns:
//   - ContextBuilderOption: a function that applies the vsync option to a context
func WithVSync(enabled bool) ContextBuilderOption {
	return func(c *wgpuContext) {
		c.vsync = enabled
	}
}

// WithFallbackAdapter forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the fallback adapter
//
// Returns:
//   - ContextBuilderOption: a function that applies the fallback adapter option to a context
func WithFallbackAdapter(force bool) ContextBuilderOption {
	return func(c *wgpuContext) {
		c.forceFallbackAdapter = force
	}
}
