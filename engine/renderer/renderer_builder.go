package renderer

import (
	"github.com/Carmen-Shannon/cubensis-go/engine/overlay"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/hotreload"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithHistoryDepth sets how many previous frames shaders can read. Values below 1 make
// NewRenderer fail.
//
// Parameters:
//   - depth: the number of previous frames kept
//
// Returns:
//   - RendererBuilderOption: a function that applies the history depth option to a renderer
func WithHistoryDepth(depth int) RendererBuilderOption {
	return func(r *renderer) {
		r.historyDepth = depth
	}
}

// WithHotReloadPolicy sets which shader slots a file edit rebuilds.
//
// Parameters:
//   - policy: hotreload.MatchAll (default) or hotreload.MatchFirst
//
// Returns:
//   - RendererBuilderOption: a function that applies the policy option to a renderer
func WithHotReloadPolicy(policy hotreload.Policy) RendererBuilderOption {
	return func(r *renderer) {
		r.policy = policy
	}
}

// WithOverlay sets the overlay drawn on top of the composited frame.
func WithOverlay(o overlay.Overlay) RendererBuilderOption {
	return func(r *renderer) {
		if o != nil {
			r.overlay = o
		}
	}
}

// WithClearColor sets the color the history target and the surface are cleared to.
func WithClearColor(color wgpu.Color) RendererBuilderOption {
	return func(r *renderer) {
		r.clearColor = color
	}
}
