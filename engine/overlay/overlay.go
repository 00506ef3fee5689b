// Package overlay draws information on top of the composited frame.
package overlay

import (
	"time"

	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/gpu"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/resource"
	"github.com/cogentcore/webgpu/wgpu"
)

// Overlay is updated once per frame after the resources and drawn after the composite.
type Overlay interface {
	// Update advances the overlay with the current resource state.
	//
	// Parameters:
	//   - col: the resource collection of the renderer
	//   - dt: the frame delta
	Update(col *resource.Collection, dt time.Duration)

	// Draw records overlay passes into encoder targeting the surface view.
	//
	// Parameters:
	//   - encoder: the frame encoder, submitted after Draw returns
	//   - view: the surface texture view
	//
	// Returns:
	//   - error: error if drawing fails; the frame is still presented
	Draw(encoder gpu.Encoder, view *wgpu.TextureView) error
}

// Nop is an Overlay that does nothing.
type Nop struct{}

var _ Overlay = Nop{}

func (Nop) Update(*resource.Collection, time.Duration) {}

func (Nop) Draw(gpu.Encoder, *wgpu.TextureView) error { return nil }
