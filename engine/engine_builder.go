package engine

import (
	"time"

	"github.com/Carmen-Shannon/cubensis-go/engine/plugin"
	"github.com/Carmen-Shannon/cubensis-go/engine/profiler"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithPlugins sets the background plugins started by Run, in start order.
//
// Parameters:
//   - plugins: the plugins, nil entries are skipped
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithPlugins(plugins ...plugin.Plugin) EngineBuilderOption {
	return func(e *engine) {
		e.plugins = plugin.NewCollection(plugins...)
	}
}

// WithProfiler replaces the default profiler, for example to share it with an overlay.
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		if p != nil {
			e.profiler = p
		}
	}
}

// WithInfoToggle sets what the F key shows and hides.
func WithInfoToggle(t Toggler) EngineBuilderOption {
	return func(e *engine) {
		e.info = t
	}
}

// WithCameraReset sets what the R key resets.
func WithCameraReset(r Resetter) EngineBuilderOption {
	return func(e *engine) {
		e.camera = r
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}

// withClock replaces the time source used for frame deltas.
func withClock(now func() time.Time) EngineBuilderOption {
	return func(e *engine) {
		e.now = now
	}
}
