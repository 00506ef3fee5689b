package profiler

import "time"

// ProfilerBuilderOption is a functional option used to configure a Profiler during construction.
type ProfilerBuilderOption func(*Profiler)

// WithUpdateInterval sets how often a sample is taken. Non-positive values are ignored.
//
// Parameters:
//   - interval: the sample interval
//
// Returns:
//   - ProfilerBuilderOption: a function that sets the interval
func WithUpdateInterval(interval time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if interval > 0 {
			p.updateInterval = interval
		}
	}
}

// WithLogging enables the per-sample log line.
func WithLogging(enabled bool) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.logging = enabled
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		if now != nil {
			p.now = now
		}
	}
}
