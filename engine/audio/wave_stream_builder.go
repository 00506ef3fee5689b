package audio

import "time"

// WaveStreamBuilderOption is a functional option for configuring a WaveStream.
type WaveStreamBuilderOption func(ws *WaveStream)

// WithReconnectCooldown overrides ReconnectCooldown.
//
// Parameters:
//   - d: the minimum time between reconnect attempts
//
// Returns:
//   - WaveStreamBuilderOption: option function to apply
func WithReconnectCooldown(d time.Duration) WaveStreamBuilderOption {
	return func(ws *WaveStream) {
		ws.cooldown = d
	}
}

// WithClock replaces time.Now for cooldown bookkeeping.
//
// Parameters:
//   - now: the clock function
//
// Returns:
//   - WaveStreamBuilderOption: option function to apply
func WithClock(now func() time.Time) WaveStreamBuilderOption {
	return func(ws *WaveStream) {
		if now != nil {
			ws.now = now
		}
	}
}
