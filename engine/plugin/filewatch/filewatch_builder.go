package filewatch

import "time"

// WatcherBuilderOption is a functional option used to configure a Watcher during construction.
type WatcherBuilderOption func(*watcher)

// WithDebounce sets the quiet period after the last change to a path before it is reported.
// Non-positive values are ignored.
//
// Parameters:
//   - d: the debounce duration
//
// Returns:
//   - WatcherBuilderOption: a function that sets the debounce duration
func WithDebounce(d time.Duration) WatcherBuilderOption {
	return func(w *watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}
