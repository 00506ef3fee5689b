package overlay

import (
	"time"

	"github.com/Carmen-Shannon/cubensis-go/engine/profiler"
)

// InfoBuilderOption is a functional option used to configure an Info overlay during construction.
type InfoBuilderOption func(*Info)

// WithStats sets the frame statistics source, typically Profiler.Stats.
//
// Parameters:
//   - stats: returns the latest statistics
//
// Returns:
//   - InfoBuilderOption: a function that sets the statistics source
func WithStats(stats func() profiler.Stats) InfoBuilderOption {
	return func(i *Info) {
		if stats != nil {
			i.stats = stats
		}
	}
}

// WithBaseTitle sets the title prefix.
func WithBaseTitle(title string) InfoBuilderOption {
	return func(i *Info) {
		i.baseTitle = title
	}
}

// WithRefreshInterval sets how often the title is rebuilt.
func WithRefreshInterval(interval time.Duration) InfoBuilderOption {
	return func(i *Info) {
		i.interval = interval
	}
}
