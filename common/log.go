package common

import (
	"log"
	"sync/atomic"
)

var debugEnabled atomic.Bool

// SetDebug enables or disables Debugf output.
func SetDebug(enabled bool) {
	debugEnabled.Store(enabled)
}

// DebugEnabled reports whether Debugf output is enabled.
func DebugEnabled() bool {
	return debugEnabled.Load()
}

// Debugf logs through the standard logger only when debug output is enabled.
func Debugf(format string, args ...any) {
	if debugEnabled.Load() {
		log.Printf(format, args...)
	}
}
