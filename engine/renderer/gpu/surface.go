package gpu

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSurfaceLost means the surface must be reconfigured before the next frame.
	ErrSurfaceLost = errors.New("surface lost")
	// ErrSurfaceOutdated means the surface no longer matches the window and must be reconfigured.
	ErrSurfaceOutdated = errors.New("surface outdated")
	// ErrSurfaceOutOfMemory is fatal for the render loop.
	ErrSurfaceOutOfMemory = errors.New("surface out of memory")
	// ErrSurfaceTimeout means no surface texture became available in time. The frame is skipped.
	ErrSurfaceTimeout = errors.New("surface timeout")
	// ErrSurfaceOther covers every other acquisition failure.
	ErrSurfaceOther = errors.New("surface error")
)

// ClassifySurfaceError maps a surface acquisition error onto one of the Err* sentinels and wraps
// the original error with it. Errors that already carry a sentinel are returned unchanged.
// The bindings report acquisition status only through the error text, so classification
// matches on it.
//
// Parameters:
//   - err: the raw error from the surface, may be nil
//
// Returns:
//   - error: nil if err is nil, otherwise an error that matches exactly one sentinel with errors.Is
func ClassifySurfaceError(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{ErrSurfaceLost, ErrSurfaceOutdated, ErrSurfaceOutOfMemory, ErrSurfaceTimeout, ErrSurfaceOther} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	msg := strings.ToLower(strings.ReplaceAll(err.Error(), "_", ""))
	var sentinel error
	switch {
	case strings.Contains(msg, "outofmemory"), strings.Contains(msg, "out of memory"):
		sentinel = ErrSurfaceOutOfMemory
	case strings.Contains(msg, "outdated"):
		sentinel = ErrSurfaceOutdated
	case strings.Contains(msg, "lost"):
		sentinel = ErrSurfaceLost
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		sentinel = ErrSurfaceTimeout
	default:
		sentinel = ErrSurfaceOther
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// IsRecoverableSurfaceError reports whether the surface should be reconfigured and the frame
// retried, which is the case for lost and outdated surfaces.
func IsRecoverableSurfaceError(err error) bool {
	return errors.Is(err, ErrSurfaceLost) || errors.Is(err, ErrSurfaceOutdated)
}
