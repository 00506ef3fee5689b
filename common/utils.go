package common

import (
	"path/filepath"
)

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// CanonicalPath returns an absolute, cleaned form of path with symlinks resolved when the file exists.
// Two paths naming the same file compare equal after canonicalization.
//
// Parameters:
//   - path: the path to canonicalize
//
// Returns:
//   - string: the canonical path, or the cleaned input if it cannot be made absolute
func CanonicalPath(path string) string {
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	// The file may not exist yet; resolve the parent so a later create still matches.
	dir, base := filepath.Split(abs)
	if resolvedDir, err := filepath.EvalSymlinks(dir); err == nil {
		return filepath.Join(resolvedDir, base)
	}
	return filepath.Clean(abs)
}
