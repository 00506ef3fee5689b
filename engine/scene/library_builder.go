package scene

// LibraryBuilderOption is a functional option for configuring a Library.
// Use the With* functions to create options.
type LibraryBuilderOption func(l *library)

// WithWorkers sets the number of goroutines that decode scene files in parallel.
// Defaults to runtime.NumCPU().
//
// Parameters:
//   - n: the number of loader workers (minimum 1)
//
// Returns:
//   - LibraryBuilderOption: option function to apply
func WithWorkers(n int) LibraryBuilderOption {
	return func(l *library) {
		if n < 1 {
			n = 1
		}
		l.workers = n
	}
}

// WithMaxDepth limits how many directory levels below the library root are searched.
// The root itself is depth 0. Defaults to DefaultMaxDepth.
//
// Parameters:
//   - depth: the maximum search depth (minimum 0)
//
// Returns:
//   - LibraryBuilderOption: option function to apply
func WithMaxDepth(depth int) LibraryBuilderOption {
	return func(l *library) {
		if depth < 0 {
			depth = 0
		}
		l.maxDepth = depth
	}
}

// WithFallback makes the library serve the given scene when no scene file is found on disk,
// instead of failing with ErrEmptyLibrary.
//
// Parameters:
//   - s: the in-memory scene to fall back to
//
// Returns:
//   - LibraryBuilderOption: option function to apply
func WithFallback(s Scene) LibraryBuilderOption {
	return func(l *library) {
		l.fallback = &s
	}
}
