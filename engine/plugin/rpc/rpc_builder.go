package rpc

// ServerBuilderOption is a functional option used to configure a Server during construction.
type ServerBuilderOption func(*server)

// WithSceneLookup sets the check used to reject unknown scene names before they reach the engine.
// Without it every name is forwarded.
//
// Parameters:
//   - lookup: reports whether a scene with the given name exists
//
// Returns:
//   - ServerBuilderOption: a function that sets the scene lookup
func WithSceneLookup(lookup func(name string) bool) ServerBuilderOption {
	return func(s *server) {
		s.lookup = lookup
	}
}
