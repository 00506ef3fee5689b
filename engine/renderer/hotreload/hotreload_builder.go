package hotreload

// CoordinatorBuilderOption is a functional option used to configure a Coordinator during
// construction.
type CoordinatorBuilderOption func(*coordinator)

// WithPolicy sets the match policy.
//
// Parameters:
//   - policy: MatchAll or MatchFirst
//
// Returns:
//   - CoordinatorBuilderOption: a function that sets the policy
func WithPolicy(policy Policy) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.policy = policy
	}
}
