package shader

import "slices"

// PreProcessorBuilderOption is a functional option for configuring a PreProcessor.
type PreProcessorBuilderOption func(*preProcessor)

// WithInclude registers a WGSL fragment under name.
//
// Parameters:
//   - name: the include name used in directives
//   - source: the WGSL fragment
//
// Returns:
//   - PreProcessorBuilderOption: a function that applies the include
func WithInclude(name, source string) PreProcessorBuilderOption {
	return func(p *preProcessor) {
		p.fragments[name] = source
	}
}

// WithIncludes registers every fragment in includes.
func WithIncludes(includes map[string]string) PreProcessorBuilderOption {
	return func(p *preProcessor) {
		for name, source := range includes {
			p.fragments[name] = source
		}
	}
}

// WithIncludeGroup registers name as expanding to members in order.
//
// Parameters:
//   - name: the group include name
//   - members: the fragment names the group expands to
//
// Returns:
//   - PreProcessorBuilderOption: a function that applies the group
func WithIncludeGroup(name string, members ...string) PreProcessorBuilderOption {
	return func(p *preProcessor) {
		p.groups[name] = slices.Clone(members)
	}
}
