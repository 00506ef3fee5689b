package shader

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	mu *sync.RWMutex

	// fragments maps include names to WGSL source.
	fragments map[string]string

	// groups maps a group include name to the fragment names it expands to, in order.
	groups map[string][]string
}

// PreProcessor expands include directives in WGSL source. Fragments are inserted at most once
// per Process call, so including a group and one of its members does not redeclare anything.
// It is safe for concurrent use.
type PreProcessor interface {
	// Process replaces every include directive in source with the named fragments.
	//
	// Parameters:
	//   - source: WGSL source containing directives
	//
	// Returns:
	//   - string: the expanded source
	//   - []Directive: the directives found, in source order
	//   - error: error if a directive is malformed or names an unknown include
	Process(source string) (string, []Directive, error)

	// SetInclude registers or replaces the fragment for name.
	SetInclude(name, source string)

	// SetIncludeGroup registers name as expanding to the listed fragments.
	SetIncludeGroup(name string, members ...string)

	// IncludeNames returns every registered fragment and group name, sorted.
	IncludeNames() []string
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the given includes registered.
//
// Parameters:
//   - options: functional options registering fragments and groups
//
// Returns:
//   - PreProcessor: the pre-processor
func NewPreProcessor(options ...PreProcessorBuilderOption) PreProcessor {
	p := &preProcessor{
		mu:        &sync.RWMutex{},
		fragments: make(map[string]string),
		groups:    make(map[string][]string),
	}
	for _, option := range options {
		option(p)
	}
	return p
}

func (p *preProcessor) Process(source string) (string, []Directive, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	var directives []Directive
	emitted := make(map[string]bool)

	for i, line := range lines {
		d, err := parseDirective(line, i+1)
		if err != nil {
			return "", nil, err
		}
		if d == nil {
			out = append(out, line)
			continue
		}
		directives = append(directives, *d)

		names, err := p.expandLocked(d)
		if err != nil {
			return "", nil, err
		}
		for _, name := range names {
			if emitted[name] {
				continue
			}
			emitted[name] = true
			out = append(out, strings.TrimRight(p.fragments[name], "\n"))
		}
	}
	return strings.Join(out, "\n"), directives, nil
}

// expandLocked resolves an include directive to fragment names. Caller must hold the read lock.
func (p *preProcessor) expandLocked(d *Directive) ([]string, error) {
	if members, ok := p.groups[d.Name]; ok {
		for _, m := range members {
			if _, ok := p.fragments[m]; !ok {
				return nil, fmt.Errorf("line %d: include group %q names unknown fragment %q", d.Line, d.Name, m)
			}
		}
		return members, nil
	}
	if _, ok := p.fragments[d.Name]; ok {
		return []string{d.Name}, nil
	}
	return nil, fmt.Errorf("line %d: unknown include %q", d.Line, d.Name)
}

func (p *preProcessor) SetInclude(name, source string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fragments[name] = source
}

func (p *preProcessor) SetIncludeGroup(name string, members ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.groups[name] = slices.Clone(members)
}

func (p *preProcessor) IncludeNames() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := slices.Collect(maps.Keys(p.fragments))
	for name := range p.groups {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
