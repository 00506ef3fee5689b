// directive.go defines the line directives understood by the shader pre-processor. A directive
// is a WGSL line comment starting with @cubensis: so that unprocessed shaders still parse.
package shader

import (
	"fmt"
	"strings"
)

// directivePrefix marks a pre-processor directive inside a WGSL line comment.
const directivePrefix = "@cubensis:"

// DirectiveType identifies the action a directive requests.
type DirectiveType string

const (
	// DirectiveInclude inserts a registered WGSL fragment, or every fragment of a registered group,
	// at the directive line.
	//
	// Syntax: //@cubensis:include <name>
	//
	// Example: //@cubensis:include resources
	DirectiveInclude DirectiveType = "include"
)

// Directive is one parsed directive line.
type Directive struct {
	Type DirectiveType
	// Name is the include name.
	Name string
	// Line is the 1-based source line.
	Line int
}

// parseDirective parses line as a directive. It returns nil with no error for ordinary lines.
//
// Parameters:
//   - line: the raw WGSL source line
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Directive: the directive, or nil if the line is not one
//   - error: error if the line has the directive prefix but is malformed
func parseDirective(line string, lineNum int) (*Directive, error) {
	trimmed := strings.TrimSpace(line)
	comment, ok := strings.CutPrefix(trimmed, "//")
	if !ok {
		return nil, nil
	}
	after, ok := strings.CutPrefix(strings.TrimSpace(comment), directivePrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty %s directive", lineNum, directivePrefix)
	}
	switch DirectiveType(args[0]) {
	case DirectiveInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: include directive requires exactly one name", lineNum)
		}
		return &Directive{Type: DirectiveInclude, Name: args[1], Line: lineNum}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown directive %q", lineNum, args[0])
	}
}
