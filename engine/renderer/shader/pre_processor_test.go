package shader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPreProcessor() PreProcessor {
	return NewPreProcessor(
		WithIncludes(map[string]string{
			"time":   "struct Time { frame: u32 }\n",
			"camera": "struct Camera { m: mat4x4<f32> }\n",
		}),
		WithInclude("history", "// history\n"),
		WithIncludeGroup("resources", "time", "camera"),
	)
}

func TestProcessExpandsIncludes(t *testing.T) {
	pp := newTestPreProcessor()
	out, directives, err := pp.Process("//@cubensis:include resources\n// @cubensis:include history\nfn main() {}")
	require.NoError(t, err)
	assert.Equal(t, "struct Time { frame: u32 }\nstruct Camera { m: mat4x4<f32> }\n// history\nfn main() {}", out)
	require.Len(t, directives, 2)
	assert.Equal(t, Directive{Type: DirectiveInclude, Name: "resources", Line: 1}, directives[0])
	assert.Equal(t, 2, directives[1].Line)
}

func TestProcessIncludesFragmentsOnce(t *testing.T) {
	pp := newTestPreProcessor()
	out, _, err := pp.Process("//@cubensis:include time\n//@cubensis:include resources\n//@cubensis:include time")
	require.NoError(t, err)
	assert.Equal(t, "struct Time { frame: u32 }\nstruct Camera { m: mat4x4<f32> }", out)
}

func TestProcessLeavesOrdinaryLines(t *testing.T) {
	pp := newTestPreProcessor()
	src := "// just a comment about @cubensis:include\nfn main() {}\n"
	out, directives, err := pp.Process(src)
	require.NoError(t, err)
	assert.Empty(t, directives)
	assert.Equal(t, src, out)
}

func TestProcessErrors(t *testing.T) {
	pp := newTestPreProcessor()
	tests := []struct {
		name, src, want string
	}{
		{"unknown include", "fn a() {}\n//@cubensis:include nope", "line 2: unknown include \"nope\""},
		{"missing name", "//@cubensis:include", "exactly one name"},
		{"unknown directive", "//@cubensis:define X", "unknown directive \"define\""},
		{"empty", "//@cubensis:", "empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := pp.Process(tt.src)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestGroupWithUnknownMember(t *testing.T) {
	pp := NewPreProcessor(WithIncludeGroup("all", "ghost"))
	_, _, err := pp.Process("//@cubensis:include all")
	assert.ErrorContains(t, err, "unknown fragment \"ghost\"")
}

func TestSetIncludeReplaces(t *testing.T) {
	pp := newTestPreProcessor()
	pp.SetInclude("history", "// replaced")
	pp.SetIncludeGroup("pair", "time", "history")

	out, _, err := pp.Process("//@cubensis:include pair")
	require.NoError(t, err)
	assert.Equal(t, "struct Time { frame: u32 }\n// replaced", out)
	assert.Equal(t, []string{"camera", "history", "pair", "resources", "time"}, pp.IncludeNames())
}
