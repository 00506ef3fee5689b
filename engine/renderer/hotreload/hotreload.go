// Package hotreload maps file edits to the mesh passes that use the edited file and rebuilds them.
// Every slot moves from Stable to Compiling and back to Stable with either the new pipeline or,
// when compilation fails, the old one.
package hotreload

import (
	"errors"
	"fmt"
	"log"

	"github.com/Carmen-Shannon/cubensis-go/common"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/gpu"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/mesh"
)

// Policy decides how many matching slots a single edit rebuilds.
type Policy int

const (
	// MatchAll rebuilds every slot of every mesh that uses the edited file.
	MatchAll Policy = iota
	// MatchFirst rebuilds only the first matching slot of the first matching mesh.
	MatchFirst
)

func (p Policy) String() string {
	switch p {
	case MatchAll:
		return "all"
	case MatchFirst:
		return "first"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy parses the hot_reload.policy configuration value. The empty string is MatchAll.
//
// Parameters:
//   - s: "all", "first" or ""
//
// Returns:
//   - Policy: the parsed policy
//   - error: error if s names no policy
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "all":
		return MatchAll, nil
	case "first":
		return MatchFirst, nil
	}
	return MatchAll, fmt.Errorf("unknown hot reload policy %q", s)
}

// Result counts the slots an edit touched.
type Result struct {
	// Matched is the number of slots that use the edited file and were attempted.
	Matched int
	// Rebuilt is the number of slots now running a new pipeline.
	Rebuilt int
	// Failed is the number of slots that kept their old pipeline.
	Failed int
}

// coordinator is the implementation of the Coordinator interface.
type coordinator struct {
	policy Policy
}

// Coordinator rebuilds mesh passes after file edits. It must be used from the render thread.
type Coordinator interface {
	// Policy returns the match policy.
	Policy() Policy

	// HandleFileEdit rebuilds the slots that use path. A path no mesh uses is not an error.
	//
	// Parameters:
	//   - path: the edited file
	//   - meshes: the meshes of the current scene
	//   - resources: the resource layouts in group order
	//   - history: the history layout
	//
	// Returns:
	//   - Result: the number of matched, rebuilt and failed slots
	//   - error: the joined compile errors of the failed slots
	HandleFileEdit(path string, meshes []mesh.Mesh, resources []gpu.LayoutGroup, history gpu.LayoutGroup) (Result, error)
}

var _ Coordinator = &coordinator{}

// NewCoordinator creates a Coordinator with the MatchAll policy unless an option changes it.
//
// Parameters:
//   - options: functional options to configure the coordinator
//
// Returns:
//   - Coordinator: the coordinator
func NewCoordinator(options ...CoordinatorBuilderOption) Coordinator {
	c := &coordinator{policy: MatchAll}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *coordinator) Policy() Policy {
	return c.policy
}

func (c *coordinator) HandleFileEdit(path string, meshes []mesh.Mesh, resources []gpu.LayoutGroup, history gpu.LayoutGroup) (Result, error) {
	target := common.CanonicalPath(path)

	var res Result
	var errs []error
	for _, m := range meshes {
		slots := m.MatchingSlots(target)
		if len(slots) == 0 {
			continue
		}

		if c.policy == MatchFirst {
			res.Matched = 1
			if err := m.RebuildSlot(slots[0], resources, history); err != nil {
				res.Failed = 1
				errs = append(errs, err)
			} else {
				res.Rebuilt = 1
			}
			break
		}

		res.Matched += len(slots)
		n, err := m.RebuildAll(target, resources, history)
		res.Rebuilt += n
		res.Failed += len(slots) - n
		if err != nil {
			errs = append(errs, err)
		}
	}

	if res.Matched == 0 {
		common.Debugf("[HotReload] %s is not used by any mesh", target)
		return res, nil
	}
	if res.Failed > 0 {
		log.Printf("[HotReload] %s: %d of %d passes failed, keeping their previous pipelines", target, res.Failed, res.Matched)
	} else {
		log.Printf("[HotReload] %s: rebuilt %d passes", target, res.Rebuilt)
	}
	return res, errors.Join(errs...)
}
