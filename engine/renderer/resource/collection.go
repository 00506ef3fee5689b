package resource

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Carmen-Shannon/cubensis-go/engine/event"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrMixedGroups is returned when the resources of a collection do not share one bind group.
var ErrMixedGroups = errors.New("resources span more than one bind group")

// Collection combines an ordered list of resources into one bind group. The layout and group are
// rebuilt synchronously inside Update whenever a member reports a change, so they always match
// the members' state when Update returns.
type Collection struct {
	dev       gpu.Device
	resources []*Resource
	group     uint32

	layoutEntries []wgpu.BindGroupLayoutEntry
	layout        *wgpu.BindGroupLayout
	bindGroup     *wgpu.BindGroup

	// dirty is set while a member has changed shape and the combined group has not caught up.
	dirty bool
}

// NewCollection builds the combined layout and bind group for resources, in list order.
//
// Parameters:
//   - dev: the device to create the layout and group with
//   - resources: the members, all in the same bind group
//
// Returns:
//   - *Collection: the collection
//   - error: error if the members overlap, span groups or the GPU objects cannot be created
func NewCollection(dev gpu.Device, resources ...*Resource) (*Collection, error) {
	if len(resources) == 0 {
		return nil, errors.New("a resource collection needs at least one resource")
	}
	c := &Collection{
		dev:       dev,
		resources: resources,
		group:     resources[0].Binding().Group,
	}
	for _, r := range resources[1:] {
		if r.Binding().Group != c.group {
			return nil, fmt.Errorf("%w: %s is in group %d, expected %d", ErrMixedGroups, r.Kind, r.Binding().Group, c.group)
		}
	}
	if err := c.rebuild(); err != nil {
		return nil, err
	}
	return c, nil
}

// Group returns the bind group index shared by every member.
func (c *Collection) Group() uint32 { return c.group }

// Resources returns the members in list order.
func (c *Collection) Resources() []*Resource { return c.resources }

// Resource returns the first member of kind.
func (c *Collection) Resource(kind Kind) (*Resource, bool) {
	for _, r := range c.resources {
		if r.Kind == kind {
			return r, true
		}
	}
	return nil, false
}

// LayoutEntries returns a copy of the combined layout entries.
func (c *Collection) LayoutEntries() []wgpu.BindGroupLayoutEntry {
	return append([]wgpu.BindGroupLayoutEntry(nil), c.layoutEntries...)
}

// BindGroupLayouts returns the layouts for groups 0 through Group, with nil for any group
// below Group that the collection does not own.
func (c *Collection) BindGroupLayouts() []*wgpu.BindGroupLayout {
	layouts := make([]*wgpu.BindGroupLayout, c.group+1)
	layouts[c.group] = c.layout
	return layouts
}

// LayoutGroups returns BindGroupLayouts paired with the layout entries of the owned group.
func (c *Collection) LayoutGroups() []gpu.LayoutGroup {
	groups := make([]gpu.LayoutGroup, c.group+1)
	groups[c.group] = gpu.LayoutGroup{Layout: c.layout, Entries: c.LayoutEntries()}
	return groups
}

// BindGroups returns the bind groups indexed like BindGroupLayouts.
func (c *Collection) BindGroups() []*wgpu.BindGroup {
	groups := make([]*wgpu.BindGroup, c.group+1)
	groups[c.group] = c.bindGroup
	return groups
}

// Update advances every member and rebuilds the combined group if any member changed shape.
// A failed rebuild is retried on every following Update until it succeeds.
//
// Parameters:
//   - dt: the frame time; zero leaves every member untouched
//
// Returns:
//   - bool: true if the layout and bind group were rebuilt
//   - error: error if the rebuild failed; the previous layout and group stay in place
func (c *Collection) Update(dt time.Duration) (bool, error) {
	for _, r := range c.resources {
		if r.Update(dt) {
			c.dirty = true
		}
	}
	if !c.dirty {
		return false, nil
	}
	if err := c.rebuild(); err != nil {
		return false, err
	}
	c.dirty = false
	log.Printf("[Renderer] resource bind group rebuilt with %d entries", len(c.layoutEntries))
	return true, nil
}

// Resize forwards a surface size change to every member.
func (c *Collection) Resize(width, height int) {
	for _, r := range c.resources {
		r.Resize(width, height)
	}
}

// HandleOrCaptureEvent offers e to the members in order and stops at the first that consumes it.
func (c *Collection) HandleOrCaptureEvent(e event.Input) bool {
	for _, r := range c.resources {
		if r.HandleOrCaptureEvent(e) {
			return true
		}
	}
	return false
}

// Includes returns the WGSL declarations of the members keyed by include name.
//
// Returns:
//   - map[string]string: include name to WGSL source
func (c *Collection) Includes() map[string]string {
	includes := make(map[string]string, len(c.resources))
	for _, r := range c.resources {
		includes[IncludeName(r.Kind)] = r.WGSL()
	}
	return includes
}

// IncludeNames returns the include names of the members in member order. Together they make up
// the IncludeAll group.
func (c *Collection) IncludeNames() []string {
	names := make([]string, len(c.resources))
	for i, r := range c.resources {
		names[i] = IncludeName(r.Kind)
	}
	return names
}

// Release releases the combined group and every member.
func (c *Collection) Release() {
	c.dev.Release(c.bindGroup, c.layout)
	c.bindGroup, c.layout = nil, nil
	for _, r := range c.resources {
		r.Release()
	}
}

// rebuild concatenates the members' layout entries and entries and swaps in a new layout and
// group. On failure nothing is replaced.
func (c *Collection) rebuild() error {
	var layoutEntries []wgpu.BindGroupLayoutEntry
	var entries []wgpu.BindGroupEntry
	used := make(map[uint32]wgpu.BindGroupLayoutEntry)
	for _, r := range c.resources {
		b := r.Binding()
		le := r.LayoutEntries()
		if uint32(len(le)) != b.Count {
			return fmt.Errorf("%s emitted %d layout entries for %s", r.Kind, len(le), b)
		}
		for _, entry := range le {
			if !b.Contains(entry.Binding) {
				return fmt.Errorf("%s emitted binding %d outside %s", r.Kind, entry.Binding, b)
			}
			if _, dup := used[entry.Binding]; dup {
				return fmt.Errorf("%w: binding %d emitted twice", ErrBindingOverlap, entry.Binding)
			}
			used[entry.Binding] = entry
		}
		e, err := r.Entries()
		if err != nil {
			return fmt.Errorf("%s entries: %w", r.Kind, err)
		}
		layoutEntries = append(layoutEntries, le...)
		entries = append(entries, e...)
	}

	layout, err := c.dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   "Resources Bind Group Layout",
		Entries: layoutEntries,
	})
	if err != nil {
		return fmt.Errorf("failed to create resource bind group layout: %w", err)
	}
	group, err := c.dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "Resources Bind Group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		c.dev.Release(layout)
		return fmt.Errorf("failed to create resource bind group: %w", err)
	}

	c.dev.Release(c.bindGroup, c.layout)
	c.layoutEntries = layoutEntries
	c.layout = layout
	c.bindGroup = group
	return nil
}
