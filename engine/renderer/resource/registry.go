package resource

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrBindingOverlap is returned when a reservation collides with an existing one in the same group.
	ErrBindingOverlap = errors.New("binding range overlaps an existing reservation")
	// ErrDuplicateResource is returned when a kind is reserved twice.
	ErrDuplicateResource = errors.New("resource kind already reserved")
	// ErrNotReserved is returned when a resource is constructed for a kind with no reservation.
	ErrNotReserved = errors.New("resource kind not reserved")
)

// Binding is the identity of a resource: a contiguous range of binding indices in one group.
type Binding struct {
	Group  uint32
	Offset uint32
	Count  uint32
}

// End returns the first binding index after the range.
func (b Binding) End() uint32 {
	return b.Offset + b.Count
}

// Contains reports whether binding index i falls inside the range.
func (b Binding) Contains(i uint32) bool {
	return i >= b.Offset && i < b.End()
}

func (b Binding) overlaps(o Binding) bool {
	return b.Group == o.Group && b.Offset < o.End() && o.Offset < b.End()
}

func (b Binding) String() string {
	return fmt.Sprintf("group %d [%d, %d)", b.Group, b.Offset, b.End())
}

// Registry assigns binding ranges to resource kinds. Offsets come only from the registry, so the
// order in which resources are constructed never changes their bindings.
type Registry struct {
	mu       *sync.Mutex
	reserved map[Kind]Binding
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		mu:       &sync.Mutex{},
		reserved: make(map[Kind]Binding),
	}
}

// NewStandardRegistry creates the registry for the standard group 0 layout:
// Time at 0, Camera at 1, Audio at 2..4 and Texture at 5..10.
//
// Returns:
//   - *Registry: the populated registry
func NewStandardRegistry() *Registry {
	r := NewRegistry()
	for _, k := range []Kind{KindTime, KindCamera, KindAudio, KindTexture} {
		if _, err := r.Reserve(k, 0, k.BindingCount()); err != nil {
			panic(fmt.Sprintf("standard registry: %v", err))
		}
	}
	return r
}

// Reserve assigns kind the lowest free range of count bindings in group.
//
// Parameters:
//   - kind: the resource kind
//   - group: the bind group index
//   - count: the number of bindings the resource emits
//
// Returns:
//   - Binding: the assigned range
//   - error: ErrDuplicateResource if kind is already reserved
func (r *Registry) Reserve(kind Kind, group, count uint32) (Binding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reserved[kind]; ok {
		return Binding{}, fmt.Errorf("%w: %s", ErrDuplicateResource, kind)
	}

	candidate := Binding{Group: group, Offset: 0, Count: count}
	for _, existing := range r.sortedLocked() {
		if candidate.overlaps(existing) {
			candidate.Offset = existing.End()
		}
	}
	r.reserved[kind] = candidate
	return candidate, nil
}

// ReserveAt pins kind to an explicit range.
//
// Parameters:
//   - kind: the resource kind
//   - group: the bind group index
//   - offset: the first binding index
//   - count: the number of bindings
//
// Returns:
//   - Binding: the reserved range
//   - error: ErrDuplicateResource or ErrBindingOverlap
func (r *Registry) ReserveAt(kind Kind, group, offset, count uint32) (Binding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reserved[kind]; ok {
		return Binding{}, fmt.Errorf("%w: %s", ErrDuplicateResource, kind)
	}
	candidate := Binding{Group: group, Offset: offset, Count: count}
	for k, existing := range r.reserved {
		if candidate.overlaps(existing) {
			return Binding{}, fmt.Errorf("%w: %s %s collides with %s %s", ErrBindingOverlap, kind, candidate, k, existing)
		}
	}
	r.reserved[kind] = candidate
	return candidate, nil
}

// Binding returns the range reserved for kind.
func (r *Registry) Binding(kind Kind) (Binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.reserved[kind]
	return b, ok
}

// Total returns the number of bindings reserved in group.
func (r *Registry) Total(group uint32) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total uint32
	for _, b := range r.reserved {
		if b.Group == group {
			total += b.Count
		}
	}
	return total
}

// Validate re-checks that no two reservations overlap.
func (r *Registry) Validate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sorted := r.sortedLocked()
	for i := range sorted {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[i].overlaps(sorted[j]) {
				return fmt.Errorf("%w: %s and %s", ErrBindingOverlap, sorted[i], sorted[j])
			}
		}
	}
	return nil
}

// sortedLocked returns every reservation ordered by group then offset.
// Caller must hold the mutex.
func (r *Registry) sortedLocked() []Binding {
	out := make([]Binding, 0, len(r.reserved))
	for _, b := range r.reserved {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Offset < out[j].Offset
	})
	return out
}
