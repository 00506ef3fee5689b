package presentation

// Ring is a fixed-size sequence that rotates in place. Slot i of a ring rotated k times holds
// the element that started at slot (i-k) mod Len.
type Ring[T any] struct {
	items    []T
	rotation int
}

// NewRing creates a ring over a copy of items.
//
// Parameters:
//   - items: the initial slots, in order
//
// Returns:
//   - *Ring[T]: the ring
func NewRing[T any](items ...T) *Ring[T] {
	return &Ring[T]{items: append([]T(nil), items...)}
}

// Len returns the number of slots.
func (r *Ring[T]) Len() int {
	return len(r.items)
}

// RotateRight moves every element one slot to the right. The last element wraps to slot 0.
func (r *Ring[T]) RotateRight() {
	if len(r.items) == 0 {
		return
	}
	r.rotation = (r.rotation + 1) % len(r.items)
}

// At returns the element in slot i. It panics when i is out of range.
func (r *Ring[T]) At(i int) T {
	n := len(r.items)
	if i < 0 || i >= n {
		panic("presentation: ring index out of range")
	}
	return r.items[((i-r.rotation)%n+n)%n]
}

// Slots returns the elements in slot order.
func (r *Ring[T]) Slots() []T {
	out := make([]T, len(r.items))
	for i := range out {
		out[i] = r.At(i)
	}
	return out
}
