package audio

import "sync"

// Mailbox is a single-slot, latest-value channel. Store never blocks and overwrites any value
// the reader has not seen yet; Load always returns the newest value.
// Safe for one or more writers and readers.
type Mailbox[T any] struct {
	mu    sync.Mutex
	value T
	fresh bool
}

// NewMailbox creates a Mailbox holding initial. The initial value does not count as new.
//
// Parameters:
//   - initial: the value returned until the first Store
//
// Returns:
//   - *Mailbox[T]: the mailbox
func NewMailbox[T any](initial T) *Mailbox[T] {
	return &Mailbox[T]{value: initial}
}

// Store replaces the held value.
func (m *Mailbox[T]) Store(v T) {
	m.mu.Lock()
	m.value = v
	m.fresh = true
	m.mu.Unlock()
}

// Load returns the newest value and whether it was stored since the previous Load.
//
// Returns:
//   - T: the newest value
//   - bool: true if the value is new to this reader
func (m *Mailbox[T]) Load() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fresh := m.fresh
	m.fresh = false
	return m.value, fresh
}
