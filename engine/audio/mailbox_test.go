package audio

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMailboxLatestWins(t *testing.T) {
	m := NewMailbox(0)

	v, fresh := m.Load()
	assert.Equal(t, 0, v)
	assert.False(t, fresh)

	m.Store(1)
	m.Store(2)
	m.Store(3)
	v, fresh = m.Load()
	assert.Equal(t, 3, v)
	assert.True(t, fresh)

	v, fresh = m.Load()
	assert.Equal(t, 3, v)
	assert.False(t, fresh)
}

func TestMailboxConcurrentWriters(t *testing.T) {
	m := NewMailbox(-1)
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				m.Store(i)
			}
		}()
	}
	wg.Wait()

	v, fresh := m.Load()
	assert.True(t, fresh)
	assert.GreaterOrEqual(t, v, 0)
	assert.Less(t, v, 16)
}
