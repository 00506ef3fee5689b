package presentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingDepthOneSwaps(t *testing.T) {
	r := NewRing("A", "B")
	assert.Equal(t, []string{"A", "B"}, r.Slots())
	r.RotateRight()
	assert.Equal(t, []string{"B", "A"}, r.Slots())
	r.RotateRight()
	assert.Equal(t, []string{"A", "B"}, r.Slots())
}

func TestRingRotationsMoveSlotZero(t *testing.T) {
	for n := 2; n <= 5; n++ {
		items := make([]int, n)
		for i := range items {
			items[i] = i
		}
		r := NewRing(items...)
		for k := 0; k < 3*n; k++ {
			assert.Equal(t, 0, r.At(k%n), "n=%d k=%d", n, k)
			r.RotateRight()
		}
	}
}

func TestRingRightRotation(t *testing.T) {
	r := NewRing(1, 2, 3)
	r.RotateRight()
	assert.Equal(t, []int{3, 1, 2}, r.Slots())
	assert.Equal(t, 3, r.Len())
	assert.Panics(t, func() { r.At(3) })

	empty := NewRing[int]()
	empty.RotateRight()
	assert.Empty(t, empty.Slots())
}

func TestRingCopiesInput(t *testing.T) {
	items := []int{1, 2}
	r := NewRing(items...)
	items[0] = 9
	assert.Equal(t, 1, r.At(0))
}
