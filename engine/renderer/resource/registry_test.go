package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveAssignsNextFreeOffset(t *testing.T) {
	r := NewRegistry()
	tm, err := r.Reserve(KindTime, 0, 1)
	require.NoError(t, err)
	cam, err := r.Reserve(KindCamera, 0, 1)
	require.NoError(t, err)
	au, err := r.Reserve(KindAudio, 0, 3)
	require.NoError(t, err)

	assert.Equal(t, uint32(0), tm.Offset)
	assert.Equal(t, uint32(1), cam.Offset)
	assert.Equal(t, uint32(2), au.Offset)
	assert.Equal(t, uint32(5), r.Total(0))
	assert.NoError(t, r.Validate())
}

func TestReserveIndependentOfOrder(t *testing.T) {
	r := NewRegistry()
	_, err := r.ReserveAt(KindAudio, 0, 2, 3)
	require.NoError(t, err)
	tm, err := r.Reserve(KindTime, 0, 1)
	require.NoError(t, err)
	cam, err := r.Reserve(KindCamera, 0, 1)
	require.NoError(t, err)
	tx, err := r.Reserve(KindTexture, 0, 6)
	require.NoError(t, err)

	assert.Equal(t, uint32(0), tm.Offset)
	assert.Equal(t, uint32(1), cam.Offset)
	assert.Equal(t, uint32(5), tx.Offset, "the gap after audio is too small, so texture goes after it")
}

func TestReserveGroupsAreIndependent(t *testing.T) {
	r := NewRegistry()
	_, err := r.Reserve(KindTime, 0, 1)
	require.NoError(t, err)
	b, err := r.Reserve(KindCamera, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, Binding{Group: 1, Offset: 0, Count: 1}, b)
}

func TestReserveErrors(t *testing.T) {
	r := NewRegistry()
	_, err := r.ReserveAt(KindTime, 0, 0, 2)
	require.NoError(t, err)

	_, err = r.Reserve(KindTime, 0, 1)
	assert.ErrorIs(t, err, ErrDuplicateResource)

	_, err = r.ReserveAt(KindCamera, 0, 1, 1)
	assert.ErrorIs(t, err, ErrBindingOverlap)

	_, ok := r.Binding(KindCamera)
	assert.False(t, ok, "a failed reservation leaves no trace")
}

func TestStandardRegistry(t *testing.T) {
	r := NewStandardRegistry()
	want := map[Kind]Binding{
		KindTime:    {Group: 0, Offset: 0, Count: 1},
		KindCamera:  {Group: 0, Offset: 1, Count: 1},
		KindAudio:   {Group: 0, Offset: 2, Count: 3},
		KindTexture: {Group: 0, Offset: 5, Count: 6},
	}
	for kind, b := range want {
		got, ok := r.Binding(kind)
		require.True(t, ok, kind.String())
		assert.Equal(t, b, got, kind.String())
	}
	assert.Equal(t, uint32(11), r.Total(0))
}

func TestBindingHelpers(t *testing.T) {
	b := Binding{Group: 0, Offset: 2, Count: 3}
	assert.Equal(t, uint32(5), b.End())
	assert.True(t, b.Contains(2))
	assert.True(t, b.Contains(4))
	assert.False(t, b.Contains(5))
	assert.False(t, b.overlaps(Binding{Group: 1, Offset: 2, Count: 3}))
	assert.Equal(t, "group 0 [2, 5)", b.String())
}
