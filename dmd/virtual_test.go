package dmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVirtualConsumerSnapshotIsDestructive(t *testing.T) {
	v := NewVirtualConsumer()

	_, _, _, _, _, isNew := v.Snapshot()
	assert.False(t, isNew, "no update yet")

	v.update(4, 4, Depth2, []byte{1, 2, 3, 4}, []byte{0, 0, 0})

	w, h, d, idx, rgb, isNew := v.Snapshot()
	require.True(t, isNew)
	assert.Equal(t, 4, w)
	assert.Equal(t, 4, h)
	assert.Equal(t, Depth2, d)
	assert.Equal(t, []byte{1, 2, 3, 4}, idx)
	assert.Equal(t, []byte{0, 0, 0}, rgb)

	_, _, _, _, _, isNew = v.Snapshot()
	assert.False(t, isNew, "second read before any update must report stale")
}

func TestVirtualConsumerSnapshotCopiesAreIndependent(t *testing.T) {
	v := NewVirtualConsumer()
	v.update(1, 1, Depth2, []byte{9}, []byte{1, 2, 3})

	_, _, _, idx, rgb, _ := v.Snapshot()
	idx[0] = 0
	rgb[0] = 0

	v.update(1, 1, Depth2, []byte{9}, []byte{1, 2, 3})
	_, _, _, idx2, rgb2, _ := v.Snapshot()
	assert.Equal(t, byte(9), idx2[0])
	assert.Equal(t, byte(1), rgb2[0])
}
