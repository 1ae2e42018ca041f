package blockmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowCapacityValidation(t *testing.T) {
	_, err := NewWindow(1, 4096, true)
	assert.Error(t, err, "a window needs at least one usable slot plus the gap")

	_, err = NewWindow(5, 0, true)
	assert.Error(t, err, "buffered windows need a block size")

	_, err = NewWindow(5, 0, false)
	assert.NoError(t, err, "unbuffered windows do not allocate, block size is irrelevant")
}

func TestWindowOccupancyNeverExceedsCapacityMinusOne(t *testing.T) {
	w, err := NewWindow(5, 16, true)
	require.NoError(t, err, "failed to build window")

	for i := 0; i < 4; i++ {
		assert.False(t, w.Full(), "window should not be full after %d pushes", i)
		buf, err := w.PushBack()
		require.NoError(t, err, "push %d should succeed", i)
		require.Len(t, buf, 16, "slot buffer should be block sized")
	}

	assert.True(t, w.Full(), "four of five slots occupied should read as full")
	assert.Equal(t, 4, w.Len(), "occupancy should top out one below capacity")

	_, err = w.PushBack()
	assert.Error(t, err, "pushing into a full window must fail, not overwrite")
}

func TestWindowPopsInPushOrder(t *testing.T) {
	w, err := NewWindow(3, 8, true)
	require.NoError(t, err, "failed to build window")

	// Cycle more blocks through the window than it has slots to prove the
	// logical indices keep counting across wraparound.
	var popped []uint64
	for i := 0; i < 7; i++ {
		if w.Full() {
			logical, buf, err := w.PopFront()
			require.NoError(t, err, "pop should succeed while occupied")
			require.NotNil(t, buf, "buffered window should hand back a buffer")
			popped = append(popped, logical)
		}
		_, err := w.PushBack()
		require.NoError(t, err, "push %d should succeed", i)
	}
	for !w.Empty() {
		logical, _, err := w.PopFront()
		require.NoError(t, err, "final drain pop should succeed")
		popped = append(popped, logical)
	}

	assert.Equal(t, []uint64{0, 1, 2, 3, 4, 5, 6}, popped, "blocks should drain in logical order")
	_, _, err = w.PopFront()
	assert.Error(t, err, "popping an empty window must fail")
}

func TestWindowUnbufferedMode(t *testing.T) {
	w, err := NewWindow(5, 4096, false)
	require.NoError(t, err, "failed to build unbuffered window")

	buf, err := w.PushBack()
	require.NoError(t, err, "push should succeed")
	assert.Nil(t, buf, "map-only windows should not allocate block buffers")

	logical, buf, err := w.PopFront()
	require.NoError(t, err, "pop should succeed")
	assert.Equal(t, uint64(0), logical, "logical indices are still tracked")
	assert.Nil(t, buf, "map-only pops should carry no buffer")
}
