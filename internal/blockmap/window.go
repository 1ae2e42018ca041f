package blockmap

import (
	"errors"
	"fmt"
)

// DefaultWindowSize is the read-ahead depth used when no override is
// configured. Peak buffered memory is (DefaultWindowSize-1) blocks.
const DefaultWindowSize = 5

var (
	errWindowFull  = errors.New("window is full")
	errWindowEmpty = errors.New("window is empty")
)

type windowSlot struct {
	logical uint64
	buf     []byte
}

// Window is a fixed-capacity ring of per-block slots that decouples reading
// the next logical block from resolving and persisting the oldest one. One
// slot is kept as a gap between head and tail so a full ring is
// distinguishable from an empty one; capacity n holds at most n-1 blocks.
//
// Slot buffers are allocated once, at construction, and only in buffered
// mode; map-only runs track logical indices alone.
type Window struct {
	slots       []windowSlot
	head        int
	tail        int
	nextLogical uint64
}

// NewWindow builds a window with the given slot count. blockSize is ignored
// unless buffered is true.
func NewWindow(capacity int, blockSize uint64, buffered bool) (*Window, error) {
	if capacity < 2 {
		return nil, fmt.Errorf("window capacity must be at least 2, got %d", capacity)
	}
	if buffered && blockSize == 0 {
		return nil, errors.New("block size cannot be zero for a buffered window")
	}

	w := &Window{slots: make([]windowSlot, capacity)}
	if buffered {
		for i := range w.slots {
			w.slots[i].buf = make([]byte, blockSize)
		}
	}
	return w, nil
}

// Full reports whether the tail slot immediately precedes the head slot.
func (w *Window) Full() bool {
	return (w.tail+1)%len(w.slots) == w.head
}

// Empty reports whether no slots are occupied.
func (w *Window) Empty() bool {
	return w.head == w.tail
}

// Len returns the number of occupied slots.
func (w *Window) Len() int {
	return (w.tail - w.head + len(w.slots)) % len(w.slots)
}

// PushBack claims the tail slot for the next logical block and returns its
// buffer (nil in unbuffered mode). The caller must fill the buffer before
// the slot is drained.
func (w *Window) PushBack() ([]byte, error) {
	if w.Full() {
		return nil, errWindowFull
	}
	slot := &w.slots[w.tail]
	slot.logical = w.nextLogical
	w.nextLogical++
	w.tail = (w.tail + 1) % len(w.slots)
	return slot.buf, nil
}

// PopFront releases the head slot, returning the logical block it held and
// its buffer. The buffer is only valid until the next PushBack.
func (w *Window) PopFront() (uint64, []byte, error) {
	if w.Empty() {
		return 0, nil, errWindowEmpty
	}
	slot := &w.slots[w.head]
	w.head = (w.head + 1) % len(w.slots)
	return slot.logical, slot.buf, nil
}
