package blockmap

// RangeList coalesces physical block numbers into extents. Blocks must be
// added in logical file order; a block extends the current extent only when
// it equals that extent's End, anything else starts a new extent.
//
// The list is never sorted or deduplicated: recovery replays the ranges in
// the order they appear to reconstruct the file, so a physical block that
// repeats or sorts below the current extent still opens a new range.
type RangeList struct {
	extents []Extent
}

// Add records the physical block backing the next logical block.
func (r *RangeList) Add(block uint64) {
	if n := len(r.extents); n > 0 && r.extents[n-1].End == block {
		r.extents[n-1].End++
		return
	}
	r.extents = append(r.extents, Extent{Start: block, End: block + 1})
}

// Extents returns the coalesced ranges in the order they were opened.
func (r *RangeList) Extents() []Extent {
	return r.extents
}

// BlockCount returns the total number of blocks across all extents.
func (r *RangeList) BlockCount() uint64 {
	var total uint64
	for _, e := range r.extents {
		total += e.Length()
	}
	return total
}
