// Package fibmap resolves a file's logical blocks to physical blocks on
// the underlying device.
package fibmap

import (
	"errors"
	"fmt"
	"os"
)

// ErrUnmapped is reported when the filesystem has no physical block for a
// logical block, e.g. a hole in a sparse file. A raw-block reader cannot
// reconstruct such a block, so callers treat this as fatal.
var ErrUnmapped = errors.New("logical block has no physical mapping")

// ResolutionError wraps a failure to map one logical block.
type ResolutionError struct {
	Logical uint64
	Err     error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to find physical block for logical block %d: %v", e.Logical, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Resolver maps a logical block of an open file to a physical block number
// on the device backing its filesystem.
type Resolver interface {
	Resolve(f *os.File, logical uint64) (uint64, error)
}

// TableResolver resolves from a fixed table, for tests. Logical blocks
// beyond the table and entries listed in Fail resolve to a
// ResolutionError.
type TableResolver struct {
	Physical []uint64
	Fail     map[uint64]error
}

func (r *TableResolver) Resolve(_ *os.File, logical uint64) (uint64, error) {
	if err, ok := r.Fail[logical]; ok {
		return 0, &ResolutionError{Logical: logical, Err: err}
	}
	if logical >= uint64(len(r.Physical)) {
		return 0, &ResolutionError{Logical: logical, Err: ErrUnmapped}
	}
	return r.Physical[logical], nil
}
