package fibmap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableResolverResolvesFromTable(t *testing.T) {
	r := &TableResolver{Physical: []uint64{1000, 1001, 30}}

	for logical, want := range []uint64{1000, 1001, 30} {
		got, err := r.Resolve(nil, uint64(logical))
		require.NoError(t, err, "block %d should resolve", logical)
		assert.Equal(t, want, got, "block %d should map to its table entry", logical)
	}
}

func TestTableResolverReportsUnmappedBlocks(t *testing.T) {
	r := &TableResolver{Physical: []uint64{1000}}

	_, err := r.Resolve(nil, 5)
	require.Error(t, err, "a block beyond the table should not resolve")
	assert.ErrorIs(t, err, ErrUnmapped, "out-of-table blocks read as holes")

	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr, "failures should be resolution errors")
	assert.Equal(t, uint64(5), resErr.Logical, "the failing logical block should be recorded")
}

func TestTableResolverInjectedFailure(t *testing.T) {
	boom := errors.New("ioctl failed")
	r := &TableResolver{
		Physical: []uint64{1, 2, 3},
		Fail:     map[uint64]error{1: boom},
	}

	_, err := r.Resolve(nil, 0)
	assert.NoError(t, err, "non-failing entries still resolve")

	_, err = r.Resolve(nil, 1)
	require.Error(t, err, "injected failures should surface")
	assert.ErrorIs(t, err, boom, "the injected cause should be wrapped, not replaced")
}
