// Package blockmap turns a file on a block-based filesystem into a list of
// the physical device blocks that back it, so recovery tooling can read the
// file straight off the block device without mounting the filesystem.
//
// When the device is transparently encrypted, the same pass also rewrites
// the file's plaintext onto the matching blocks of the raw (pre-decryption)
// device, so a raw-block reader needs no decryption key.
//
// The produced artifact is a small text "block map":
//
//	/dev/block/platform/msm_sdcc.1/by-name/userdata
//	49652 4096
//	3
//	1000 1008
//	2100 2102
//	30 33
//
// First line is the block device, second is file size and block size in
// bytes, third is the range count, then one half-open range per line; the
// line "30 33" covers blocks 30, 31 and 32.
package blockmap

// Extent is a half-open run [Start, End) of physical blocks.
type Extent struct {
	Start uint64
	End   uint64
}

// Length returns the number of blocks the extent covers.
func (e Extent) Length() uint64 {
	return e.End - e.Start
}

// Map describes where a file's content lives on a block device.
type Map struct {
	DevicePath string
	FileSize   uint64
	BlockSize  uint64
	Ranges     []Extent
}

// BlockCount returns the total number of blocks across all ranges.
func (m *Map) BlockCount() uint64 {
	var total uint64
	for _, e := range m.Ranges {
		total += e.Length()
	}
	return total
}
