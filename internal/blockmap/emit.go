package blockmap

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Encode writes the block map in its text form: device path, file size and
// block size, range count, then one "start end" line per range in the order
// the ranges were coalesced. All integers are base 10.
func (m *Map) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\n", m.DevicePath)
	fmt.Fprintf(bw, "%d %d\n", m.FileSize, m.BlockSize)
	fmt.Fprintf(bw, "%d\n", len(m.Ranges))
	for _, e := range m.Ranges {
		fmt.Fprintf(bw, "%d %d\n", e.Start, e.End)
	}
	return bw.Flush()
}

// WriteFile persists the map to path. The artifact is written to a
// temporary sibling and renamed into place only once it is complete and
// synced, so an aborted run never leaves a truncated map behind.
func (m *Map) WriteFile(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create map file: %w", err)
	}
	if err := m.Encode(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write map file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to sync map file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close map file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize map file: %w", err)
	}
	return nil
}
