package blockmap

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// BlockWriter persists one block's content at an absolute byte offset on
// the raw device.
type BlockWriter interface {
	WriteBlock(buf []byte, offset int64) error
	Close() error
}

// DeviceRewriter writes plaintext blocks back onto the raw block device
// underneath the encryption layer.
type DeviceRewriter struct {
	f *os.File
}

// NewDeviceRewriter opens the raw device for writing.
func NewDeviceRewriter(devicePath string) (*DeviceRewriter, error) {
	f, err := os.OpenFile(devicePath, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s for writing: %w", devicePath, err)
	}
	return &DeviceRewriter{f: f}, nil
}

// WriteBlock writes buf at offset in full. A short write is not an error;
// the write is resumed from the point reached until every byte is on the
// device or the device reports a real failure.
func (d *DeviceRewriter) WriteBlock(buf []byte, offset int64) error {
	written := 0
	for written < len(buf) {
		n, err := unix.Pwrite(int(d.f.Fd()), buf[written:], offset+int64(written))
		if err != nil {
			return fmt.Errorf("error writing offset %d: %w", offset, err)
		}
		written += n
	}
	return nil
}

// Close releases the device handle.
func (d *DeviceRewriter) Close() error {
	return d.f.Close()
}
