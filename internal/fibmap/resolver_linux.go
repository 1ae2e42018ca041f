package fibmap

import (
	"fmt"
	"math"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// IoctlResolver resolves blocks with the FIBMAP ioctl. It needs a
// filesystem that implements bmap (ext4 does) and, on most kernels,
// CAP_SYS_RAWIO.
type IoctlResolver struct{}

// Ioctl request numbers from <linux/fs.h>; golang.org/x/sys/unix does
// not export them.
const (
	fibmapIoctl   = 1 // FIBMAP
	figetbszIoctl = 2 // FIGETBSZ
)

// Resolve returns the physical block backing the given logical block.
func (IoctlResolver) Resolve(f *os.File, logical uint64) (uint64, error) {
	// FIBMAP takes a pointer to a C int, in and out.
	if logical > math.MaxInt32 {
		return 0, &ResolutionError{Logical: logical, Err: fmt.Errorf("block index exceeds FIBMAP range")}
	}
	block := int32(logical)
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), fibmapIoctl, uintptr(unsafe.Pointer(&block))); errno != 0 {
		return 0, &ResolutionError{Logical: logical, Err: errno}
	}
	if block == 0 {
		return 0, &ResolutionError{Logical: logical, Err: ErrUnmapped}
	}
	return uint64(block), nil
}

// FileSystemBlockSize returns the filesystem block size for an open file,
// via the FIGETBSZ ioctl.
func FileSystemBlockSize(f *os.File) (uint64, error) {
	var size int32
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), figetbszIoctl, uintptr(unsafe.Pointer(&size))); errno != 0 {
		return 0, fmt.Errorf("FIGETBSZ failed on %s: %w", f.Name(), errno)
	}
	if size <= 0 {
		return 0, fmt.Errorf("FIGETBSZ reported invalid block size %d for %s", size, f.Name())
	}
	return uint64(size), nil
}
