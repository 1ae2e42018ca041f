package blockmap

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/deploymenttheory/go-blockmap/internal/fibmap"
)

// Config describes one mapping run.
type Config struct {
	// DevicePath is recorded in the emitted map and, in rewrite mode, is
	// the device the Writer persists to.
	DevicePath string
	// BlockSize is the filesystem block size in bytes.
	BlockSize uint64
	// WindowSize is the read-ahead slot count; 0 selects DefaultWindowSize.
	WindowSize int
	// Rewrite selects whether plaintext is buffered and written back to the
	// raw device. When false the run is map-only: no reads, no writes.
	Rewrite  bool
	Resolver fibmap.Resolver
	// Writer persists drained blocks. Required in rewrite mode, ignored
	// otherwise.
	Writer BlockWriter
}

// Producer runs the single-threaded mapping pass over one file.
type Producer struct {
	cfg Config
}

// NewProducer validates the configuration.
func NewProducer(cfg Config) (*Producer, error) {
	if cfg.BlockSize == 0 {
		return nil, errors.New("block size cannot be zero")
	}
	if cfg.Resolver == nil {
		return nil, errors.New("a block resolver is required")
	}
	if cfg.Rewrite && cfg.Writer == nil {
		return nil, errors.New("rewrite mode requires a block writer")
	}
	if cfg.WindowSize == 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	if cfg.WindowSize < 2 {
		return nil, fmt.Errorf("window size must be at least 2, got %d", cfg.WindowSize)
	}
	return &Producer{cfg: cfg}, nil
}

// Produce maps every block of f and returns the finished Map. In rewrite
// mode each block's plaintext is also written to its physical offset on the
// raw device.
//
// The pass interleaves reading ahead with draining: once the window is
// saturated, the oldest buffered block is resolved, added to the range
// list and (in rewrite mode) persisted before the next block is read. A
// block is therefore never overwritten in the window until it has been
// fully captured and drained. Any resolve or write failure aborts the run;
// no partial map is returned.
func (p *Producer) Produce(f *os.File, fileSize uint64) (*Map, error) {
	w, err := NewWindow(p.cfg.WindowSize, p.cfg.BlockSize, p.cfg.Rewrite)
	if err != nil {
		return nil, err
	}

	var ranges RangeList
	var pos uint64
	for pos < fileSize {
		if w.Full() {
			if err := p.drainHead(f, w, &ranges); err != nil {
				return nil, err
			}
		}

		buf, err := w.PushBack()
		if err != nil {
			return nil, err
		}
		if p.cfg.Rewrite {
			n, err := p.readBlock(f, buf, fileSize-pos)
			if err != nil {
				return nil, err
			}
			pos += n
		} else {
			// Map-only: nothing to capture, just account for the block.
			pos += p.cfg.BlockSize
		}
	}

	for !w.Empty() {
		if err := p.drainHead(f, w, &ranges); err != nil {
			return nil, err
		}
	}

	return &Map{
		DevicePath: p.cfg.DevicePath,
		FileSize:   fileSize,
		BlockSize:  p.cfg.BlockSize,
		Ranges:     ranges.Extents(),
	}, nil
}

// drainHead resolves the oldest buffered block, records its physical block
// and, in rewrite mode, persists its plaintext to the raw device.
func (p *Producer) drainHead(f *os.File, w *Window, ranges *RangeList) error {
	logical, buf, err := w.PopFront()
	if err != nil {
		return err
	}
	physical, err := p.cfg.Resolver.Resolve(f, logical)
	if err != nil {
		return err
	}
	ranges.Add(physical)
	if p.cfg.Rewrite {
		offset := int64(physical) * int64(p.cfg.BlockSize)
		if err := p.cfg.Writer.WriteBlock(buf, offset); err != nil {
			return err
		}
	}
	return nil
}

// readBlock fills buf with the next block of f, resuming short reads. The
// final block of a file whose size is not block-aligned is padded with
// zeros so the device never receives leftover bytes from an earlier block.
func (p *Producer) readBlock(f *os.File, buf []byte, remaining uint64) (uint64, error) {
	want := p.cfg.BlockSize
	if remaining < want {
		want = remaining
	}

	var soFar uint64
	for soFar < want {
		n, err := f.Read(buf[soFar:want])
		soFar += uint64(n)
		if err == io.EOF {
			if soFar < want {
				return soFar, fmt.Errorf("file shrank during mapping: %w", io.ErrUnexpectedEOF)
			}
			break
		}
		if err != nil {
			return soFar, fmt.Errorf("failed to read %s: %w", f.Name(), err)
		}
	}

	clear(buf[want:])
	return soFar, nil
}
