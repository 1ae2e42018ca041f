// Package device locates the block device and encryption state behind a
// mounted path, from an fstab-format table.
package device

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoMatchingMount is reported when no fstab entry's mount point is a
// prefix of the looked-up path.
var ErrNoMatchingMount = errors.New("no matching mount for path")

// Info describes the storage behind a mounted path.
type Info struct {
	// BlockDevice is the device node backing the mount.
	BlockDevice string
	// Encryptable reports whether the mount supports transparent
	// encryption at all.
	Encryptable bool
	// Encrypted reports whether the device is encrypted right now.
	Encrypted bool
}

// Lookup resolves paths against an fstab-format table. The current
// encryption state is read from a separate one-line state file, since the
// table only says whether a mount is capable of encryption.
type Lookup struct {
	FstabPath       string
	CryptoStateFile string
}

// Find returns the block device backing path, which must be absolute.
// When mounts nest (/data and /data/media both listed), the entry with the
// longest matching mount point wins, whatever order the table lists them
// in: that is the mount actually holding the file.
func (l *Lookup) Find(path string) (*Info, error) {
	f, err := os.Open(l.FstabPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", l.FstabPath, err)
	}
	defer f.Close()

	var best *fstabEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		entry, ok := parseEntry(scanner.Text())
		if !ok || !mountContains(entry.mountPoint, path) {
			continue
		}
		if best == nil || len(entry.mountPoint) > len(best.mountPoint) {
			match := entry
			best = &match
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", l.FstabPath, err)
	}
	if best == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoMatchingMount, path)
	}

	info := &Info{BlockDevice: best.device}
	if best.encryptable {
		info.Encryptable = true
		info.Encrypted = l.stateEncrypted()
	}
	return info, nil
}

type fstabEntry struct {
	device      string
	mountPoint  string
	encryptable bool
}

// parseEntry splits one fstab line:
//
//	<device> <mount_point> <fs_type> <mount_flags> <fs_mgr_flags>
//
// Lines that are blank, comments, or too short to name a mount point are
// skipped.
func parseEntry(line string) (fstabEntry, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return fstabEntry{}, false
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return fstabEntry{}, false
	}

	entry := fstabEntry{device: fields[0], mountPoint: fields[1]}
	if len(fields) >= 5 {
		for _, flag := range strings.Split(fields[4], ",") {
			if strings.HasPrefix(flag, "encryptable=") || strings.HasPrefix(flag, "forceencrypt=") {
				entry.encryptable = true
			}
		}
	}
	return entry, true
}

// mountContains reports whether path lives under mountPoint. The prefix
// must end on a path boundary so /data does not claim /datastore.
func mountContains(mountPoint, path string) bool {
	if !strings.HasPrefix(path, mountPoint) {
		return false
	}
	rest := path[len(mountPoint):]
	return rest == "" || strings.HasPrefix(rest, "/")
}

// stateEncrypted reads the crypto state file; anything but the literal
// state "encrypted" (including a missing file) counts as not encrypted.
func (l *Lookup) stateEncrypted() bool {
	data, err := os.ReadFile(l.CryptoStateFile)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == "encrypted"
}
