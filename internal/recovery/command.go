// Package recovery handles the handoff to the recovery environment: the
// recovery command file that names the update package, and the reboot
// request itself.
package recovery

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

const updatePackagePrefix = "--update_package="

// ErrNoUpdatePackage is reported when the command file exists but carries
// no --update_package argument, e.g. a plain wipe-data reboot.
var ErrNoUpdatePackage = errors.New("no update package argument in command file")

// CommandFile rewrites the recovery command file so recovery reads the
// update package through the block map instead of the filesystem.
//
// ExtractUpdatePackage writes the rewritten content to a temporary sibling;
// the original file is only replaced by Commit, after the block map has
// actually been produced. Discard throws the rewrite away, leaving the
// original command file referencing the original package.
type CommandFile struct {
	// Path is the recovery command file.
	Path string
	// MapPath is the block map artifact the rewritten entry points at.
	MapPath string
}

func (c *CommandFile) tmpPath() string {
	return c.Path + ".tmp"
}

// ExtractUpdatePackage returns the update package path named in the
// command file and stages a rewritten copy whose package argument reads
// "@<MapPath>".
func (c *CommandFile) ExtractUpdatePackage() (string, error) {
	in, err := os.Open(c.Path)
	if err != nil {
		return "", fmt.Errorf("failed to open command file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(c.tmpPath())
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", c.tmpPath(), err)
	}
	defer out.Close()

	var packagePath string
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, updatePackagePrefix) {
			packagePath = strings.TrimPrefix(line, updatePackagePrefix)
			line = updatePackagePrefix + "@" + c.MapPath
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", c.tmpPath(), err)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read command file: %w", err)
	}

	if packagePath == "" {
		return "", ErrNoUpdatePackage
	}
	return packagePath, nil
}

// Commit replaces the command file with the staged rewrite.
func (c *CommandFile) Commit() error {
	if err := os.Rename(c.tmpPath(), c.Path); err != nil {
		return fmt.Errorf("failed to update command file: %w", err)
	}
	return nil
}

// Discard removes the staged rewrite, if any.
func (c *CommandFile) Discard() {
	os.Remove(c.tmpPath())
}
