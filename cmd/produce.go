package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/deploymenttheory/go-blockmap/internal/blockmap"
	"github.com/deploymenttheory/go-blockmap/internal/device"
	"github.com/deploymenttheory/go-blockmap/internal/fibmap"
	"github.com/deploymenttheory/go-blockmap/internal/recovery"
)

// runLogf returns a verbose printer bound to one run's correlation id, so
// every line of a run can be grepped out of interleaved output.
func runLogf(runID string) func(string, ...interface{}) {
	return func(format string, args ...interface{}) {
		if verbose {
			fmt.Printf("[%s] "+format, append([]interface{}{runID}, args...)...)
		}
	}
}

// produceFunc maps inputPath into mapFile, reporting whether a map was
// actually produced. runProduction depends on this shape instead of
// produceMap directly so the orchestration can be tested without a real
// filesystem run.
type produceFunc func(inputPath, mapFile string) (bool, error)

// runProduce drives one full run. With two args this is a debugging run:
// explicit input and map paths, no command file rewrite, no reboot. With
// none it is the production flow driven by the recovery command file.
func runProduce(args []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	if len(args) == 2 {
		_, err := produceMap(cfg, args[0], args[1])
		return err
	}

	trigger := &recovery.PowerctlTrigger{Path: cfg.PowerctlPath, Wait: 10 * time.Second}
	cmdFile := &recovery.CommandFile{Path: cfg.CommandFile, MapPath: cfg.BlockMapFile}
	return runProduction(cmdFile, trigger, cfg.BlockMapFile, func(inputPath, mapFile string) (bool, error) {
		return produceMap(cfg, inputPath, mapFile)
	})
}

// runProduction is the production flow: take the update package from the
// recovery command file, map it, point the command file at the map, and
// hand the host over to recovery. The reboot is requested even when
// mapping failed — the host must still reach recovery — but the command
// file is only rewritten after a successful map, so a failed run leaves it
// referencing the original package.
func runProduction(cmdFile *recovery.CommandFile, trigger recovery.Trigger, mapFile string, produce produceFunc) error {
	requestRecovery := func() {
		if err := trigger.RequestRecovery(); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
	}

	inputPath, err := cmdFile.ExtractUpdatePackage()
	if err != nil {
		// Rebooting to recovery without a package (say, to wipe data)
		// needs nothing mapped first.
		cmdFile.Discard()
		requestRecovery()
		return err
	}

	mapped, err := produce(inputPath, mapFile)
	if err == nil && mapped {
		err = cmdFile.Commit()
	} else {
		cmdFile.Discard()
	}
	requestRecovery()
	return err
}

// produceMap maps inputPath into mapFile. It returns false when the file's
// filesystem does not support encryption and is left alone entirely, which
// is not an error.
func produceMap(cfg *Config, inputPath, mapFile string) (bool, error) {
	logf := runLogf(uuid.NewString())
	logf("mapping %s\n", inputPath)

	// Resolve to an absolute path so the mount lookup can match it.
	path, err := filepath.Abs(inputPath)
	if err != nil {
		return false, fmt.Errorf("failed to convert %s to absolute path: %w", inputPath, err)
	}
	path, err = filepath.EvalSymlinks(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve %s: %w", inputPath, err)
	}

	lookup := &device.Lookup{FstabPath: cfg.FstabPath, CryptoStateFile: cfg.CryptoStateFile}
	info, err := lookup.Find(path)
	if err != nil {
		return false, fmt.Errorf("failed to find block device for %s: %w", path, err)
	}
	logf("encryptable: %s\n", yesNo(info.Encryptable))
	logf("  encrypted: %s\n", yesNo(info.Encrypted))

	if !info.Encryptable {
		// The file lives on a filesystem that cannot be encrypted (eg
		// /cache); recovery can read it the normal way, so leave it alone.
		return false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("failed to open %s for reading: %w", path, err)
	}
	defer f.Close()
	if err := f.Sync(); err != nil {
		return false, fmt.Errorf("failed to sync %s: %w", path, err)
	}

	fi, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	fileSize := uint64(fi.Size())

	blockSize, err := fibmap.FileSystemBlockSize(f)
	if err != nil {
		return false, err
	}
	logf(" block size: %d bytes\n", blockSize)
	logf("  file size: %d bytes, %d blocks\n", fileSize, (fileSize+blockSize-1)/blockSize)

	pcfg := blockmap.Config{
		DevicePath: info.BlockDevice,
		BlockSize:  blockSize,
		WindowSize: cfg.WindowSize,
		Rewrite:    info.Encrypted,
		Resolver:   fibmap.IoctlResolver{},
	}
	if info.Encrypted {
		rewriter, err := blockmap.NewDeviceRewriter(info.BlockDevice)
		if err != nil {
			return false, err
		}
		defer rewriter.Close()
		pcfg.Writer = rewriter
	}

	producer, err := blockmap.NewProducer(pcfg)
	if err != nil {
		return false, err
	}
	m, err := producer.Produce(f, fileSize)
	if err != nil {
		return false, err
	}
	if err := m.WriteFile(mapFile); err != nil {
		return false, err
	}
	logf("wrote %d ranges to %s\n", len(m.Ranges), mapFile)
	return true, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
