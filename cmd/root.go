package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var errUsage = errors.New("usage: blockmap [<transform_path> <map_file>]")

var rootCmd = &cobra.Command{
	Use:   "blockmap [<transform_path> <map_file>]",
	Short: "Map a file to its physical blocks for raw-device reads",
	Long: `blockmap takes a file on a block-based filesystem and produces a list of
the physical blocks that file occupies, so recovery can read the file
straight off the block device without mounting the filesystem.

If the device is transparently encrypted, the file's plaintext is also
rewritten onto the same blocks of the raw device, so no decryption key is
needed later.

With no arguments the input file is taken from the recovery command file,
the map is written to its well-known location, and the host is rebooted
into recovery. With two arguments the given file is mapped to the given
map file and nothing else happens; this form is for debugging.`,
	Version: "0.1.0-dev",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return errUsage
		}
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProduce(args)
	},
}

// Execute runs the root command, mapping failures to the process exit
// codes recovery tooling expects: 0 success, 1 failed run, 2 bad usage.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Flag misuse is a usage error like a bad argument count, so tag
	// cobra's parse failures with the same sentinel Execute maps to exit 2.
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})
}
