package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadArgumentCountIsUsageError(t *testing.T) {
	rootCmd.SetArgs([]string{"/data/update.zip"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	require.Error(t, err, "a single argument is neither production nor debug usage")
	assert.ErrorIs(t, err, errUsage, "argument count errors must map to the usage exit code")
}

func TestUnknownFlagIsUsageError(t *testing.T) {
	rootCmd.SetArgs([]string{"--no-such-flag"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	require.Error(t, err, "an unknown flag should fail parsing")
	assert.ErrorIs(t, err, errUsage, "flag misuse must map to the usage exit code")
}
