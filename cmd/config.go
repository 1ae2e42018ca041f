package cmd

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/deploymenttheory/go-blockmap/internal/blockmap"
)

// Config holds the host-specific paths and tuning a run depends on.
type Config struct {
	FstabPath       string `mapstructure:"fstab_path"`
	CryptoStateFile string `mapstructure:"crypto_state_file"`
	CommandFile     string `mapstructure:"recovery_command_file"`
	BlockMapFile    string `mapstructure:"block_map_file"`
	PowerctlPath    string `mapstructure:"powerctl_path"`
	WindowSize      int    `mapstructure:"window_size"`
}

// LoadConfig loads configuration using Viper.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("blockmap-config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.blockmap")
	viper.AddConfigPath("/etc/blockmap")

	// Set defaults
	viper.SetDefault("fstab_path", "/etc/fstab")
	viper.SetDefault("crypto_state_file", "/metadata/crypto-state")
	viper.SetDefault("recovery_command_file", "/cache/recovery/command")
	viper.SetDefault("block_map_file", "/cache/recovery/block.map")
	viper.SetDefault("powerctl_path", "/dev/powerctl")
	viper.SetDefault("window_size", blockmap.DefaultWindowSize)

	// Allow environment variables
	viper.SetEnvPrefix("BLOCKMAP")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}
