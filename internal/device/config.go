package device

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the settings used to locate a ReFS volume inside an image or device
type Config struct {
	// PartitionIndex selects a partition (1-based) of a full-disk image; 0 means none
	PartitionIndex int `mapstructure:"partition"`

	// AutoDetectPartition scans the partition table when no volume starts at offset zero
	AutoDetectPartition bool `mapstructure:"auto_detect_partition"`

	// VolumeOffset is the byte offset of the volume, overriding partition selection when non-zero
	VolumeOffset int64 `mapstructure:"offset"`

	OutputFormat string `mapstructure:"output"`
	LogFormat    string `mapstructure:"log_format"`
}

// DefaultConfig returns the settings used when no config file or environment overrides exist
func DefaultConfig() *Config {
	return &Config{AutoDetectPartition: true, OutputFormat: "table", LogFormat: "text"}
}

// LoadConfig reads refs-config.yaml (or configFile when set), REFS_* environment variables and any flags
// already bound to the global viper instance
func LoadConfig(configFile string) (*Config, error) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("refs-config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("$HOME/.refs")
		viper.AddConfigPath("/etc/refs")
	}

	defaults := DefaultConfig()
	viper.SetDefault("partition", defaults.PartitionIndex)
	viper.SetDefault("auto_detect_partition", defaults.AutoDetectPartition)
	viper.SetDefault("offset", defaults.VolumeOffset)
	viper.SetDefault("output", defaults.OutputFormat)
	viper.SetDefault("log_format", defaults.LogFormat)

	viper.SetEnvPrefix("REFS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if config.PartitionIndex < 0 {
		return nil, fmt.Errorf("invalid partition index %d", config.PartitionIndex)
	}
	if config.VolumeOffset < 0 {
		return nil, fmt.Errorf("invalid volume offset %d", config.VolumeOffset)
	}

	return &config, nil
}
