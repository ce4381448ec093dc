package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/spf13/viper"
)

// DefaultOtherLabel collects every non-positive class in a binary split
const DefaultOtherLabel = "etc"

// ErrInvalidRatio is returned when a split ratio falls outside [0, 1]
var ErrInvalidRatio = errors.New("ratio must be between 0.0 and 1.0")

// Config holds settings shared by all commands. Command-line flags override
// values read from the config file, which override the defaults below.
type Config struct {
	Ratio         float64 `mapstructure:"ratio"`
	Seed          int64   `mapstructure:"seed"`
	HasSeed       bool    `mapstructure:"-"`
	PositiveClass string  `mapstructure:"positive_class"`
	OtherLabel    string  `mapstructure:"other_label"`
	TrainDir      string  `mapstructure:"train_dir"`
	TestDir       string  `mapstructure:"test_dir"`
	Database      string  `mapstructure:"database"`
	Progress      bool    `mapstructure:"progress"`
	LogFile       string  `mapstructure:"log_file"`
}

// NewDefaultConfig returns the built-in defaults
func NewDefaultConfig() *Config {
	return &Config{
		Ratio:      0.2,
		OtherLabel: DefaultOtherLabel,
		TrainDir:   "Train",
		TestDir:    "Test",
		Progress:   true,
		LogFile:    "datasetprep.log",
	}
}

// LoadConfig reads a YAML config file on top of the defaults.
// An empty path returns the defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("ratio", cfg.Ratio)
	v.SetDefault("other_label", cfg.OtherLabel)
	v.SetDefault("train_dir", cfg.TrainDir)
	v.SetDefault("test_dir", cfg.TestDir)
	v.SetDefault("progress", cfg.Progress)
	v.SetDefault("log_file", cfg.LogFile)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.HasSeed = v.IsSet("seed")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the settings
func (c *Config) Validate() error {
	if err := ValidateRatio(c.Ratio); err != nil {
		return err
	}
	if c.TrainDir == "" || c.TestDir == "" {
		return fmt.Errorf("train_dir and test_dir must not be empty")
	}
	if c.TrainDir == c.TestDir {
		return fmt.Errorf("train_dir and test_dir must differ (both %q)", c.TrainDir)
	}
	if c.PositiveClass != "" && c.OtherLabel == "" {
		return fmt.Errorf("other_label is required when positive_class is set")
	}
	return nil
}

// ValidateRatio checks that ratio lies in [0, 1]
func ValidateRatio(ratio float64) error {
	if ratio < 0.0 || ratio > 1.0 || math.IsNaN(ratio) {
		return fmt.Errorf("%w (got %v)", ErrInvalidRatio, ratio)
	}
	return nil
}
