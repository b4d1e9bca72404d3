// Package config loads player settings from a YAML file, the environment and flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jscyril/soundscape/internal/audio"
	playerrors "github.com/jscyril/soundscape/pkg/errors"
)

// EnvPrefix prefixes every environment override, e.g. SOUNDSCAPE_CHANNELS.
const EnvPrefix = "SOUNDSCAPE"

// Setting keys
const (
	KeyScenesPath = "scenes_path"
	KeyChannels   = "channels"
	KeyMainVolume = "main_volume"
	KeySampleRate = "sample_rate"
	KeyBufferMs   = "buffer_ms"
	KeyCacheTTL   = "cache_ttl"
	KeyLogLevel   = "log_level"
	KeyLogFile    = "log_file"
	KeyWatch      = "watch"
)

// Config holds application configuration
type Config struct {
	ScenesPath string        `mapstructure:"scenes_path"`
	Channels   int           `mapstructure:"channels"`
	MainVolume int           `mapstructure:"main_volume"`
	SampleRate int           `mapstructure:"sample_rate"`
	BufferMs   int           `mapstructure:"buffer_ms"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
	LogLevel   string        `mapstructure:"log_level"`
	LogFile    string        `mapstructure:"log_file"`
	Watch      bool          `mapstructure:"watch"`
}

// Defaults returns default configuration
func Defaults() Config {
	return Config{
		ScenesPath: "config/scenes.yaml",
		Channels:   audio.DefaultChannels,
		MainVolume: 100,
		SampleRate: 44100,
		BufferMs:   100,
		CacheTTL:   10 * time.Minute,
		LogLevel:   "info",
		LogFile:    "",
		Watch:      true,
	}
}

// NewViper returns a viper instance with defaults and environment overrides set.
func NewViper() *viper.Viper {
	v := viper.New()
	d := Defaults()
	v.SetDefault(KeyScenesPath, d.ScenesPath)
	v.SetDefault(KeyChannels, d.Channels)
	v.SetDefault(KeyMainVolume, d.MainVolume)
	v.SetDefault(KeySampleRate, d.SampleRate)
	v.SetDefault(KeyBufferMs, d.BufferMs)
	v.SetDefault(KeyCacheTTL, d.CacheTTL)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogFile, d.LogFile)
	v.SetDefault(KeyWatch, d.Watch)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadEnv reads KEY=value pairs from a dotenv file into the process
// environment. Variables already set win. A missing file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Load reads the settings file at path into v and decodes the result.
// A missing file leaves the defaults in place.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("%w: read settings %s: %v", playerrors.ErrConfigStructure, path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: decode settings: %v", playerrors.ErrConfigStructure, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate clamps the main volume into 0-100 and rejects values the
// audio device cannot be opened with.
func (c *Config) Validate() error {
	c.MainVolume = max(0, min(100, c.MainVolume))
	switch {
	case c.Channels < 1:
		return fmt.Errorf("%w: channels must be at least 1, got %d", playerrors.ErrConfigStructure, c.Channels)
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample_rate must be positive, got %d", playerrors.ErrConfigStructure, c.SampleRate)
	case c.BufferMs <= 0:
		return fmt.Errorf("%w: buffer_ms must be positive, got %d", playerrors.ErrConfigStructure, c.BufferMs)
	case c.CacheTTL < 0:
		return fmt.Errorf("%w: cache_ttl must not be negative", playerrors.ErrConfigStructure)
	}
	if c.ScenesPath == "" {
		c.ScenesPath = Defaults().ScenesPath
	}
	return nil
}

// BeepConfig converts the device settings for the beep backend
func (c *Config) BeepConfig() audio.BeepConfig {
	return audio.BeepConfig{
		SampleRate: c.SampleRate,
		BufferSize: time.Duration(c.BufferMs) * time.Millisecond,
		CacheTTL:   c.CacheTTL,
	}
}

// fileConfig is the on-disk layout written by SaveConfig
type fileConfig struct {
	ScenesPath string `yaml:"scenes_path"`
	Channels   int    `yaml:"channels"`
	MainVolume int    `yaml:"main_volume"`
	SampleRate int    `yaml:"sample_rate"`
	BufferMs   int    `yaml:"buffer_ms"`
	CacheTTL   string `yaml:"cache_ttl"`
	LogLevel   string `yaml:"log_level"`
	LogFile    string `yaml:"log_file"`
	Watch      bool   `yaml:"watch"`
}

// SaveConfig marshals and saves configuration to file
func SaveConfig(config *Config, path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(fileConfig{
		ScenesPath: config.ScenesPath,
		Channels:   config.Channels,
		MainVolume: config.MainVolume,
		SampleRate: config.SampleRate,
		BufferMs:   config.BufferMs,
		CacheTTL:   config.CacheTTL.String(),
		LogLevel:   config.LogLevel,
		LogFile:    config.LogFile,
		Watch:      config.Watch,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the default settings file path
func GetConfigPath() string {
	// Check environment variable first
	if path := os.Getenv(EnvPrefix + "_SETTINGS"); path != "" {
		return path
	}

	// Use XDG config directory if available
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "soundscape", "settings.yaml")
	}

	// Fall back to home directory
	home, err := os.UserHomeDir()
	if err != nil {
		return "./settings.yaml"
	}

	return filepath.Join(home, ".config", "soundscape", "settings.yaml")
}
