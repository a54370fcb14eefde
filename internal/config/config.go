package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the main configuration structure
type Config struct {
	Compression CompressionConfig `mapstructure:"compression"`
	Tools       ToolsConfig       `mapstructure:"tools"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// CompressionConfig contains defaults for the target-size compression engine
type CompressionConfig struct {
	Image ImageCompressionConfig `mapstructure:"image"`
	Video VideoCompressionConfig `mapstructure:"video"`
}

// ImageCompressionConfig contains iteration caps for image compression
type ImageCompressionConfig struct {
	MaxIterationsByPercent int `mapstructure:"max_iterations_by_percent"`
	MaxIterationsToSize    int `mapstructure:"max_iterations_to_size"`
}

// VideoCompressionConfig contains iteration caps and encoder defaults for video compression
type VideoCompressionConfig struct {
	MaxIterationsByPercent int    `mapstructure:"max_iterations_by_percent"`
	MaxIterationsToSize    int    `mapstructure:"max_iterations_to_size"`
	Preset                 string `mapstructure:"preset"`
}

// ToolsConfig contains names or paths of the external tools
type ToolsConfig struct {
	FFmpeg   string `mapstructure:"ffmpeg"`
	FFprobe  string `mapstructure:"ffprobe"`
	Exiftool string `mapstructure:"exiftool"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// ffmpegPresets are the encoder presets ffmpeg accepts.
var ffmpegPresets = []string{
	"ultrafast", "superfast", "veryfast", "faster", "fast",
	"medium", "slow", "slower", "veryslow",
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Compression: CompressionConfig{
			Image: ImageCompressionConfig{
				MaxIterationsByPercent: 10,
				MaxIterationsToSize:    15,
			},
			Video: VideoCompressionConfig{
				MaxIterationsByPercent: 8,
				MaxIterationsToSize:    10,
				Preset:                 "medium",
			},
		},
		Tools: ToolsConfig{
			FFmpeg:   "ffmpeg",
			FFprobe:  "ffprobe",
			Exiftool: "exiftool",
		},
		Logging: LoggingConfig{
			Level:      "info",
			FilePath:   "",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     30,
			Compress:   true,
		},
	}
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		// Look for config file in current directory and home directory
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.mtool")
		viper.AddConfigPath("/etc/mtool")
	}

	// Enable environment variable support
	viper.SetEnvPrefix("MTOOL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Try to read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	// Unmarshal config
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate and normalize config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Compression.Image.MaxIterationsByPercent <= 0 {
		c.Compression.Image.MaxIterationsByPercent = 10
	}
	if c.Compression.Image.MaxIterationsToSize <= 0 {
		c.Compression.Image.MaxIterationsToSize = 15
	}
	if c.Compression.Video.MaxIterationsByPercent <= 0 {
		c.Compression.Video.MaxIterationsByPercent = 8
	}
	if c.Compression.Video.MaxIterationsToSize <= 0 {
		c.Compression.Video.MaxIterationsToSize = 10
	}

	if c.Compression.Video.Preset == "" {
		c.Compression.Video.Preset = "medium"
	}
	if !IsValidPreset(c.Compression.Video.Preset) {
		return fmt.Errorf("invalid ffmpeg preset: %s (valid: %s)",
			c.Compression.Video.Preset, strings.Join(ffmpegPresets, ", "))
	}

	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = "ffmpeg"
	}
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = "ffprobe"
	}
	if c.Tools.Exiftool == "" {
		c.Tools.Exiftool = "exiftool"
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	return nil
}

// IsValidPreset reports whether name is an ffmpeg preset this tool accepts.
func IsValidPreset(name string) bool {
	for _, p := range ffmpegPresets {
		if p == name {
			return true
		}
	}
	return false
}

// Presets returns the accepted ffmpeg preset names.
func Presets() []string {
	return append([]string(nil), ffmpegPresets...)
}
