// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/avelagg/stickerforge/internal/profile"
)

// ErrInvalidAnimatedPolicy is returned when ANIMATED_POLICY is not a
// known value.
var ErrInvalidAnimatedPolicy = errors.New(`config: ANIMATED_POLICY must be "flatten" or "keep-motion"`)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// Codec tool settings
	FFmpegPath          string `env:"FFMPEG_PATH" json:"ffmpeg_path,omitempty"`
	FFprobePath         string `env:"FFPROBE_PATH" json:"ffprobe_path,omitempty"`
	TranscodeTimeoutSec int    `env:"TRANSCODE_TIMEOUT_SEC, default=60" json:"transcode_timeout_sec"`

	// Storage settings
	TempDir string `env:"TEMP_DIR, default=/tmp/stickerforge" json:"temp_dir"`

	// Processing settings
	MaxConcurrentJobs int    `env:"MAX_CONCURRENT_JOBS, default=4" json:"max_concurrent_jobs"`
	AnimatedPolicy    string `env:"ANIMATED_POLICY, default=flatten" json:"animated_policy"`

	// Access control: comma-separated API keys. Empty leaves the API open.
	APIKeys []string `env:"API_KEYS" json:"-"` // Masked in JSON

	// Optional S3 settings for publishing converted assets
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// TranscodeTimeout returns the per-invocation codec timeout.
func (c *Config) TranscodeTimeout() time.Duration {
	return time.Duration(c.TranscodeTimeoutSec) * time.Second
}

// Animated returns the validated animated-image policy.
func (c *Config) Animated() profile.AnimatedPolicy {
	return profile.AnimatedPolicy(strings.ToLower(c.AnimatedPolicy))
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks derived constraints the env tags cannot express.
func (c *Config) Validate() error {
	if !c.Animated().IsValid() {
		return ErrInvalidAnimatedPolicy
	}
	if c.TranscodeTimeoutSec <= 0 {
		return errors.New("config: TRANSCODE_TIMEOUT_SEC must be positive")
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive
// values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, TempDir: %s, MaxConcurrentJobs: %d, AnimatedPolicy: %s, APIKeys: %d configured, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.TempDir,
		c.MaxConcurrentJobs,
		c.AnimatedPolicy,
		len(c.APIKeys),
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
