// Package cliconfig loads fcode-chan configuration with the precedence
// flags > environment (FCODE_*) > config file > defaults.
package cliconfig

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Config holds the CLI configuration shared by every subcommand.
type Config struct {
	// SocketPath is the worker's command socket.
	SocketPath string

	// AdmissionLimit caps concurrently in-flight commands.
	AdmissionLimit int

	// MaxFrameBytes caps a single frame (correlation id + payload).
	MaxFrameBytes int

	// DialTimeout bounds one connect attempt.
	DialTimeout time.Duration

	// ReadyTimeout bounds the readiness wait before dialing.
	ReadyTimeout time.Duration

	// PollInterval is the readiness probe spacing.
	PollInterval time.Duration

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AdmissionLimit: 1024,
		MaxFrameBytes:  1 << 20,
		DialTimeout:    3 * time.Second,
		ReadyTimeout:   10 * time.Second,
		PollInterval:   25 * time.Millisecond,
		LogLevel:       "info",
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.SocketPath == "" {
		return fmt.Errorf("socket path is required")
	}
	if c.AdmissionLimit <= 0 {
		return fmt.Errorf("admission limit must be positive")
	}
	if c.MaxFrameBytes <= 0 {
		return fmt.Errorf("max frame bytes must be positive")
	}
	if c.ReadyTimeout <= 0 {
		return fmt.Errorf("ready timeout must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	return nil
}

// Logger builds the CLI's console logger at the configured level.
func (c *Config) Logger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// configSetter applies configuration values while respecting flag
// precedence: a value is only applied when the corresponding flag was not
// explicitly set on the command line.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}
