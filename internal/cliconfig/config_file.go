package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML
// friendly.
type FileConfig struct {
	SocketPath     string `toml:"socket_path"`
	AdmissionLimit int    `toml:"admission_limit"`
	MaxFrameBytes  int    `toml:"max_frame_bytes"`
	DialTimeout    string `toml:"dial_timeout"`
	ReadyTimeout   string `toml:"ready_timeout"`
	PollInterval   string `toml:"poll_interval"`
	LogLevel       string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path,
// ~/.fcode/channel.toml, or "" if the home directory is not accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".fcode", "channel.toml")
	}
	return ""
}

// ApplyFileConfig applies file values to cfg, skipping any field whose flag
// was explicitly set.
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("socket", fc.SocketPath, &cfg.SocketPath)
	s.setInt("admission-limit", fc.AdmissionLimit, &cfg.AdmissionLimit)
	s.setInt("max-frame-bytes", fc.MaxFrameBytes, &cfg.MaxFrameBytes)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("dial-timeout", fc.DialTimeout, &cfg.DialTimeout); err != nil {
		return err
	}
	if err := s.setDuration("ready-timeout", fc.ReadyTimeout, &cfg.ReadyTimeout); err != nil {
		return err
	}
	return s.setDuration("poll-interval", fc.PollInterval, &cfg.PollInterval)
}
