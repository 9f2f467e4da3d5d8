package cliconfig

import "os"

// ApplyEnvConfig applies FCODE_* environment variables to cfg. Environment
// values override the file but are overridden by explicit flags.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("socket", os.Getenv("FCODE_SOCKET"), &cfg.SocketPath)
	s.setString("log-level", os.Getenv("FCODE_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setIntFromString("admission-limit", os.Getenv("FCODE_ADMISSION_LIMIT"), &cfg.AdmissionLimit); err != nil {
		return err
	}
	if err := s.setIntFromString("max-frame-bytes", os.Getenv("FCODE_MAX_FRAME_BYTES"), &cfg.MaxFrameBytes); err != nil {
		return err
	}
	if err := s.setDuration("dial-timeout", os.Getenv("FCODE_DIAL_TIMEOUT"), &cfg.DialTimeout); err != nil {
		return err
	}
	if err := s.setDuration("ready-timeout", os.Getenv("FCODE_READY_TIMEOUT"), &cfg.ReadyTimeout); err != nil {
		return err
	}
	return s.setDuration("poll-interval", os.Getenv("FCODE_POLL_INTERVAL"), &cfg.PollInterval)
}
