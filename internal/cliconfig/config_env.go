package cliconfig

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by the CLIs.
const EnvPrefix = "LABSHIP_"

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set win over the file. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func env(name string) string { return os.Getenv(EnvPrefix + name) }

// ApplyServerEnvConfig applies LABSHIP_* variables to cfg.
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyServerEnvConfig(cfg *ServerConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	if err := s.setIntFromString("port", env("PORT"), &cfg.Port, false); err != nil {
		return err
	}
	s.setString("listen", env("LISTEN"), &cfg.Listen)
	s.setString("data-root", env("DATA_ROOT"), &cfg.DataRoot)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-file", env("LOG_FILE"), &cfg.LogFile)

	if err := s.setFraming("framing", env("FRAMING"), &cfg.Framing); err != nil {
		return err
	}
	return s.setDuration("io-timeout", env("IO_TIMEOUT"), &cfg.IOTimeout)
}

// ApplyWatcherEnvConfig applies LABSHIP_* variables to cfg.
// LABSHIP_SOURCES is a list separated by the OS path list separator.
func ApplyWatcherEnvConfig(cfg *WatcherConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("host", env("HOST"), &cfg.Host)
	if err := s.setIntFromString("port", env("PORT"), &cfg.Port, false); err != nil {
		return err
	}
	if v := env("SOURCES"); v != "" {
		s.setStrings("source", splitList(v), &cfg.Sources)
	}
	if v, ok := os.LookupEnv(EnvPrefix + "EXT"); ok {
		s.setStringPtr("ext", &v, &cfg.Extension)
	}
	s.setString("state-dir", env("STATE_DIR"), &cfg.StateDir)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-file", env("LOG_FILE"), &cfg.LogFile)

	for _, d := range []struct {
		flag string
		name string
		dst  *time.Duration
	}{
		{"poll", "POLL_INTERVAL", &cfg.PollInterval},
		{"retry-delay", "RETRY_DELAY", &cfg.RetryDelay},
		{"max-retry-delay", "MAX_RETRY_DELAY", &cfg.MaxRetryDelay},
		{"dial-timeout", "DIAL_TIMEOUT", &cfg.DialTimeout},
		{"io-timeout", "IO_TIMEOUT", &cfg.IOTimeout},
		{"flush-delay", "FLUSH_DELAY", &cfg.FlushDelay},
	} {
		if err := s.setDuration(d.flag, env(d.name), d.dst); err != nil {
			return err
		}
	}
	if err := s.setFraming("framing", env("FRAMING"), &cfg.Framing); err != nil {
		return err
	}
	if err := s.setIntFromString("max-rejections", env("MAX_REJECTIONS"), &cfg.MaxRejections, true); err != nil {
		return err
	}
	if err := s.setIntFromString("archive-high-mb", env("ARCHIVE_HIGH_MB"), &cfg.ArchiveHighMB, true); err != nil {
		return err
	}
	if err := s.setIntFromString("archive-low-mb", env("ARCHIVE_LOW_MB"), &cfg.ArchiveLowMB, true); err != nil {
		return err
	}

	s.setBoolFromString("notify", env("NOTIFY"), &cfg.Notify)
	s.setBoolFromString("once", env("ONCE"), &cfg.Once)
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, string(os.PathListSeparator)) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
