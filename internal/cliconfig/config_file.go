package cliconfig

import (
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/bft-labs/labship/pkg/routing"
)

// ServerFileConfig mirrors ServerConfig but uses strings for durations to
// make TOML friendly. Routes keep the file's order, which decides
// ambiguous matches.
type ServerFileConfig struct {
	Port      int             `toml:"port"`
	Listen    string          `toml:"listen"`
	DataRoot  string          `toml:"data_root"`
	Framing   string          `toml:"framing"`
	IOTimeout string          `toml:"io_timeout"`
	LogLevel  string          `toml:"log_level"`
	LogFile   string          `toml:"log_file"`
	GroupIDs  []string        `toml:"group_ids"`
	Routes    []routing.Route `toml:"routes"`
}

// WatcherFileConfig mirrors WatcherConfig for TOML.
type WatcherFileConfig struct {
	Host          string   `toml:"host"`
	Port          int      `toml:"port"`
	Sources       []string `toml:"sources"`
	Extension     *string  `toml:"extension"`
	PollInterval  string   `toml:"poll_interval"`
	RetryDelay    string   `toml:"retry_delay"`
	MaxRetryDelay string   `toml:"max_retry_delay"`
	DialTimeout   string   `toml:"dial_timeout"`
	IOTimeout     string   `toml:"io_timeout"`
	FlushDelay    string   `toml:"flush_delay"`
	Framing       string   `toml:"framing"`
	MaxRejections *int     `toml:"max_rejections"`
	StateDir      string   `toml:"state_dir"`
	Notify        *bool    `toml:"notify"`
	Once          *bool    `toml:"once"`
	ArchiveHighMB int      `toml:"archive_high_mb"`
	ArchiveLowMB  int      `toml:"archive_low_mb"`
	LogLevel      string   `toml:"log_level"`
	LogFile       string   `toml:"log_file"`
}

func loadTOML(path string, dst any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return toml.Unmarshal(b, dst)
}

// LoadServerFileConfig reads and parses a server TOML config file.
func LoadServerFileConfig(path string) (ServerFileConfig, error) {
	var fc ServerFileConfig
	err := loadTOML(path, &fc)
	return fc, err
}

// LoadWatcherFileConfig reads and parses a watcher TOML config file.
func LoadWatcherFileConfig(path string) (WatcherFileConfig, error) {
	var fc WatcherFileConfig
	err := loadTOML(path, &fc)
	return fc, err
}

// DefaultConfigPath returns ~/.labship/<name>.toml if the user home
// directory is accessible.
func DefaultConfigPath(name string) string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".labship", name+".toml")
	}
	return ""
}

// ApplyServerFileConfig applies a server config file to cfg.
// It respects flags that have been explicitly set (changed map).
func ApplyServerFileConfig(cfg *ServerConfig, fc ServerFileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setInt("port", fc.Port, &cfg.Port)
	s.setString("listen", fc.Listen, &cfg.Listen)
	s.setString("data-root", fc.DataRoot, &cfg.DataRoot)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-file", fc.LogFile, &cfg.LogFile)

	if err := s.setFraming("framing", fc.Framing, &cfg.Framing); err != nil {
		return err
	}
	if err := s.setDuration("io-timeout", fc.IOTimeout, &cfg.IOTimeout); err != nil {
		return err
	}

	if len(fc.Routes) > 0 {
		cfg.Routes = append([]routing.Route(nil), fc.Routes...)
	}
	if len(fc.GroupIDs) > 0 {
		cfg.GroupIDs = append([]string(nil), fc.GroupIDs...)
	}
	return nil
}

// ApplyWatcherFileConfig applies a watcher config file to cfg.
// It respects flags that have been explicitly set (changed map).
func ApplyWatcherFileConfig(cfg *WatcherConfig, fc WatcherFileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("host", fc.Host, &cfg.Host)
	s.setInt("port", fc.Port, &cfg.Port)
	s.setStrings("source", fc.Sources, &cfg.Sources)
	s.setStringPtr("ext", fc.Extension, &cfg.Extension)
	s.setString("state-dir", fc.StateDir, &cfg.StateDir)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-file", fc.LogFile, &cfg.LogFile)

	for _, d := range []struct {
		flag  string
		value string
		dst   *time.Duration
	}{
		{"poll", fc.PollInterval, &cfg.PollInterval},
		{"retry-delay", fc.RetryDelay, &cfg.RetryDelay},
		{"max-retry-delay", fc.MaxRetryDelay, &cfg.MaxRetryDelay},
		{"dial-timeout", fc.DialTimeout, &cfg.DialTimeout},
		{"io-timeout", fc.IOTimeout, &cfg.IOTimeout},
		{"flush-delay", fc.FlushDelay, &cfg.FlushDelay},
	} {
		if err := s.setDuration(d.flag, d.value, d.dst); err != nil {
			return err
		}
	}
	if err := s.setFraming("framing", fc.Framing, &cfg.Framing); err != nil {
		return err
	}

	s.setIntPtr("max-rejections", fc.MaxRejections, &cfg.MaxRejections)
	s.setBool("notify", fc.Notify, &cfg.Notify)
	s.setBool("once", fc.Once, &cfg.Once)
	s.setInt("archive-high-mb", fc.ArchiveHighMB, &cfg.ArchiveHighMB)
	s.setInt("archive-low-mb", fc.ArchiveLowMB, &cfg.ArchiveLowMB)
	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
