package cliconfig

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/bft-labs/labship/pkg/archive"
	"github.com/bft-labs/labship/pkg/protocol"
	"github.com/bft-labs/labship/pkg/routing"
	"github.com/bft-labs/labship/pkg/server"
	"github.com/bft-labs/labship/pkg/watcher"
)

// ServerConfig holds CLI configuration for labship-server.
type ServerConfig struct {
	Port     int
	Listen   string
	DataRoot string

	Framing   protocol.Framing
	IOTimeout time.Duration

	LogLevel string
	LogFile  string

	// Routes and GroupIDs come from the config file only. Empty means the
	// built-in table.
	Routes   []routing.Route
	GroupIDs []string
}

// DefaultServerConfig returns a ServerConfig with default values.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		DataRoot:  server.DefaultDataRoot,
		IOTimeout: 5 * time.Minute,
		LogLevel:  "info",
	}
}

// Validate checks the configuration for errors.
func (c *ServerConfig) Validate() error {
	if err := validPort(c.Port); err != nil {
		return err
	}
	if c.DataRoot == "" {
		return fmt.Errorf("data-root is required")
	}
	if c.IOTimeout < 0 {
		return fmt.Errorf("io timeout must not be negative")
	}
	if _, err := c.Table(); err != nil {
		return err
	}
	return nil
}

// ListenAddr returns host:port for net.Listen.
func (c ServerConfig) ListenAddr() string {
	return net.JoinHostPort(c.Listen, strconv.Itoa(c.Port))
}

// Table builds the routing table from the configured routes and groups,
// falling back to the defaults for whichever is empty.
func (c ServerConfig) Table() (*routing.Table, error) {
	routes, groups := c.Routes, c.GroupIDs
	if len(routes) == 0 {
		routes = routing.DefaultRoutes
	}
	if len(groups) == 0 {
		groups = routing.DefaultGroups
	}
	t, err := routing.NewTable(routes, groups)
	if err != nil {
		return nil, fmt.Errorf("routing table: %w", err)
	}
	return t, nil
}

// Server converts to the library configuration.
func (c ServerConfig) Server() server.Config {
	return server.Config{
		ListenAddr: c.ListenAddr(),
		DataRoot:   c.DataRoot,
		Framing:    c.Framing,
		IOTimeout:  c.IOTimeout,
	}
}

// WatcherConfig holds CLI configuration for labship-watcher.
type WatcherConfig struct {
	Host    string
	Port    int
	Sources []string

	Extension     string
	PollInterval  time.Duration
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	DialTimeout   time.Duration
	IOTimeout     time.Duration
	FlushDelay    time.Duration

	Framing       protocol.Framing
	MaxRejections int
	StateDir      string
	Notify        bool
	Once          bool

	// ArchiveHighMB and ArchiveLowMB are the Archives/ watermarks in
	// MiB. Zero high disables pruning.
	ArchiveHighMB int
	ArchiveLowMB  int

	LogLevel string
	LogFile  string
}

// DefaultWatcherConfig returns a WatcherConfig with default values.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		Extension:     watcher.DefaultExtension,
		PollInterval:  watcher.DefaultPollInterval,
		RetryDelay:    watcher.DefaultRetryDelay,
		MaxRetryDelay: watcher.DefaultMaxRetryDelay,
		DialTimeout:   watcher.DefaultDialTimeout,
		IOTimeout:     watcher.DefaultIOTimeout,
		FlushDelay:    protocol.DefaultFlushDelay,
		MaxRejections: watcher.DefaultMaxRejections,
		LogLevel:      "info",
	}
}

// Validate checks the configuration for errors.
func (c *WatcherConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if err := validPort(c.Port); err != nil {
		return err
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one --source directory is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("dial timeout must be positive")
	}
	if c.RetryDelay < 0 || c.IOTimeout < 0 || c.FlushDelay < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if c.MaxRetryDelay < c.RetryDelay {
		c.MaxRetryDelay = c.RetryDelay
	}
	if c.MaxRejections < 0 {
		return fmt.Errorf("max rejections must not be negative")
	}
	if err := c.retention().Validate(); err != nil {
		return err
	}
	return nil
}

// Addr returns the server's host:port.
func (c WatcherConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Watcher converts to the library configuration.
func (c WatcherConfig) Watcher() watcher.Config {
	return watcher.Config{
		Sources:       append([]string(nil), c.Sources...),
		Addr:          c.Addr(),
		Extension:     c.Extension,
		PollInterval:  c.PollInterval,
		DialTimeout:   c.DialTimeout,
		IOTimeout:     c.IOTimeout,
		FlushDelay:    c.FlushDelay,
		RetryDelay:    c.RetryDelay,
		MaxRetryDelay: c.MaxRetryDelay,
		Framing:       c.Framing,
		MaxRejections: c.MaxRejections,
		StateDir:      c.StateDir,
		Notify:        c.Notify,
		Once:          c.Once,
		Retention:     c.retention(),
	}
}

func (c WatcherConfig) retention() archive.Retention {
	return archive.Retention{
		HighWatermark: int64(c.ArchiveHighMB) << 20,
		LowWatermark:  int64(c.ArchiveLowMB) << 20,
	}
}

func validPort(p int) error {
	if p <= 0 || p > 65535 {
		return fmt.Errorf("port must be in 1..65535, got %d", p)
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStringPtr sets a string from a pointer, empty included.
func (s *configSetter) setStringPtr(flag string, value *string, dst *string) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setStrings replaces a list if the new one is non-empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = append([]string(nil), value...)
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setIntPtr sets an int from a pointer, zero included.
func (s *configSetter) setIntPtr(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
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

// setFraming parses and sets a framing name if not empty and flag not changed.
func (s *configSetter) setFraming(flag, value string, dst *protocol.Framing) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := protocol.ParseFraming(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = f
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Zero is applied only when allowZero is set.
func (s *configSetter) setIntFromString(flag, value string, dst *int, allowZero bool) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i < 0 || (i == 0 && !allowZero) {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
