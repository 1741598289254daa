package cliconfig

import (
	"testing"
	"time"

	"github.com/bft-labs/labship/pkg/protocol"
	"github.com/bft-labs/labship/pkg/routing"
	"github.com/bft-labs/labship/pkg/watcher"
)

func TestDefaultWatcherConfig(t *testing.T) {
	cfg := DefaultWatcherConfig()

	if cfg.PollInterval != 500*time.Millisecond {
		t.Errorf("PollInterval = %v, want 500ms", cfg.PollInterval)
	}
	if cfg.DialTimeout != 2*time.Second {
		t.Errorf("DialTimeout = %v, want 2s", cfg.DialTimeout)
	}
	if cfg.RetryDelay != 10*time.Second {
		t.Errorf("RetryDelay = %v, want 10s", cfg.RetryDelay)
	}
	if cfg.Extension != ".csv" {
		t.Errorf("Extension = %q, want .csv", cfg.Extension)
	}
	if cfg.Framing != protocol.FramingLegacy {
		t.Errorf("Framing = %v, want legacy", cfg.Framing)
	}
}

func TestWatcherConfig_Validate(t *testing.T) {
	valid := func() WatcherConfig {
		c := DefaultWatcherConfig()
		c.Host = "10.0.0.5"
		c.Port = 5005
		c.Sources = []string{`C:\Clarity LIMS\Data\Glomax`}
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*WatcherConfig)
		wantErr bool
	}{
		{"valid", func(*WatcherConfig) {}, false},
		{"missing host", func(c *WatcherConfig) { c.Host = "" }, true},
		{"missing port", func(c *WatcherConfig) { c.Port = 0 }, true},
		{"port out of range", func(c *WatcherConfig) { c.Port = 70000 }, true},
		{"no sources", func(c *WatcherConfig) { c.Sources = nil }, true},
		{"zero poll", func(c *WatcherConfig) { c.PollInterval = 0 }, true},
		{"negative rejections", func(c *WatcherConfig) { c.MaxRejections = -1 }, true},
		{"zero rejections retries forever", func(c *WatcherConfig) { c.MaxRejections = 0 }, false},
		{"archive watermarks", func(c *WatcherConfig) { c.ArchiveHighMB, c.ArchiveLowMB = 100, 50 }, false},
		{"inverted archive watermarks", func(c *WatcherConfig) { c.ArchiveHighMB, c.ArchiveLowMB = 50, 100 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWatcherConfig_ClampsMaxRetryDelay(t *testing.T) {
	c := DefaultWatcherConfig()
	c.Host, c.Port, c.Sources = "h", 1, []string{"/in"}
	c.RetryDelay = time.Hour
	c.MaxRetryDelay = time.Minute
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if c.MaxRetryDelay != time.Hour {
		t.Errorf("MaxRetryDelay = %v, want 1h", c.MaxRetryDelay)
	}
}

func TestWatcherConfig_Watcher(t *testing.T) {
	c := DefaultWatcherConfig()
	c.Host, c.Port, c.Sources = "lims.local", 5005, []string{"/in/a", "/in/b"}
	c.MaxRejections = 0
	c.ArchiveHighMB, c.ArchiveLowMB = 2, 1

	wc := c.Watcher()
	if wc.Retention.HighWatermark != 2<<20 || wc.Retention.LowWatermark != 1<<20 {
		t.Errorf("Retention = %+v", wc.Retention)
	}
	if wc.Addr != "lims.local:5005" {
		t.Errorf("Addr = %q", wc.Addr)
	}
	if wc.MaxRejections != 0 {
		t.Errorf("MaxRejections = %d, want 0", wc.MaxRejections)
	}
	c.Sources[0] = "/mutated"
	if wc.Sources[0] != "/in/a" {
		t.Error("Watcher() must copy Sources")
	}
	if err := wc.Validate(); err != nil {
		t.Errorf("converted config invalid: %v", err)
	}
	if wc.PollInterval != watcher.DefaultPollInterval {
		t.Errorf("PollInterval = %v", wc.PollInterval)
	}
}

func TestServerConfig_Validate(t *testing.T) {
	c := DefaultServerConfig()
	if err := c.Validate(); err == nil {
		t.Error("expected error without port")
	}
	c.Port = 5005
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if c.ListenAddr() != ":5005" {
		t.Errorf("ListenAddr() = %q, want :5005", c.ListenAddr())
	}

	c.Routes = []routing.Route{{Type: "X", SubPath: "/x"}, {Type: "x", SubPath: "/y"}}
	if err := c.Validate(); err == nil {
		t.Error("duplicate route types must fail validation")
	}
}

func TestServerConfig_Table(t *testing.T) {
	c := DefaultServerConfig()
	tbl, err := c.Table()
	if err != nil {
		t.Fatal(err)
	}
	if len(tbl.Routes()) != len(routing.DefaultRoutes) {
		t.Errorf("default table has %d routes", len(tbl.Routes()))
	}

	c.GroupIDs = []string{"CTG"}
	tbl, err = c.Table()
	if err != nil {
		t.Fatal(err)
	}
	if !tbl.ValidGroup("ctg") || tbl.ValidGroup("NGS") {
		t.Errorf("groups = %v, want [CTG]", tbl.Groups())
	}
}

func TestConfigSetter(t *testing.T) {
	s := newConfigSetter(map[string]bool{"port": true})

	port := 1
	s.setInt("port", 9, &port)
	if port != 1 {
		t.Error("changed flag overwritten")
	}

	n := 3
	if err := s.setIntFromString("max-rejections", "0", &n, true); err != nil || n != 0 {
		t.Errorf("allowZero: n = %d, err = %v", n, err)
	}
	n = 3
	if err := s.setIntFromString("iface", "0", &n, false); err != nil || n != 3 {
		t.Errorf("zero without allowZero: n = %d, err = %v", n, err)
	}
	if err := s.setIntFromString("x", "abc", &n, false); err == nil {
		t.Error("expected parse error")
	}

	var f protocol.Framing
	if err := s.setFraming("framing", "length-prefixed", &f); err != nil || f != protocol.FramingLengthPrefixed {
		t.Errorf("framing = %v, err = %v", f, err)
	}
	if err := s.setFraming("framing", "bogus", &f); err == nil {
		t.Error("expected framing parse error")
	}

	ext := ".csv"
	empty := ""
	s.setStringPtr("ext", &empty, &ext)
	if ext != "" {
		t.Errorf("ext = %q, want empty", ext)
	}
}
