package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bft-labs/labship/pkg/protocol"
)

func TestApplyWatcherEnvConfig(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		changed map[string]bool
		check   func(t *testing.T, c WatcherConfig)
		wantErr bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"LABSHIP_HOST":           "lims",
				"LABSHIP_PORT":           "5005",
				"LABSHIP_SOURCES":        strings.Join([]string{"/in/a", " /in/b "}, string(os.PathListSeparator)),
				"LABSHIP_POLL_INTERVAL":  "1s",
				"LABSHIP_MAX_REJECTIONS": "0",
				"LABSHIP_FRAMING":        "length-prefixed",
				"LABSHIP_ONCE":           "true",
			},
			changed: map[string]bool{},
			check: func(t *testing.T, c WatcherConfig) {
				if c.Host != "lims" || c.Port != 5005 {
					t.Errorf("Host/Port = %s/%d", c.Host, c.Port)
				}
				if len(c.Sources) != 2 || c.Sources[1] != "/in/b" {
					t.Errorf("Sources = %q", c.Sources)
				}
				if c.PollInterval != time.Second || c.MaxRejections != 0 || !c.Once {
					t.Errorf("cfg = %+v", c)
				}
				if c.Framing != protocol.FramingLengthPrefixed {
					t.Errorf("Framing = %v", c.Framing)
				}
			},
		},
		{
			name:    "respects changed flags",
			envVars: map[string]string{"LABSHIP_HOST": "env-host"},
			changed: map[string]bool{"host": true},
			check: func(t *testing.T, c WatcherConfig) {
				if c.Host != "" {
					t.Errorf("Host = %q, want untouched", c.Host)
				}
			},
		},
		{
			name:    "returns error for invalid duration",
			envVars: map[string]string{"LABSHIP_RETRY_DELAY": "not-a-duration"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:    "returns error for invalid int",
			envVars: map[string]string{"LABSHIP_PORT": "not-a-number"},
			changed: map[string]bool{},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			cfg := DefaultWatcherConfig()
			err := ApplyWatcherEnvConfig(&cfg, tt.changed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyWatcherEnvConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestApplyServerEnvConfig(t *testing.T) {
	t.Setenv("LABSHIP_PORT", "7000")
	t.Setenv("LABSHIP_DATA_ROOT", "/srv/data")
	t.Setenv("LABSHIP_IO_TIMEOUT", "45s")

	cfg := DefaultServerConfig()
	if err := ApplyServerEnvConfig(&cfg, map[string]bool{"data-root": true}); err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 7000 || cfg.IOTimeout != 45*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.DataRoot == "/srv/data" {
		t.Error("changed flag overwritten by env")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".env")
	if err := os.WriteFile(p, []byte("LABSHIP_TEST_DOTENV_HOST=from-file\nLABSHIP_TEST_DOTENV_PORT=1234\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// Pre-set variables win over the file.
	t.Setenv("LABSHIP_TEST_DOTENV_PORT", "9999")
	// Registered so the value loaded from the file is cleaned up.
	t.Setenv("LABSHIP_TEST_DOTENV_HOST", "")
	os.Unsetenv("LABSHIP_TEST_DOTENV_HOST")

	if err := LoadDotEnv(p); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("LABSHIP_TEST_DOTENV_HOST"); got != "from-file" {
		t.Errorf("HOST = %q, want from-file", got)
	}
	if got := os.Getenv("LABSHIP_TEST_DOTENV_PORT"); got != "9999" {
		t.Errorf("PORT = %q, want 9999", got)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing file should be ignored: %v", err)
	}
}
