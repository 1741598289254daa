package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]zerolog.Level{
		"":      zerolog.InfoLevel,
		"debug": zerolog.DebugLevel,
		"WARN":  zerolog.WarnLevel,
	} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("chatty"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLogger_WritesFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "watcher.log")
	logger, closer, err := Logger("info", p)
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug().Msg("hidden")
	logger.Info().Str("file", "Sample_GLMXC_NGS.csv").Msg("file sent")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	out := string(b)
	if !strings.Contains(out, `"file":"Sample_GLMXC_NGS.csv"`) || !strings.Contains(out, "file sent") {
		t.Errorf("log file = %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Error("debug line written at info level")
	}
}
