package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rtview.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := parseConfig(nil, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseConfig() error = %v", err)
	}
	if cfg != defaultConfig() {
		t.Errorf("cfg = %+v, want defaults %+v", cfg, defaultConfig())
	}
	w, h, err := cfg.capacity()
	if err != nil || w != 1920 || h != 1080 {
		t.Errorf("capacity() = %d, %d, %v; want 1920, 1080, nil", w, h, err)
	}
	if d, err := cfg.pollTimeout(); err != nil || d != time.Second {
		t.Errorf("pollTimeout() = %v, %v; want 1s, nil", d, err)
	}
}

func TestParseConfigFileThenFlags(t *testing.T) {
	path := writeFile(t, `
frames = 10
width = 640
height = 480
capacity = "1024x1024"
backend = "webgpu"
`)
	cfg, err := parseConfig([]string{"-config", path, "-width", "320", "-drag", "4"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseConfig() error = %v", err)
	}
	if cfg.Frames != 10 || cfg.Height != 480 || cfg.Capacity != "1024x1024" || cfg.Backend != "webgpu" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Width != 320 {
		t.Errorf("Width = %v, want the flag value 320", cfg.Width)
	}
	if cfg.Drag != 4 {
		t.Errorf("Drag = %v, want 4", cfg.Drag)
	}
}

func TestParseConfigFlagNotSetKeepsFile(t *testing.T) {
	// A flag left at its default must not reset a file value.
	path := writeFile(t, "frames = 7\n")
	cfg, err := parseConfig([]string{"-config", path}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseConfig() error = %v", err)
	}
	if cfg.Frames != 7 {
		t.Errorf("Frames = %d, want 7", cfg.Frames)
	}
}

func TestParseConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero frames", []string{"-frames", "0"}},
		{"negative width", []string{"-width", "-1"}},
		{"bad capacity", []string{"-capacity", "1024"}},
		{"zero capacity", []string{"-capacity", "0x512"}},
		{"bad timeout", []string{"-poll-timeout", "soon"}},
		{"zero scale", []string{"-scale", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseConfig(tt.args, &bytes.Buffer{}); !errors.Is(err, errBadConfig) {
				t.Errorf("parseConfig(%v) error = %v, want errBadConfig", tt.args, err)
			}
		})
	}
}

func TestParseConfigMissingFile(t *testing.T) {
	_, err := parseConfig([]string{"-config", filepath.Join(t.TempDir(), "none.toml")}, &bytes.Buffer{})
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want a not-exist error", err)
	}
}

func TestDumpConfigRoundTrip(t *testing.T) {
	cfg, err := parseConfig([]string{"-dump-config", "-frames", "3", "-capacity", "256x128"}, &bytes.Buffer{})
	if !errors.Is(err, errDumpConfig) {
		t.Fatalf("error = %v, want errDumpConfig", err)
	}
	var buf bytes.Buffer
	if err := cfg.writeTOML(&buf); err != nil {
		t.Fatalf("writeTOML() error = %v", err)
	}
	if !strings.Contains(buf.String(), `capacity = "256x128"`) {
		t.Errorf("dump lacks capacity:\n%s", buf.String())
	}

	path := writeFile(t, buf.String())
	back, err := parseConfig([]string{"-config", path}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseConfig(dump) error = %v", err)
	}
	if back != cfg {
		t.Errorf("round trip = %+v, want %+v", back, cfg)
	}
}
