package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"toml", "config.toml", "width = 32\nthreshold = 2\npager = false\n"},
		{"json", "config.json", `{"width": 32, "threshold": 2, "pager": false}`},
		{"yaml", "config.yaml", "width: 32\nthreshold: 2\npager: false\n"},
		{"autodetect toml", "cansigrc", "width = 32\nthreshold = 2\npager = false\n"},
		{"autodetect json", "cansigrc", `{"width": 32, "threshold": 2, "pager": false}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Width != 32 {
				t.Errorf("Width = %d, want 32", cfg.Width)
			}
			if cfg.Threshold != 2 {
				t.Errorf("Threshold = %d, want 2", cfg.Threshold)
			}
			if cfg.Pager {
				t.Error("Pager = true, want false")
			}
			// Unset fields keep their defaults.
			if cfg.LogLevel != "info" {
				t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
			}
			if cfg.LogFormat != "text" {
				t.Errorf("LogFormat = %q, want text", cfg.LogFormat)
			}
		})
	}
}

func TestLoadPartial(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.toml", "threshold = 6\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Threshold != 6 {
		t.Errorf("Threshold = %d, want 6", cfg.Threshold)
	}
	if cfg.Width != 64 {
		t.Errorf("Width = %d, want default 64", cfg.Width)
	}
	if !cfg.Pager {
		t.Error("Pager = false, want default true")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "none.toml")); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"width too large", "width = 99\n"},
		{"width zero", "width = 0\n"},
		{"threshold zero", "threshold = 0\n"},
		{"bad level", "log_level = \"loud\"\n"},
		{"bad format", "log_format = \"xml\"\n"},
		{"unparseable", "{{{\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, "config.toml", tt.content)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadDefault(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	// No file: plain defaults.
	cfg, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	if cfg.Width != 64 || cfg.Threshold != 4 || !cfg.Pager {
		t.Errorf("defaults = %+v", cfg)
	}

	// Well-known file present: it is read.
	if err := os.MkdirAll(filepath.Join(dir, "cansig"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "cansig", "config.toml"), []byte("threshold = 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	if cfg.Threshold != 7 {
		t.Errorf("Threshold = %d, want 7 from the well-known file", cfg.Threshold)
	}
}

func TestDefaultPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	t.Setenv("XDG_STATE_HOME", "/tmp/xdg-state")

	if got := DefaultPath(); got != filepath.Join("/tmp/xdg-config", "cansig", "config.toml") {
		t.Errorf("DefaultPath() = %q", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/tmp/xdg-state", "cansig", "runs.db") {
		t.Errorf("DefaultDBPath() = %q", got)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_STATE_HOME", "")
	if got := DefaultPath(); !strings.HasSuffix(got, filepath.Join(".config", "cansig", "config.toml")) {
		t.Errorf("DefaultPath() without XDG = %q", got)
	}
	if got := DefaultDBPath(); !strings.HasSuffix(got, filepath.Join(".local", "state", "cansig", "runs.db")) {
		t.Errorf("DefaultDBPath() without XDG = %q", got)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}

	cfg.LogLevel = "warning"
	if err := cfg.Validate(); err != nil {
		t.Errorf("warning is an accepted level alias: %v", err)
	}
}
