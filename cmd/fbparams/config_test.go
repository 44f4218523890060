package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("log_level: debug\nlog_format: json\nserver_address: 0.0.0.0:9000\nfile_identifier: PRMS\nno_mmap: true\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" || cfg.ServerAddress != "0.0.0.0:9000" || cfg.FileIdentifier != "PRMS" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.NoMmap == nil || !*cfg.NoMmap {
		t.Fatalf("no_mmap not parsed: %+v", cfg.NoMmap)
	}

	missing, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("missing config should not error: %v", err)
	}
	if missing != (Config{}) {
		t.Fatalf("missing config should be zero, got %+v", missing)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("log_level: [unterminated"), 0o644); err != nil {
		t.Fatalf("write bad config: %v", err)
	}
	if _, err := LoadConfig(bad); err == nil {
		t.Fatalf("malformed yaml should error")
	}
}
