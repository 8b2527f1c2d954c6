package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Grid.Width != 512 || cfg.Grid.Height != 512 {
		t.Fatalf("grid = %dx%d, want 512x512", cfg.Grid.Width, cfg.Grid.Height)
	}
	if cfg.Noise.Kernel != "perlin" {
		t.Fatalf("noise kernel = %q, want perlin", cfg.Noise.Kernel)
	}
}

func TestLoadOverrideMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("grid:\n  width: 1024\n  height: 1024\n"), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Grid.Width != 1024 {
		t.Fatalf("grid width = %d, want override 1024", cfg.Grid.Width)
	}
	if cfg.Server.Port != 8642 {
		t.Fatalf("server port = %d, want default 8642 to survive partial override", cfg.Server.Port)
	}
}

func TestLoadMissingOverrideFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Fatal("expected error for missing override file")
	}
}
