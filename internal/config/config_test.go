package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	raw := "max_parts: 3\ncontent_concurrency: 8\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxParts != 3 {
		t.Fatalf("MaxParts = %d, want 3", cfg.MaxParts)
	}
	if cfg.ContentConcurrency != 8 {
		t.Fatalf("ContentConcurrency = %d, want 8", cfg.ContentConcurrency)
	}
	// untouched keys keep defaults
	if cfg.MinParts != Default().MinParts {
		t.Fatalf("MinParts = %d, want default", cfg.MinParts)
	}
}

func TestLoadRejectsInvertedBounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	raw := "min_parts: 5\nmax_parts: 2\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for min > max")
	}
}
