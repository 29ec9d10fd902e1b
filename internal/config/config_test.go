package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "http://localhost:5000" {
		t.Fatalf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.RequestTimeout() != 10*time.Second || cfg.UploadTimeout() != 30*time.Second {
		t.Fatalf("timeouts = %v / %v", cfg.RequestTimeout(), cfg.UploadTimeout())
	}
	if cfg.MaxFileSizeBytes != 10<<20 {
		t.Fatalf("MaxFileSizeBytes = %d", cfg.MaxFileSizeBytes)
	}
	if cfg.Storage != "file" {
		t.Fatalf("Storage = %q", cfg.Storage)
	}
}

func TestLoadFileOverridesAndClamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	body := "base_url: https://docs.example.com/\n" +
		"request_timeout_seconds: 3\n" +
		"max_file_size_bytes: -1\n" +
		"allowed_extensions: [\".TXT\", \"pdf\"]\n" +
		"storage: bogus\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "https://docs.example.com" {
		t.Fatalf("BaseURL = %q, want trailing slash trimmed", cfg.BaseURL)
	}
	if cfg.RequestTimeout() != 3*time.Second {
		t.Fatalf("RequestTimeout = %v", cfg.RequestTimeout())
	}
	if cfg.MaxFileSizeBytes != 10<<20 {
		t.Fatalf("negative size not clamped: %d", cfg.MaxFileSizeBytes)
	}
	if cfg.AllowedExtensions[0] != "txt" || cfg.AllowedExtensions[1] != "pdf" {
		t.Fatalf("extensions not normalized: %v", cfg.AllowedExtensions)
	}
	if cfg.Storage != "file" {
		t.Fatalf("unknown storage not clamped: %q", cfg.Storage)
	}
}

func TestLoadEnvOverlayWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("base_url: http://from-file:5000\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("DOCCHAT_BASE_URL", "http://from-env:5000")
	t.Setenv("DOCCHAT_ALLOWED_EXTENSIONS", "txt,pdf")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "http://from-env:5000" {
		t.Fatalf("BaseURL = %q, want env value", cfg.BaseURL)
	}
	if len(cfg.AllowedExtensions) != 2 {
		t.Fatalf("AllowedExtensions = %v", cfg.AllowedExtensions)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")
	cfg := DefaultConfig()
	cfg.BaseURL = "http://roundtrip:5000"
	if err := Save(cfg, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.BaseURL != cfg.BaseURL {
		t.Fatalf("BaseURL = %q, want %q", loaded.BaseURL, cfg.BaseURL)
	}
}
