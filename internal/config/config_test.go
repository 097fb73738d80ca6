package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kmzgen/internal/config"
)

func validBase(t *testing.T) config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LayerDir = filepath.Join(base, "layerfiles")
	cfg.Paths.ScratchDir = filepath.Join(base, "exports")
	cfg.Paths.PublishDir = filepath.Join(base, "publish")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	return cfg
}

func TestDefaultValidatesWithPublishDir(t *testing.T) {
	cfg := validBase(t)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRequiresPublishDir(t *testing.T) {
	cfg := validBase(t)
	cfg.Paths.PublishDir = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "publish_dir") {
		t.Fatalf("expected publish_dir error, got %v", err)
	}
}

func TestValidateRejectsSharedScratchAndPublish(t *testing.T) {
	cfg := validBase(t)
	cfg.Paths.ScratchDir = cfg.Paths.PublishDir
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when scratch and publish dirs collide")
	}
}

func TestValidateRejectsMalformedExtent(t *testing.T) {
	cfg := validBase(t)
	cfg.Export.Extent = "1 2 3"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "extent") {
		t.Fatalf("expected extent error, got %v", err)
	}
}

func TestValidateNotificationsRequireRecipients(t *testing.T) {
	cfg := validBase(t)
	cfg.Notifications.SMTPHost = "smtp.example.gov"
	cfg.Notifications.From = "noreply@example.gov"
	cfg.Notifications.To = nil
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "notifications.to") {
		t.Fatalf("expected recipient error, got %v", err)
	}
}

func TestValidateRejectsUnknownLogFormat(t *testing.T) {
	cfg := validBase(t)
	cfg.Logging.Format = "yaml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log format")
	}
}

func TestLoadParsesTOMLAndExpandsPaths(t *testing.T) {
	base := t.TempDir()
	cfgPath := filepath.Join(base, "config.toml")
	content := `
[paths]
layer_dir = "` + filepath.Join(base, "layerfiles") + `"
scratch_dir = "` + filepath.Join(base, "exports") + `"
publish_dir = "` + filepath.Join(base, "publish") + `"
log_dir = "` + filepath.Join(base, "logs") + `"

[export]
converter_bin = "kmzconv"
timeout_seconds = 120

[notifications]
smtp_host = "smtp.example.gov"
from = "noreply@example.gov"
to = ["gis@example.gov", "  "]
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if resolved != cfgPath {
		t.Fatalf("resolved path = %q, want %q", resolved, cfgPath)
	}
	if cfg.Export.ConverterBin != "kmzconv" {
		t.Fatalf("converter_bin = %q", cfg.Export.ConverterBin)
	}
	if cfg.Export.TimeoutSeconds != 120 {
		t.Fatalf("timeout_seconds = %d", cfg.Export.TimeoutSeconds)
	}
	if len(cfg.Notifications.To) != 1 || cfg.Notifications.To[0] != "gis@example.gov" {
		t.Fatalf("recipients not normalized: %#v", cfg.Notifications.To)
	}
	if !cfg.NotificationsEnabled() {
		t.Fatal("expected notifications to be enabled")
	}
	if cfg.Export.Format != "LIBKML" {
		t.Fatalf("expected default format, got %q", cfg.Export.Format)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	// Defaults alone fail validation because publish_dir is unset.
	missing := filepath.Join(t.TempDir(), "nope.toml")
	_, _, _, err := config.Load(missing)
	if err == nil || !strings.Contains(err.Error(), "publish_dir") {
		t.Fatalf("expected publish_dir validation error, got %v", err)
	}
}

func TestSampleConfigParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(config.SampleConfig()), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
	if cfg.Paths.PublishDir == "" {
		t.Fatal("sample config must set publish_dir")
	}
}
