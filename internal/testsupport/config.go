package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"kmzgen/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t   testing.TB
	cfg *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The layer directory is created so discovery succeeds on an empty catalog.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LayerDir = filepath.Join(base, "layerfiles")
	cfg.Paths.ScratchDir = filepath.Join(base, "exports")
	cfg.Paths.PublishDir = filepath.Join(base, "publish")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	if err := os.MkdirAll(cfg.Paths.LayerDir, 0o755); err != nil {
		t.Fatalf("mkdir layer dir: %v", err)
	}

	builder := &configBuilder{t: t, cfg: &cfg}
	for _, opt := range opts {
		opt(builder)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithSMTP enables notifications against the given relay host.
func WithSMTP(host string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.SMTPHost = host
		b.cfg.Notifications.From = "noreply@example.gov"
		b.cfg.Notifications.To = []string{"gis-admins@example.gov"}
	}
}

// WithDefinitions writes placeholder symbology definition files into the
// layer directory.
func WithDefinitions(names ...string) ConfigOption {
	return func(b *configBuilder) {
		for _, name := range names {
			path := filepath.Join(b.cfg.Paths.LayerDir, name+".lyrx")
			if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
				b.t.Fatalf("write definition %s: %v", name, err)
			}
		}
	}
}
