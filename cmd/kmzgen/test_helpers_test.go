package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kmzgen/internal/config"
	"kmzgen/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	cfg.Export.ConverterBin = writeStubConverter(t)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeStubConverter installs a shell script that mimics the toolkit by
// writing a placeholder artifact to the --output path.
func writeStubConverter(t *testing.T) string {
	t.Helper()
	script := `#!/bin/sh
out=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "--output" ]; then out="$arg"; fi
  prev="$arg"
done
if [ -z "$out" ]; then
  echo "missing --output" >&2
  exit 2
fi
printf 'PK stub kmz' > "$out"
`
	path := filepath.Join(t.TempDir(), "layer2kml")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub converter: %v", err)
	}
	return path
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
layer_dir = %q
scratch_dir = %q
publish_dir = %q
log_dir = %q

[export]
converter_bin = %q
timeout_seconds = 30

[notifications]
smtp_host = %q
from = %q
to = [%s]
`,
		cfg.Paths.LayerDir,
		cfg.Paths.ScratchDir,
		cfg.Paths.PublishDir,
		cfg.Paths.LogDir,
		cfg.Export.ConverterBin,
		cfg.Notifications.SMTPHost,
		cfg.Notifications.From,
		quoteList(cfg.Notifications.To),
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func quoteList(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, fmt.Sprintf("%q", v))
	}
	return strings.Join(quoted, ", ")
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
