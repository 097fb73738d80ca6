package publish

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"kmzgen/internal/fileutil"
	"kmzgen/internal/logging"
	"kmzgen/internal/services"
)

// Publisher copies staged artifacts into the shared distribution directory.
type Publisher struct {
	publishDir string
	exclude    []string
	verify     bool
	logger     *slog.Logger
}

// New constructs a publisher for the given distribution directory.
func New(publishDir string, exclude []string, verify bool, logger *slog.Logger) *Publisher {
	return &Publisher{
		publishDir: strings.TrimSpace(publishDir),
		exclude:    exclude,
		verify:     verify,
		logger:     logging.NewComponentLogger(logger, "publish"),
	}
}

// Publish replicates the staged run directory into the publish directory,
// overwriting same-named files. There is no atomic swap: a crash mid-copy can
// leave the published set partially updated.
func (p *Publisher) Publish(runDir string, expected []string) (int, error) {
	if p.publishDir == "" {
		return 0, services.Wrap(services.ErrConfiguration, "publish", "copy", "publish directory not configured", nil)
	}
	if err := os.MkdirAll(p.publishDir, 0o755); err != nil {
		return 0, services.Wrap(services.ErrConfiguration, "publish", "copy", fmt.Sprintf("create publish directory %s", p.publishDir), err)
	}

	start := time.Now()
	if err := fileutil.CopyTree(runDir, p.publishDir, p.exclude); err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "publish", "copy", "replicate staged tree", err)
	}

	if p.verify {
		if err := p.verifyPublished(expected, start); err != nil {
			return 0, err
		}
	}

	p.logger.Info("publish complete",
		logging.String("publish_dir", p.publishDir),
		logging.Int("artifacts", len(expected)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return len(expected), nil
}

// verifyPublished confirms every expected artifact landed with a fresh mod
// time. A stale or missing artifact fails the run even though the copy loop
// reported no error.
func (p *Publisher) verifyPublished(expected []string, since time.Time) error {
	// Filesystem timestamps can be coarser than the copy duration.
	since = since.Add(-2 * time.Second)
	for _, name := range expected {
		target := filepath.Join(p.publishDir, name)
		info, err := os.Stat(target)
		if err != nil {
			return services.Wrap(services.ErrValidation, "publish", "verify", fmt.Sprintf("artifact %s missing from publish directory", name), err)
		}
		if info.ModTime().Before(since) {
			return services.Wrap(services.ErrValidation, "publish", "verify",
				fmt.Sprintf("artifact %s was not refreshed (mod time %s)", name, info.ModTime().Format(time.RFC3339)), nil)
		}
	}
	return nil
}
