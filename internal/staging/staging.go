package staging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"kmzgen/internal/fileutil"
	"kmzgen/internal/logging"
)

// RunDirLayout is the date layout used for per-run scratch directories.
const RunDirLayout = "2006-01-02"

// PrepareRunDir creates a clean scratch directory for the given run date,
// removing any leftover directory from an earlier run on the same day.
func PrepareRunDir(scratchDir string, runDate time.Time) (string, error) {
	scratchDir = strings.TrimSpace(scratchDir)
	if scratchDir == "" {
		return "", fmt.Errorf("scratch directory not configured")
	}
	runDir := filepath.Join(scratchDir, runDate.Format(RunDirLayout))
	if err := fileutil.ClearDir(runDir); err != nil {
		return "", fmt.Errorf("prepare run directory: %w", err)
	}
	return runDir, nil
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStaleResult contains the outcome of a stale directory cleanup pass.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanStale removes dated run directories older than maxAge, measured from
// now, from the scratch area. Non-directory entries and directories that do
// not parse as run dates are left alone.
func CleanStale(scratchDir string, maxAge time.Duration, now time.Time, logger *slog.Logger) CleanStaleResult {
	result := CleanStaleResult{}

	scratchDir = strings.TrimSpace(scratchDir)
	if scratchDir == "" {
		return result
	}

	entries, err := os.ReadDir(scratchDir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: scratchDir, Error: err})
		}
		return result
	}

	cutoff := now.Add(-maxAge)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		runDate, err := time.Parse(RunDirLayout, entry.Name())
		if err != nil {
			continue
		}
		if !runDate.Before(cutoff) {
			continue
		}

		dirPath := filepath.Join(scratchDir, entry.Name())
		if err := os.RemoveAll(dirPath); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			if logger != nil {
				logger.Warn("failed to remove stale run directory",
					logging.String("path", dirPath),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check scratch_dir permissions"),
				)
			}
			continue
		}
		result.Removed = append(result.Removed, dirPath)
		if logger != nil {
			logger.Info("removed stale run directory",
				logging.String("path", dirPath),
				logging.Duration("age", now.Sub(runDate)),
			)
		}
	}

	return result
}
