package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the directories the pipeline reads from and writes to.
type Paths struct {
	LayerDir   string `toml:"layer_dir"`
	ScratchDir string `toml:"scratch_dir"`
	PublishDir string `toml:"publish_dir"`
	LogDir     string `toml:"log_dir"`
}

// Export contains settings for the external KMZ conversion toolkit.
type Export struct {
	ConverterBin   string  `toml:"converter_bin"`
	Format         string  `toml:"format"`
	DataSource     string  `toml:"data_source"`
	Extent         string  `toml:"extent"`
	ImageSize      int     `toml:"image_size"`
	DPI            int     `toml:"dpi"`
	AltitudeMode   string  `toml:"altitude_mode"`
	Composite      bool    `toml:"composite"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	Simplification float64 `toml:"simplification"`
}

// Publish contains settings for the shared distribution directory.
type Publish struct {
	ExcludePatterns []string `toml:"exclude_patterns"`
	Verify          bool     `toml:"verify"`
}

// Staging contains scratch directory housekeeping settings.
type Staging struct {
	RetentionDays int `toml:"retention_days"`
}

// Notifications contains the outbound SMTP relay configuration. An empty
// smtp_host disables email delivery.
type Notifications struct {
	SMTPHost       string   `toml:"smtp_host"`
	SMTPPort       int      `toml:"smtp_port"`
	From           string   `toml:"from"`
	To             []string `toml:"to"`
	CC             []string `toml:"cc"`
	SubjectPrefix  string   `toml:"subject_prefix"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for kmzgen.
//
// Configuration sections by subsystem:
//   - Paths: layer definition, scratch, publish, and log directories
//   - Export: external conversion toolkit binary and render parameters
//   - Publish: distribution copy excludes and post-copy verification
//   - Staging: scratch retention housekeeping
//   - Notifications: SMTP relay, sender, and recipients
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Export        Export        `toml:"export"`
	Publish       Publish       `toml:"publish"`
	Staging       Staging       `toml:"staging"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/kmzgen/config.toml")
}

// SampleConfig returns the embedded sample configuration document.
func SampleConfig() string {
	return sampleConfig
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized. The boolean reports whether a
// config file was found at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	_, err = os.Stat(defaultPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return defaultPath, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	return defaultPath, true, nil
}

// EnsureDirectories creates the directories the pipeline owns. The publish
// directory lives on shared network storage and is created best-effort so
// config load does not fail while the share is offline.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ScratchDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.PublishDir) != "" {
		_ = os.MkdirAll(c.Paths.PublishDir, 0o755)
	}
	return nil
}

// NotificationsEnabled reports whether an SMTP relay is configured.
func (c *Config) NotificationsEnabled() bool {
	return strings.TrimSpace(c.Notifications.SMTPHost) != ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath resolves ~ prefixes and returns an absolute path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
