package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Staging.RetentionDays < 0 {
		return errors.New("staging.retention_days must not be negative")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LayerDir) == "" {
		return errors.New("paths.layer_dir must be set")
	}
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		return errors.New("paths.scratch_dir must be set")
	}
	if strings.TrimSpace(c.Paths.PublishDir) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/kmzgen/config.toml"
		}
		return fmt.Errorf("paths.publish_dir is required. Edit %s (create with 'kmzgen config init')", defaultPath)
	}
	if c.Paths.ScratchDir == c.Paths.PublishDir {
		return errors.New("paths.scratch_dir and paths.publish_dir must differ")
	}
	return nil
}

func (c *Config) validateExport() error {
	if err := ensurePositiveMap(map[string]int{
		"export.image_size":      c.Export.ImageSize,
		"export.dpi":             c.Export.DPI,
		"export.timeout_seconds": c.Export.TimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Export.Simplification < 0 {
		return errors.New("export.simplification must not be negative")
	}
	if c.Export.Extent != "" && len(strings.Fields(c.Export.Extent)) != 4 {
		return errors.New("export.extent must contain four coordinates: minx miny maxx maxy")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if !c.NotificationsEnabled() {
		return nil
	}
	if c.Notifications.From == "" {
		return errors.New("notifications.from must be set when notifications.smtp_host is configured")
	}
	if len(c.Notifications.To) == 0 {
		return errors.New("notifications.to must list at least one recipient when notifications.smtp_host is configured")
	}
	if c.Notifications.SMTPPort <= 0 || c.Notifications.SMTPPort > 65535 {
		return errors.New("notifications.smtp_port must be a valid TCP port")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be greater than zero", key)
		}
	}
	return nil
}
