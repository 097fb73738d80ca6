package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeExport()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LayerDir, err = expandPath(c.Paths.LayerDir); err != nil {
		return fmt.Errorf("paths.layer_dir: %w", err)
	}
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	if c.Paths.PublishDir, err = expandPath(c.Paths.PublishDir); err != nil {
		return fmt.Errorf("paths.publish_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeExport() {
	c.Export.ConverterBin = strings.TrimSpace(c.Export.ConverterBin)
	if c.Export.ConverterBin == "" {
		c.Export.ConverterBin = defaultConverterBin
	}
	c.Export.Format = strings.TrimSpace(c.Export.Format)
	if c.Export.Format == "" {
		c.Export.Format = defaultExportFormat
	}
	c.Export.Extent = strings.TrimSpace(c.Export.Extent)
	c.Export.AltitudeMode = strings.TrimSpace(c.Export.AltitudeMode)
	if c.Export.AltitudeMode == "" {
		c.Export.AltitudeMode = defaultAltitudeMode
	}
	if c.Export.ImageSize <= 0 {
		c.Export.ImageSize = defaultImageSize
	}
	if c.Export.DPI <= 0 {
		c.Export.DPI = defaultDPI
	}
	if c.Export.TimeoutSeconds <= 0 {
		c.Export.TimeoutSeconds = defaultExportTimeout
	}
	c.Export.DataSource = strings.TrimSpace(c.Export.DataSource)
}

func (c *Config) normalizeNotifications() {
	n := &c.Notifications
	n.SMTPHost = strings.TrimSpace(n.SMTPHost)
	if n.SMTPHost == "" {
		if value, ok := os.LookupEnv("KMZGEN_SMTP_HOST"); ok {
			n.SMTPHost = strings.TrimSpace(value)
		}
	}
	if n.SMTPPort <= 0 {
		n.SMTPPort = defaultSMTPPort
	}
	if n.TimeoutSeconds <= 0 {
		n.TimeoutSeconds = defaultNotifyTimeout
	}
	n.From = strings.TrimSpace(n.From)
	n.SubjectPrefix = strings.TrimSpace(n.SubjectPrefix)
	if n.SubjectPrefix == "" {
		n.SubjectPrefix = defaultSubjectPrefix
	}
	n.To = trimAll(n.To)
	n.CC = trimAll(n.CC)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func trimAll(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
