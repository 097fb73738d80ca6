package main

import (
	"strings"
	"sync"

	"kmzgen/internal/config"
	"kmzgen/internal/services/layer2kml"
)

type commandContext struct {
	configFlag *string

	configOnce  sync.Once
	config      *config.Config
	configPath  string
	configFound bool
	configErr   error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, found, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.configPath = resolved
		c.configFound = found
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) newConverter(cfg *config.Config) (layer2kml.Converter, error) {
	return layer2kml.New(cfg.Export.ConverterBin, layer2kml.Params{
		Format:       cfg.Export.Format,
		DataSource:   cfg.Export.DataSource,
		Extent:       cfg.Export.Extent,
		ImageSize:    cfg.Export.ImageSize,
		DPI:          cfg.Export.DPI,
		AltitudeMode: cfg.Export.AltitudeMode,
		Composite:    cfg.Export.Composite,
		Simplify:     cfg.Export.Simplification,
	}, cfg.Export.TimeoutSeconds)
}
