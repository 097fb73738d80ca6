package config

const (
	defaultLayerDir   = "~/.local/share/kmzgen/layerfiles"
	defaultScratchDir = "~/.local/share/kmzgen/exports"
	defaultPublishDir = ""
	defaultLogDir     = "~/.local/share/kmzgen/logs"

	defaultConverterBin  = "layer2kml"
	defaultExportFormat  = "KMZ"
	defaultAltitudeMode  = "clampToGround"
	defaultImageSize     = 1024
	defaultDPI           = 96
	defaultExportTimeout = 600
	defaultStagingDays   = 14
	defaultSMTPPort      = 25
	defaultNotifyTimeout = 30
	defaultSubjectPrefix = "KMZ Generator ETL"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultPublishVerify = true
)

// defaultExtent is the statewide export bounding box (minx miny maxx maxy) in
// the projected coordinate system of the enterprise feature classes.
const defaultExtent = "3854285.94004372 3350081.56140465 5994554.76153164 4302135.45716181"

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LayerDir:   defaultLayerDir,
			ScratchDir: defaultScratchDir,
			PublishDir: defaultPublishDir,
			LogDir:     defaultLogDir,
		},
		Export: Export{
			ConverterBin:   defaultConverterBin,
			Format:         defaultExportFormat,
			Extent:         defaultExtent,
			ImageSize:      defaultImageSize,
			DPI:            defaultDPI,
			AltitudeMode:   defaultAltitudeMode,
			Composite:      false,
			TimeoutSeconds: defaultExportTimeout,
		},
		Publish: Publish{
			ExcludePatterns: []string{"*.tmp", "*.log"},
			Verify:          defaultPublishVerify,
		},
		Staging: Staging{
			RetentionDays: defaultStagingDays,
		},
		Notifications: Notifications{
			SMTPPort:       defaultSMTPPort,
			SubjectPrefix:  defaultSubjectPrefix,
			TimeoutSeconds: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
