package export

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"kmzgen/internal/layerdef"
	"kmzgen/internal/logging"
	"kmzgen/internal/report"
	"kmzgen/internal/services"
	"kmzgen/internal/services/layer2kml"
)

// Exporter converts discovered definitions into KMZ artifacts in the scratch
// run directory.
type Exporter struct {
	converter layer2kml.Converter
	logger    *slog.Logger
}

// New constructs an exporter around the given converter.
func New(converter layer2kml.Converter, logger *slog.Logger) *Exporter {
	return &Exporter{
		converter: converter,
		logger:    logging.NewComponentLogger(logger, "export"),
	}
}

// ExportOne converts a single definition, returning the artifact path.
func (e *Exporter) ExportOne(ctx context.Context, def layerdef.Definition, runDir string) (string, error) {
	outPath := filepath.Join(runDir, def.ArtifactName())
	err := e.converter.Convert(ctx, layer2kml.Request{
		DefinitionPath: def.Path,
		OutputPath:     outPath,
	})
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "export", "convert", def.Name, err)
	}
	return outPath, nil
}

// ExportAll converts every definition in order, recording each outcome in the
// report. A per-definition failure is logged and the loop continues; only
// context cancellation stops the pass early.
func (e *Exporter) ExportAll(ctx context.Context, defs []layerdef.Definition, runDir string, rep *report.RunReport) error {
	for _, def := range defs {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		artifact, err := e.ExportOne(ctx, def, runDir)
		elapsed := time.Since(start)

		if err != nil {
			rep.AddFailure(def.Name, elapsed, err)
			e.logger.Error("export failed",
				logging.String(logging.FieldLayer, def.Name),
				logging.Duration("elapsed", elapsed),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "verify the definition and its data source"),
			)
			continue
		}

		rep.AddSuccess(def.Name, artifact, elapsed)
		e.logger.Info("export complete",
			logging.String(logging.FieldLayer, def.Name),
			logging.String("artifact", artifact),
			logging.Duration("elapsed", elapsed),
		)
	}
	return nil
}
