package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"kmzgen/internal/config"
	"kmzgen/internal/export"
	"kmzgen/internal/layerdef"
	"kmzgen/internal/logging"
	"kmzgen/internal/notifications"
	"kmzgen/internal/publish"
	"kmzgen/internal/report"
	"kmzgen/internal/runlog"
	"kmzgen/internal/services/layer2kml"
	"kmzgen/internal/staging"
)

// ErrRunInProgress indicates another kmzgen run holds the run lock.
var ErrRunInProgress = errors.New("another kmzgen run is already in progress")

// Runner executes one full pipeline pass: discovery, export, publish, record,
// notify. Runs are strictly sequential; the flock makes the one-run-at-a-time
// assumption explicit instead of relying on scheduler discipline.
type Runner struct {
	cfg       *config.Config
	logger    *slog.Logger
	notifier  notifications.Service
	converter layer2kml.Converter
	store     *runlog.Store

	lockPath string
	lock     *flock.Flock
	now      func() time.Time
}

// Option configures optional Runner behavior.
type Option func(*Runner)

// WithClock injects a time source (primarily for tests).
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// New constructs a pipeline runner. The run log store may be nil; run history
// is then not persisted.
func New(cfg *config.Config, logger *slog.Logger, notifier notifications.Service, converter layer2kml.Converter, store *runlog.Store, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("pipeline requires config")
	}
	if converter == nil {
		return nil, errors.New("pipeline requires a converter")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "kmzgen.lock")
	runner := &Runner{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		notifier:  notifier,
		converter: converter,
		store:     store,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner, nil
}

// Run executes the pipeline once and returns the run report. The returned
// error is non-nil when the run failed outright; a partial run (some exports
// failed, the rest published) returns a nil error and reports through the
// notification channel.
func (r *Runner) Run(ctx context.Context) (*report.RunReport, error) {
	locked, err := r.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock %s: %w", r.lockPath, err)
	}
	if !locked {
		return nil, ErrRunInProgress
	}
	defer func() {
		if err := r.lock.Unlock(); err != nil {
			r.logger.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	started := r.now()
	rep := report.New(uuid.NewString(), started)
	runLogger := r.logger.With(logging.String(logging.FieldRunID, rep.RunID))
	runLogger.Info("run started", logging.String("layer_dir", r.cfg.Paths.LayerDir))

	if err := r.execute(ctx, rep, runLogger); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return rep, err
		}
		rep.FatalErr = err
	}
	rep.FinishedAt = r.now()

	r.record(ctx, rep, runLogger)
	r.notify(ctx, rep, runLogger)

	switch rep.Outcome() {
	case report.OutcomeFailed:
		runLogger.Error("run failed",
			logging.Int("discovered", rep.Discovered),
			logging.Int("failed", rep.Failed()),
			logging.Error(rep.FatalErr),
		)
		if rep.FatalErr != nil {
			return rep, rep.FatalErr
		}
		if first := rep.FirstFailure(); first != nil {
			return rep, first.Err
		}
		return rep, errors.New("run failed")
	case report.OutcomePartial:
		runLogger.Warn("run completed with errors",
			logging.Int("exported", rep.Succeeded()),
			logging.Int("failed", rep.Failed()),
		)
	default:
		runLogger.Info("run complete",
			logging.Int("published", rep.Published),
			logging.Duration("elapsed", rep.Duration()),
		)
	}
	return rep, nil
}

func (r *Runner) execute(ctx context.Context, rep *report.RunReport, runLogger *slog.Logger) error {
	retention := time.Duration(r.cfg.Staging.RetentionDays) * 24 * time.Hour
	if retention > 0 {
		result := staging.CleanStale(r.cfg.Paths.ScratchDir, retention, rep.StartedAt, runLogger)
		if len(result.Removed) > 0 {
			runLogger.Info("scratch housekeeping", logging.Int("removed", len(result.Removed)))
		}
	}

	defs, err := layerdef.Discover(r.cfg.Paths.LayerDir)
	if err != nil {
		return err
	}
	rep.Discovered = len(defs)
	runLogger.Info("definitions discovered", logging.Int("count", len(defs)))

	runDir, err := staging.PrepareRunDir(r.cfg.Paths.ScratchDir, rep.StartedAt)
	if err != nil {
		return err
	}

	exporter := export.New(r.converter, runLogger)
	if err := exporter.ExportAll(ctx, defs, runDir, rep); err != nil {
		return err
	}

	if rep.Succeeded() == 0 {
		// Nothing staged; leave the published set untouched.
		return nil
	}

	expected := make([]string, 0, rep.Succeeded())
	for _, result := range rep.Results {
		if !result.Failed() {
			expected = append(expected, filepath.Base(result.ArtifactPath))
		}
	}

	publisher := publish.New(r.cfg.Paths.PublishDir, r.cfg.Publish.ExcludePatterns, r.cfg.Publish.Verify, runLogger)
	published, err := publisher.Publish(runDir, expected)
	if err != nil {
		return err
	}
	rep.Published = published
	return nil
}

func (r *Runner) record(ctx context.Context, rep *report.RunReport, runLogger *slog.Logger) {
	if r.store == nil {
		return
	}
	if _, err := r.store.RecordRun(ctx, rep); err != nil {
		runLogger.Warn("failed to persist run history",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check run log database access"),
		)
	}
}

func (r *Runner) notify(ctx context.Context, rep *report.RunReport, runLogger *slog.Logger) {
	if err := r.notifier.RunFinished(ctx, rep); err != nil {
		// The notification is the terminal step; a send failure is logged
		// and never retried.
		runLogger.Error("run notification failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.smtp_host and relay availability"),
		)
	}
}
