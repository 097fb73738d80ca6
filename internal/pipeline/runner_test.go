package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"kmzgen/internal/config"
	"kmzgen/internal/logging"
	"kmzgen/internal/pipeline"
	"kmzgen/internal/report"
	"kmzgen/internal/runlog"
	"kmzgen/internal/services/layer2kml"
	"kmzgen/internal/testsupport"
)

type fakeConverter struct {
	failOn map[string]error
	calls  int
}

func (f *fakeConverter) Convert(ctx context.Context, req layer2kml.Request) error {
	f.calls++
	if err, ok := f.failOn[filepath.Base(req.DefinitionPath)]; ok {
		return err
	}
	return os.WriteFile(req.OutputPath, []byte("pk"), 0o644)
}

type recordingNotifier struct {
	finished *report.RunReport
	sendErr  error
}

func (n *recordingNotifier) RunFinished(ctx context.Context, rep *report.RunReport) error {
	n.finished = rep
	return n.sendErr
}

func (n *recordingNotifier) TestNotification(ctx context.Context) error { return nil }

func newRunner(t *testing.T, cfg *config.Config, conv *fakeConverter, notifier *recordingNotifier) (*pipeline.Runner, *runlog.Store) {
	t.Helper()
	store, err := runlog.Open(cfg)
	if err != nil {
		t.Fatalf("open run log: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	runner, err := pipeline.New(cfg, logging.NewNop(), notifier, conv, store)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	return runner, store
}

func publishedNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read publish dir: %v", err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names
}

func TestRunPublishesEveryDefinition(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithDefinitions("D01_Interstates", "D02_Parkways", "Milepoints"))
	conv := &fakeConverter{}
	notifier := &recordingNotifier{}
	runner, store := newRunner(t, cfg, conv, notifier)

	rep, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Outcome() != report.OutcomeSuccess {
		t.Fatalf("outcome = %s", rep.Outcome())
	}
	if rep.Discovered != 3 || rep.Published != 3 {
		t.Fatalf("discovered/published = %d/%d", rep.Discovered, rep.Published)
	}

	names := publishedNames(t, cfg.Paths.PublishDir)
	if len(names) != 3 {
		t.Fatalf("publish dir contents = %v", names)
	}
	if notifier.finished == nil {
		t.Fatal("run completion was not notified")
	}

	records, err := store.Recent(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 1 || records[0].Outcome != report.OutcomeSuccess {
		t.Fatalf("run history = %+v", records)
	}
}

func TestRunContinuesPastSingleFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithDefinitions("D01_Interstates", "D02_Parkways"))
	conv := &fakeConverter{
		failOn: map[string]error{"D02_Parkways.lyrx": errors.New("source table renamed")},
	}
	notifier := &recordingNotifier{}
	runner, _ := newRunner(t, cfg, conv, notifier)

	rep, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("partial run must not return an error, got %v", err)
	}
	if rep.Outcome() != report.OutcomePartial {
		t.Fatalf("outcome = %s", rep.Outcome())
	}
	if rep.Published != 1 {
		t.Fatalf("published = %d", rep.Published)
	}

	names := publishedNames(t, cfg.Paths.PublishDir)
	if len(names) != 1 || names[0] != "D01_Interstates.kmz" {
		t.Fatalf("publish dir contents = %v", names)
	}
	if notifier.finished == nil || notifier.finished.Failed() != 1 {
		t.Fatal("failure missing from notification report")
	}
}

func TestRunMissingLayerDirIsFatal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.RemoveAll(cfg.Paths.LayerDir); err != nil {
		t.Fatalf("remove layer dir: %v", err)
	}
	conv := &fakeConverter{}
	notifier := &recordingNotifier{}
	runner, store := newRunner(t, cfg, conv, notifier)

	rep, err := runner.Run(context.Background())
	if err == nil {
		t.Fatal("expected fatal error for missing layer directory")
	}
	if conv.calls != 0 {
		t.Fatalf("no export should run, got %d calls", conv.calls)
	}
	if rep.Outcome() != report.OutcomeFailed {
		t.Fatalf("outcome = %s", rep.Outcome())
	}
	if entries, _ := os.ReadDir(cfg.Paths.PublishDir); len(entries) != 0 {
		t.Fatal("publish dir must remain untouched")
	}
	if notifier.finished == nil {
		t.Fatal("fatal run must still be notified")
	}

	records, recErr := store.Recent(context.Background(), 1)
	if recErr != nil || len(records) != 1 {
		t.Fatalf("run history = %+v (%v)", records, recErr)
	}
	if records[0].ErrorMessage == "" {
		t.Fatal("fatal detail missing from run history")
	}
}

func TestRunIsIdempotentForUnchangedInputs(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDefinitions("Milepoints"))
	conv := &fakeConverter{}
	notifier := &recordingNotifier{}
	runner, _ := newRunner(t, cfg, conv, notifier)

	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first, err := os.ReadFile(filepath.Join(cfg.Paths.PublishDir, "Milepoints.kmz"))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}

	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second, err := os.ReadFile(filepath.Join(cfg.Paths.PublishDir, "Milepoints.kmz"))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(first) != string(second) {
		t.Fatal("re-run changed published artifact")
	}
	if names := publishedNames(t, cfg.Paths.PublishDir); len(names) != 1 {
		t.Fatalf("publish dir contents = %v", names)
	}
}

func TestRunNotificationFailureDoesNotFailRun(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDefinitions("Milepoints"))
	conv := &fakeConverter{}
	notifier := &recordingNotifier{sendErr: errors.New("relay refused")}
	runner, _ := newRunner(t, cfg, conv, notifier)

	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRunRespectsCancellation(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDefinitions("Milepoints"))
	conv := &fakeConverter{}
	notifier := &recordingNotifier{}
	runner, _ := newRunner(t, cfg, conv, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := runner.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunFailsFastWhenLockHeld(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDefinitions("Milepoints"))
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir log dir: %v", err)
	}

	held := flock.New(filepath.Join(cfg.Paths.LogDir, "kmzgen.lock"))
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("acquire lock: locked=%v err=%v", locked, err)
	}
	defer held.Unlock()

	runner, _ := newRunner(t, cfg, &fakeConverter{}, &recordingNotifier{})
	if _, err := runner.Run(context.Background()); !errors.Is(err, pipeline.ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
}
