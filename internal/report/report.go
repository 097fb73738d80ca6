package report

import (
	"fmt"
	"strings"
	"time"
)

// Outcome classifies a finished run.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailed  Outcome = "failed"
)

// JobResult records the outcome of one definition export.
type JobResult struct {
	Definition   string
	ArtifactPath string
	Duration     time.Duration
	Err          error
}

// Failed reports whether the job recorded an error.
func (r JobResult) Failed() bool { return r.Err != nil }

// RunReport aggregates per-job outcomes for one pipeline run. It exists only
// to compose the notification message and the run log row.
type RunReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Discovered int
	Published  int
	FatalErr   error
	Results    []JobResult
}

// New starts a report for the given run.
func New(runID string, startedAt time.Time) *RunReport {
	return &RunReport{RunID: runID, StartedAt: startedAt}
}

// AddSuccess records a completed export job.
func (r *RunReport) AddSuccess(definition, artifactPath string, duration time.Duration) {
	r.Results = append(r.Results, JobResult{
		Definition:   definition,
		ArtifactPath: artifactPath,
		Duration:     duration,
	})
}

// AddFailure records a failed export job without stopping the run.
func (r *RunReport) AddFailure(definition string, duration time.Duration, err error) {
	r.Results = append(r.Results, JobResult{
		Definition: definition,
		Duration:   duration,
		Err:        err,
	})
}

// Succeeded returns the number of jobs that produced an artifact.
func (r *RunReport) Succeeded() int {
	count := 0
	for _, result := range r.Results {
		if !result.Failed() {
			count++
		}
	}
	return count
}

// Failed returns the number of jobs that recorded an error.
func (r *RunReport) Failed() int {
	return len(r.Results) - r.Succeeded()
}

// Failures returns the failed job results in run order.
func (r *RunReport) Failures() []JobResult {
	var failures []JobResult
	for _, result := range r.Results {
		if result.Failed() {
			failures = append(failures, result)
		}
	}
	return failures
}

// FirstFailure returns the earliest failure, or nil when every job succeeded.
func (r *RunReport) FirstFailure() *JobResult {
	for i := range r.Results {
		if r.Results[i].Failed() {
			return &r.Results[i]
		}
	}
	return nil
}

// Outcome classifies the run: failed when a fatal error aborted it or nothing
// exported, partial when some jobs failed, success otherwise.
func (r *RunReport) Outcome() Outcome {
	switch {
	case r.FatalErr != nil:
		return OutcomeFailed
	case r.Failed() == 0:
		return OutcomeSuccess
	case r.Succeeded() == 0:
		return OutcomeFailed
	default:
		return OutcomePartial
	}
}

// Duration returns the wall-clock run time.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

const banner = "================================================================================="

// Summary composes the plain-text notification body.
func (r *RunReport) Summary() string {
	var b strings.Builder
	b.WriteString(banner)
	b.WriteString("\n\n")

	switch r.Outcome() {
	case OutcomeSuccess:
		fmt.Fprintf(&b, "The KMZ export run completed successfully: %d package(s) published.\n", r.Published)
	case OutcomePartial:
		fmt.Fprintf(&b, "The KMZ export run completed with errors: %d succeeded, %d failed.\n", r.Succeeded(), r.Failed())
	case OutcomeFailed:
		b.WriteString("The KMZ export run failed.\n")
	}

	fmt.Fprintf(&b, "\nRun ID:      %s\n", r.RunID)
	fmt.Fprintf(&b, "Started:     %s\n", r.StartedAt.Format(time.RFC1123))
	if !r.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "Finished:    %s (%s)\n", r.FinishedAt.Format(time.RFC1123), r.Duration().Round(time.Second))
	}
	fmt.Fprintf(&b, "Definitions: %d discovered, %d exported, %d failed\n", r.Discovered, r.Succeeded(), r.Failed())

	if r.FatalErr != nil {
		fmt.Fprintf(&b, "\nFatal error:\n  %v\n", r.FatalErr)
	}

	if failures := r.Failures(); len(failures) > 0 {
		b.WriteString("\nFailed exports:\n")
		for _, failure := range failures {
			fmt.Fprintf(&b, "  %s: %v\n", failure.Definition, failure.Err)
		}
	}

	b.WriteString("\n")
	b.WriteString(banner)
	b.WriteString("\n")
	return b.String()
}
