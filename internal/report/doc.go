// Package report accumulates per-job outcomes for a single pipeline run and
// renders the plain-text summary delivered to operators.
package report
