// Package runlog persists run history in SQLite so operators can inspect
// recent pipeline outcomes with `kmzgen status`.
//
// The database records outcomes only; it is never consulted by the pipeline
// itself, so deleting it is always safe. Schema changes bump the version in
// store.go.
package runlog
