// Package staging owns the local scratch area: a dated directory per run,
// cleared on creation, with retention-based cleanup of prior run directories.
package staging
