// Package layer2kml wraps the external conversion toolkit that renders a
// symbology definition into a compressed KMZ package.
//
// The toolkit owns every coordinate transform and packaging concern; this
// package only builds the command line, enforces a per-conversion timeout, and
// verifies that a non-empty artifact appeared at the requested path. The
// Executor seam lets tests stub process execution.
package layer2kml
