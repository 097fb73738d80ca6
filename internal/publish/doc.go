// Package publish moves staged artifacts to the shared distribution
// directory, overwriting prior versions and optionally verifying the result.
package publish
