// Package export drives the per-definition conversion loop. Each discovered
// symbology definition yields exactly one artifact or one recorded failure;
// a failed definition never stops the remaining exports.
package export
