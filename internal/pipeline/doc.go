// Package pipeline sequences one scheduled export pass: discover symbology
// definitions, export each through the conversion toolkit, publish the staged
// artifacts, record the outcome, and notify operators.
//
// The pass is single-threaded and blocking. A flock-based run lock rejects
// overlapping invocations from the external scheduler.
package pipeline
