// Package config loads, normalizes, and validates kmzgen configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// KMZGEN_SMTP_HOST. The Config type centralizes every knob the CLI needs:
// layer, scratch, and publish directories, conversion toolkit parameters, and
// the notification relay.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
