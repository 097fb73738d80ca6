// Package notifications delivers run outcomes via pluggable notifiers.
//
// The default implementation composes a plain-text email from the run report
// and hands it to the SMTP relay configured in config.toml, degrading to a
// no-op when no relay is set. Delivery failures are never retried; sending is
// the terminal step of a run.
//
// All pipeline code depends only on the Service interface.
package notifications
