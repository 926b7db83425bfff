package runner

import (
	"log/slog"
	"time"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithInterval sets the driver's frame interval.
func WithInterval(d time.Duration) Option {
	return func(r *Runner) {
		r.interval = d
	}
}

// WithWatch reloads the graph and restarts the conversation whenever the loader reports a change.
func WithWatch(watch bool) Option {
	return func(r *Runner) {
		r.watch = watch
	}
}

// WithRelay attaches relay to the driver for the duration of each run, so host functions
// bound through it can post back to the engine.
func WithRelay(relay *Relay) Option {
	return func(r *Runner) {
		r.relay = relay
	}
}
