/*
Package observability turns engine lifecycle events into logs and metrics.

Metrics exposes Prometheus collectors fed by domain.LifecycleHooks; LogHooks emits one
structured log record per event. Several hook sets can be merged with Combine before
they are handed to the engine.
*/
package observability
