// Package transport publishes spawn events and telemetry to external
// listeners (browser visualisers, debugging tools).
package transport

// Transport defines a generic interface for sending processed data or events.
// Implementations should be thread-safe and must not block the caller.
type Transport interface {
	Send(data any) error
	Close() error
}
