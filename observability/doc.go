// Package observability wires OpenTelemetry tracing and metrics.
//
// InitTracer and InitMeter install global providers that export over OTLP
// HTTP. Setup does both from a Config and returns a single shutdown func.
// When telemetry is disabled the globals stay no-op, so instruments created
// with Meter and spans started with StartSpan cost nothing.
//
// StreamMetrics carries the instruments recorded by streaming sessions.
package observability
