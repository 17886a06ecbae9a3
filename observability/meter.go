package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	Resource
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows plaintext export (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// InitMeter installs a global meter provider exporting over OTLP HTTP.
// The returned provider must be shut down on exit.
func InitMeter(ctx context.Context, cfg MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg.Resource)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns the nutristream meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(InstrumentationName)
}

// Request outcomes recorded on stream.requests.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeAbandoned = "abandoned"
)

// StreamMetrics holds the instruments recorded by streaming sessions.
type StreamMetrics struct {
	requests          metric.Int64Counter
	active            metric.Int64UpDownCounter
	duration          metric.Float64Histogram
	firstChunkLatency metric.Float64Histogram
	chunks            metric.Int64Counter
	transportErrors   metric.Int64Counter
	connections       metric.Int64Counter
}

// NewStreamMetrics creates the streaming instruments on meter.
func NewStreamMetrics(meter metric.Meter) (*StreamMetrics, error) {
	requests, err := meter.Int64Counter("stream.requests",
		metric.WithDescription("Analysis requests by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.requests counter: %w", err)
	}

	active, err := meter.Int64UpDownCounter("stream.active",
		metric.WithDescription("Analysis requests currently streaming"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.active counter: %w", err)
	}

	duration, err := meter.Float64Histogram("stream.duration",
		metric.WithDescription("Time from request to terminal message"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.duration histogram: %w", err)
	}

	firstChunk, err := meter.Float64Histogram("stream.first_chunk_latency",
		metric.WithDescription("Time from request to first chunk"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.first_chunk_latency histogram: %w", err)
	}

	chunks, err := meter.Int64Counter("stream.chunks",
		metric.WithDescription("Chunks received"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.chunks counter: %w", err)
	}

	transportErrors, err := meter.Int64Counter("stream.transport_errors",
		metric.WithDescription("Transport failures by kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.transport_errors counter: %w", err)
	}

	connections, err := meter.Int64Counter("stream.connections",
		metric.WithDescription("Connection attempts by result"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.connections counter: %w", err)
	}

	return &StreamMetrics{
		requests:          requests,
		active:            active,
		duration:          duration,
		firstChunkLatency: firstChunk,
		chunks:            chunks,
		transportErrors:   transportErrors,
		connections:       connections,
	}, nil
}

// RecordStart marks a request as streaming.
func (m *StreamMetrics) RecordStart(ctx context.Context) {
	m.active.Add(ctx, 1)
}

// RecordFirstChunk records the latency to the first chunk.
func (m *StreamMetrics) RecordFirstChunk(ctx context.Context, latency time.Duration) {
	m.firstChunkLatency.Record(ctx, latency.Seconds())
}

// RecordChunk counts one received chunk.
func (m *StreamMetrics) RecordChunk(ctx context.Context) {
	m.chunks.Add(ctx, 1)
}

// RecordEnd closes out a request with one of the Outcome constants.
func (m *StreamMetrics) RecordEnd(ctx context.Context, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.active.Add(ctx, -1)
	m.requests.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordConnect counts a connection attempt.
func (m *StreamMetrics) RecordConnect(ctx context.Context, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.connections.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordTransportError counts a transport failure of the given kind.
func (m *StreamMetrics) RecordTransportError(ctx context.Context, kind string) {
	m.transportErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
