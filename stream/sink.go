package stream

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/amobagan/nutristream/logger"
	"github.com/amobagan/nutristream/observability"
)

// Sink receives the diagnostic side of a session: errors, malformed frames,
// and request lifecycle events. It is called without the session lock held.
type Sink interface {
	ConnectionChanged(state ConnectionState)
	ConnectFailed(err error)
	RequestStarted(subjectID string)
	FirstChunk(subjectID string)
	ChunkReceived(subjectID string, size int)
	RequestCompleted(subjectID string, textLen int)
	RequestFailed(subjectID, diagnostic string)
	RequestAbandoned(subjectID string)
	TransportError(op string, err error)
	MalformedMessage(err error)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) ConnectionChanged(ConnectionState) {}
func (NopSink) ConnectFailed(error)               {}
func (NopSink) RequestStarted(string)             {}
func (NopSink) FirstChunk(string)                 {}
func (NopSink) ChunkReceived(string, int)         {}
func (NopSink) RequestCompleted(string, int)      {}
func (NopSink) RequestFailed(string, string)      {}
func (NopSink) RequestAbandoned(string)           {}
func (NopSink) TransportError(string, error)      {}
func (NopSink) MalformedMessage(error)            {}

// TelemetrySink logs every event, records StreamMetrics when metrics is
// non-nil, and traces each request as a span.
type TelemetrySink struct {
	log     *logger.Logger
	metrics *observability.StreamMetrics

	mu      sync.Mutex
	ctx     context.Context
	span    trace.Span
	started time.Time
	chunks  int
	now     func() time.Time
}

// NewTelemetrySink creates a sink. metrics may be nil.
func NewTelemetrySink(log *logger.Logger, metrics *observability.StreamMetrics) *TelemetrySink {
	if log == nil {
		log = logger.Nop()
	}
	return &TelemetrySink{log: log, metrics: metrics, now: time.Now}
}

// ConnectionChanged logs the transition and counts successful connects.
func (t *TelemetrySink) ConnectionChanged(state ConnectionState) {
	t.log.Info("connection state changed", logger.Fields(logger.FieldConnectionState, state.String()))
	if state == Connected && t.metrics != nil {
		t.metrics.RecordConnect(context.Background(), true)
	}
}

// ConnectFailed logs the failed connection attempt.
func (t *TelemetrySink) ConnectFailed(err error) {
	t.log.Error("connection failed", logger.ErrorFields("connect", err))
	if t.metrics != nil {
		ctx := context.Background()
		t.metrics.RecordConnect(ctx, false)
		t.metrics.RecordTransportError(ctx, "dial")
	}
}

// RequestStarted opens the request span.
func (t *TelemetrySink) RequestStarted(subjectID string) {
	t.mu.Lock()
	if t.span != nil {
		t.endLocked(observability.OutcomeAbandoned, nil)
	}
	t.ctx, t.span = observability.StartSpan(context.Background(), observability.SpanStreamRequest,
		trace.WithAttributes(attribute.String(observability.AttrSubjectID, subjectID)),
	)
	t.started = t.now()
	t.chunks = 0
	if t.metrics != nil {
		t.metrics.RecordStart(t.ctx)
	}
	t.mu.Unlock()

	t.log.Info("analysis started", logger.Fields(logger.FieldSubjectID, subjectID))
}

// FirstChunk marks the span with the time to first chunk.
func (t *TelemetrySink) FirstChunk(subjectID string) {
	t.mu.Lock()
	latency := t.now().Sub(t.started)
	if t.span != nil {
		t.span.AddEvent("first_chunk")
	}
	if t.metrics != nil {
		t.metrics.RecordFirstChunk(t.context(), latency)
	}
	t.mu.Unlock()

	t.log.Debug("first chunk received", logger.Fields(
		logger.FieldSubjectID, subjectID,
		logger.FieldDuration, latency.Milliseconds(),
	))
}

// ChunkReceived counts the chunk.
func (t *TelemetrySink) ChunkReceived(subjectID string, size int) {
	t.mu.Lock()
	t.chunks++
	n := t.chunks
	if t.metrics != nil {
		t.metrics.RecordChunk(t.context())
	}
	t.mu.Unlock()

	t.log.Debug("chunk received", logger.Fields(
		logger.FieldSubjectID, subjectID,
		logger.FieldChunkCount, n,
		"size", size,
	))
}

// RequestCompleted ends the span successfully.
func (t *TelemetrySink) RequestCompleted(subjectID string, textLen int) {
	t.mu.Lock()
	elapsed, chunks := t.endLocked(observability.OutcomeCompleted, nil)
	t.mu.Unlock()

	t.log.Info("analysis completed", logger.Fields(
		logger.FieldSubjectID, subjectID,
		logger.FieldChunkCount, chunks,
		logger.FieldDuration, elapsed.Milliseconds(),
		"length", textLen,
	))
}

// RequestFailed ends the span with the backend diagnostic.
func (t *TelemetrySink) RequestFailed(subjectID, diagnostic string) {
	t.mu.Lock()
	elapsed, _ := t.endLocked(observability.OutcomeFailed, &failure{diagnostic})
	t.mu.Unlock()

	t.log.Warn("analysis failed", logger.Fields(
		logger.FieldSubjectID, subjectID,
		logger.FieldError, diagnostic,
		logger.FieldDuration, elapsed.Milliseconds(),
	))
}

// RequestAbandoned ends the span of a request whose connection went away.
func (t *TelemetrySink) RequestAbandoned(subjectID string) {
	t.mu.Lock()
	t.endLocked(observability.OutcomeAbandoned, nil)
	t.mu.Unlock()

	t.log.Warn("connection lost while streaming", logger.Fields(logger.FieldSubjectID, subjectID))
}

// TransportError logs a send or read failure.
func (t *TelemetrySink) TransportError(op string, err error) {
	t.log.Error("transport error", logger.ErrorFields(op, err))
	if t.metrics != nil {
		t.metrics.RecordTransportError(context.Background(), op)
	}
}

// MalformedMessage logs and counts a frame that could not be decoded.
func (t *TelemetrySink) MalformedMessage(err error) {
	t.log.Warn("skipping malformed message", logger.ErrorFields("decode", err))
	if t.metrics != nil {
		t.metrics.RecordTransportError(context.Background(), "decode")
	}
}

type failure struct{ diagnostic string }

func (f *failure) Error() string { return f.diagnostic }

// endLocked closes the open request span, if any, and returns the elapsed
// time and chunk count.
func (t *TelemetrySink) endLocked(outcome string, err error) (time.Duration, int) {
	if t.span == nil {
		return 0, t.chunks
	}
	elapsed := t.now().Sub(t.started)
	t.span.SetAttributes(
		attribute.String(observability.AttrOutcome, outcome),
		attribute.Int(observability.AttrChunkCount, t.chunks),
	)
	if err != nil {
		observability.SetSpanError(t.span, err)
	}
	if t.metrics != nil {
		t.metrics.RecordEnd(t.ctx, outcome, elapsed)
	}
	t.span.End()
	t.span = nil
	return elapsed, t.chunks
}

func (t *TelemetrySink) context() context.Context {
	if t.ctx == nil {
		return context.Background()
	}
	return t.ctx
}
