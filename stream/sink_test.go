package stream

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/amobagan/nutristream/credential"
	"github.com/amobagan/nutristream/logger"
	"github.com/amobagan/nutristream/observability"
)

func installTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return exporter
}

func spanAttr(span tracetest.SpanStub, key string) string {
	for _, kv := range span.Attributes {
		if string(kv.Key) == key {
			return kv.Value.Emit()
		}
	}
	return ""
}

func TestTelemetrySinkSpans(t *testing.T) {
	exporter := installTracer(t)
	sink := NewTelemetrySink(logger.Nop(), nil)

	sink.RequestStarted("1")
	sink.FirstChunk("1")
	sink.ChunkReceived("1", 3)
	sink.ChunkReceived("1", 4)
	sink.RequestCompleted("1", 7)

	sink.RequestStarted("2")
	sink.RequestFailed("2", "rate limited")

	sink.RequestStarted("3")
	sink.RequestAbandoned("3")

	spans := exporter.GetSpans()
	if len(spans) != 3 {
		t.Fatalf("spans = %d", len(spans))
	}

	ok := spans[0]
	if ok.Name != observability.SpanStreamRequest {
		t.Errorf("name = %q", ok.Name)
	}
	if spanAttr(ok, observability.AttrOutcome) != observability.OutcomeCompleted || spanAttr(ok, observability.AttrChunkCount) != "2" {
		t.Errorf("completed span attrs = %v", ok.Attributes)
	}
	if spanAttr(ok, observability.AttrSubjectID) != "1" {
		t.Errorf("subject attr = %v", ok.Attributes)
	}
	if len(ok.Events) != 1 || ok.Events[0].Name != "first_chunk" {
		t.Errorf("events = %v", ok.Events)
	}

	failed := spans[1]
	if failed.Status.Code != codes.Error || failed.Status.Description != "rate limited" {
		t.Errorf("failed status = %+v", failed.Status)
	}

	if spanAttr(spans[2], observability.AttrOutcome) != observability.OutcomeAbandoned {
		t.Errorf("abandoned span attrs = %v", spans[2].Attributes)
	}
}

func TestTelemetrySinkRestartEndsOpenSpan(t *testing.T) {
	exporter := installTracer(t)
	sink := NewTelemetrySink(nil, nil)

	sink.RequestStarted("1")
	sink.RequestStarted("2")
	if n := len(exporter.GetSpans()); n != 1 {
		t.Fatalf("restart should end the dangling span, got %d", n)
	}
	sink.RequestCompleted("2", 0)
	sink.RequestCompleted("2", 0)
	if n := len(exporter.GetSpans()); n != 2 {
		t.Errorf("a second end must be a no-op, got %d spans", n)
	}
}

func TestTelemetrySinkMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := observability.NewStreamMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}

	sink := NewTelemetrySink(logger.Nop(), metrics)
	clock := time.Unix(0, 0)
	sink.now = func() time.Time { return clock }

	sink.ConnectionChanged(Connected)
	sink.RequestStarted("1")
	clock = clock.Add(200 * time.Millisecond)
	sink.FirstChunk("1")
	sink.ChunkReceived("1", 1)
	sink.MalformedMessage(stderrors.New("bad json"))
	sink.RequestCompleted("1", 1)
	sink.ConnectFailed(stderrors.New("refused"))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	sums := map[string]int64{}
	var latency float64
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			switch data := md.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					sums[md.Name] += dp.Value
				}
			case metricdata.Histogram[float64]:
				if md.Name == "stream.first_chunk_latency" {
					latency = data.DataPoints[0].Sum
				}
			}
		}
	}

	if sums["stream.requests"] != 1 || sums["stream.active"] != 0 || sums["stream.chunks"] != 1 {
		t.Errorf("sums = %v", sums)
	}
	if sums["stream.connections"] != 2 {
		t.Errorf("connections = %d", sums["stream.connections"])
	}
	if sums["stream.transport_errors"] != 2 {
		t.Errorf("transport errors = %d", sums["stream.transport_errors"])
	}
	if latency < 0.19 || latency > 0.21 {
		t.Errorf("first chunk latency = %v", latency)
	}
}

func TestTelemetrySinkLogs(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: logger.FormatJSON}, &buf, "test")
	sink := NewTelemetrySink(log, nil)

	sink.RequestStarted("737628064502")
	sink.RequestFailed("737628064502", "rate limited")
	sink.TransportError("read", stderrors.New("reset"))

	out := buf.String()
	for _, want := range []string{
		`"message":"analysis started"`,
		`"subject_id":"737628064502"`,
		`"message":"analysis failed"`,
		`"error":"rate limited"`,
		`"message":"transport error"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s\n%s", want, out)
		}
	}
}

func TestSessionUsesTelemetrySinkByDefault(t *testing.T) {
	exporter := installTracer(t)
	conn := newFakeConn()
	s := New(Config{}, &fakeDialer{conn: conn}, credential.Static("tok"))
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	_ = s.StartAnalysis("1")
	conn.push(Complete{Content: "x"})
	if _, err := s.Await(awaitCtx(t)); err != nil {
		t.Fatal(err)
	}
	if n := len(exporter.GetSpans()); n != 1 {
		t.Errorf("spans = %d", n)
	}
}
