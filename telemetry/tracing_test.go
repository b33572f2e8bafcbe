package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func attrMap(kvs []attribute.KeyValue) map[string]string {
	out := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}

func TestInitTracingDisabledWithoutEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	shutdown, err := InitTracing("discord-thread-bot", "test")
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	shutdown()
}

func TestPipelineSpanAttributes(t *testing.T) {
	rec := recordSpans(t)

	ctx := WithCorrelation(context.Background(), "corr-1")
	ctx, span := StartSpan(ctx, PipelineTracer, SpanHandleMessage, MessageAttrs("m1", "self-promotion")...)
	_, child := StartSpan(ctx, PipelineTracer, SpanResolve, ProviderAttr("bandcamp"))
	RecordError(child, errors.New("boom"))
	child.End()
	span.SetAttributes(OutcomeAttr("resolve_failed"))
	span.End()

	ended := rec.Ended()
	if len(ended) != 2 {
		t.Fatalf("ended spans = %d, want 2", len(ended))
	}
	resolveSpan, handleSpan := ended[0], ended[1]
	if resolveSpan.Name() != SpanResolve || handleSpan.Name() != SpanHandleMessage {
		t.Fatalf("span names = %q, %q", resolveSpan.Name(), handleSpan.Name())
	}
	if resolveSpan.Parent().SpanID() != handleSpan.SpanContext().SpanID() {
		t.Error("resolve span is not a child of the handle span")
	}

	got := attrMap(handleSpan.Attributes())
	want := map[string]string{
		"message.id":     "m1",
		"channel.name":   "self-promotion",
		"correlation_id": "corr-1",
		"outcome":        "resolve_failed",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("handle span %s = %q, want %q", k, got[k], v)
		}
	}
	if attrMap(resolveSpan.Attributes())["link.provider"] != "bandcamp" {
		t.Errorf("resolve span attributes = %v", resolveSpan.Attributes())
	}
	if resolveSpan.Status().Code != codes.Error {
		t.Errorf("resolve span status = %v, want error", resolveSpan.Status().Code)
	}
}

func TestSetSpanHTTPStatus(t *testing.T) {
	rec := recordSpans(t)

	for _, status := range []int{200, 503} {
		_, span := StartSpan(context.Background(), HTTPTracer, "GET /readyz", HTTPMethodAttr("GET"), HTTPRouteAttr("/readyz"))
		SetSpanHTTPStatus(span, status)
		span.End()
	}

	ended := rec.Ended()
	if len(ended) != 2 {
		t.Fatalf("ended spans = %d, want 2", len(ended))
	}
	if ended[0].Status().Code == codes.Error {
		t.Error("200 response marked as error")
	}
	if ended[1].Status().Code != codes.Error {
		t.Error("503 response not marked as error")
	}
	if attrMap(ended[1].Attributes())["http.response.status_code"] != "503" {
		t.Errorf("status attribute = %v", ended[1].Attributes())
	}
}
