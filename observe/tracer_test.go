package observe

import (
	"context"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func sdktraceSpanFromContext(ctx context.Context) bool {
	return trace.SpanFromContext(ctx).IsRecording()
}

func TestOpMeta_SpanName(t *testing.T) {
	tests := []struct {
		op   string
		want string
	}{
		{OpGet, "cache.get"},
		{OpSet, "cache.set"},
		{OpDelete, "cache.delete"},
	}
	for _, tt := range tests {
		if got := (OpMeta{Op: tt.op}).SpanName(); got != tt.want {
			t.Errorf("SpanName(%q) = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestTracer_Attributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := NewTracer(tp.Tracer("test"))

	_, span := tracer.StartSpan(context.Background(), OpMeta{Op: OpGet, Key: "weather:1", Classified: false})
	tracer.EndSpan(span, OutcomeRemote, nil)

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	attrs := map[string]string{}
	for _, kv := range ended[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	want := map[string]string{
		"cache.op":             "get",
		"cache.key":            "weather:1",
		"cache.key_classified": "false",
		"cache.outcome":        "remote",
	}
	for k, v := range want {
		if attrs[k] != v {
			t.Errorf("attribute %s = %q, want %q", k, attrs[k], v)
		}
	}
	if ended[0].SpanKind() != trace.SpanKindInternal {
		t.Errorf("span kind = %v, want internal", ended[0].SpanKind())
	}
}

func TestNoopTracer(t *testing.T) {
	tracer := NoopTracer()
	_, span := tracer.StartSpan(context.Background(), OpMeta{Op: OpGet})
	tracer.EndSpan(span, OutcomeMiss, nil)
	if span.IsRecording() {
		t.Error("noop span should not record")
	}
}
