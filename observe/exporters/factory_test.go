package exporters

import (
	"bytes"
	"context"
	"testing"
)

func TestNewTracingExporter(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "stdout", opts: Options{Writer: &bytes.Buffer{}}},
		{name: "none"},
		{name: ""},
		{name: "otlp", opts: Options{Endpoint: "localhost:4317", Insecure: true}},
		{name: "zipkin", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := NewTracingExporter(ctx, tt.name, tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if exp == nil {
				t.Fatal("expected exporter")
			}
			_ = exp.Shutdown(ctx)
		})
	}
}

func TestNewTracingExporter_OTLPWithoutEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")

	if _, err := NewTracingExporter(context.Background(), "otlp", Options{}); err == nil {
		t.Error("expected error when no OTLP endpoint is configured")
	}
}

func TestNewMetricsReader(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "stdout", opts: Options{Writer: &bytes.Buffer{}}},
		{name: "none"},
		{name: ""},
		{name: "otlp", opts: Options{Endpoint: "localhost:4317", Insecure: true}},
		{name: "statsd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, err := NewMetricsReader(ctx, tt.name, tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if reader == nil {
				t.Fatal("expected reader")
			}
			_ = reader.Shutdown(ctx)
		})
	}
}

func TestNewMetricsReader_OTLPWithoutEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")

	if _, err := NewMetricsReader(context.Background(), "otlp", Options{}); err == nil {
		t.Error("expected error when no OTLP endpoint is configured")
	}
}
