package observability

import (
	"context"
	"errors"
	"testing"

	"condo-whatsapp/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func preserveGlobals(t *testing.T) {
	t.Helper()
	tp, prop := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(prop)
	})
}

func TestSetupOTelDisabled(t *testing.T) {
	preserveGlobals(t)
	shutdown, err := SetupOTel(context.Background(), config.OTELConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown: %v", err)
	}
	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); ok {
		t.Fatal("disabled tracing must not install a provider")
	}
}

func TestSetupOTelEnabled(t *testing.T) {
	preserveGlobals(t)
	shutdown, err := SetupOTel(context.Background(), config.OTELConfig{
		Enabled:     true,
		Insecure:    true,
		Endpoint:    "localhost:4317",
		ServiceName: "condo-whatsapp-test",
		SampleRatio: 1,
	}, "v0.0.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Fatal("expected the sdk tracer provider")
	}
}

func TestSetupOTelExporterError(t *testing.T) {
	preserveGlobals(t)
	prev := newExporter
	t.Cleanup(func() { newExporter = prev })
	newExporter = func(context.Context, otlptrace.Client) (*otlptrace.Exporter, error) {
		return nil, errors.New("boom")
	}

	if _, err := SetupOTel(context.Background(), config.OTELConfig{Enabled: true, Insecure: true}, "v"); err == nil {
		t.Fatal("expected exporter error")
	}
}
