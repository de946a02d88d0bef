package telemetry

import (
	"context"
	"testing"

	"github.com/Togather-Foundation/books/internal/config"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), config.TracingConfig{Enabled: false}, "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestInitTracingRejectsBadSampleRate(t *testing.T) {
	for _, rate := range []float64{-0.1, 1.5} {
		_, err := InitTracing(context.Background(), config.TracingConfig{
			Enabled:    true,
			Exporter:   "none",
			SampleRate: rate,
		}, "test")
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid sample rate")
	}
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), config.TracingConfig{
		Enabled:    true,
		Exporter:   "zipkin",
		SampleRate: 1,
	}, "test")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported exporter")
}

func TestInitTracingNoneExporterRecordsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	shutdown, err := InitTracing(context.Background(), config.TracingConfig{
		Enabled:     true,
		Exporter:    "none",
		ServiceName: "books-api-test",
		SampleRate:  1,
	}, "v0.0.0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	_, span := GetTracer("books-test").Start(context.Background(), "op")
	defer span.End()
	require.True(t, span.SpanContext().IsValid())
	require.True(t, span.SpanContext().IsSampled())
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{0.5, "TraceIDRatioBased{0.5}"},
	}
	for _, tt := range tests {
		s, err := samplerFor(tt.rate)
		require.NoError(t, err)
		require.Equal(t, tt.want, s.Description())
	}
}
