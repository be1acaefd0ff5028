package tracing

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func TestInitializeDisabled(t *testing.T) {
	shutdown, err := Initialize(Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))

	// spans are no-ops but must not panic
	ctx, span := StartSpan(context.Background(), "noop")
	span.End()
	assert.Equal(t, "", W3CTraceparent(ctx))
}

func TestStartHTTPSpanRecordsAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, err := Initialize(Config{}, nil)
	require.NoError(t, err)

	ctx, span := StartHTTPSpan(context.Background(), "POST", "/v1/analyze")
	header := W3CTraceparent(ctx)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "HTTP POST /v1/analyze", ended[0].Name())

	assert.Len(t, header, 55)
	assert.True(t, strings.HasSuffix(header, "-01"), header)

	traceID, spanID, flags, ok := ParseTraceparent(header)
	require.True(t, ok)
	assert.Equal(t, ended[0].SpanContext().TraceID().String(), traceID)
	assert.Equal(t, ended[0].SpanContext().SpanID().String(), spanID)
	assert.Equal(t, byte(1), flags)
}

func TestParseTraceparent(t *testing.T) {
	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{"valid", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", true},
		{"wrong version", "01-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", false},
		{"short trace id", "00-4bf92f35-00f067aa0ba902b7-01", false},
		{"missing part", "00-4bf92f3577b34da6a3ce929d0e0e4736-01", false},
		{"bad flags", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-zz", false},
		{"long flags", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-3031", false},
		{"short flags", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-1", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, ok := ParseTraceparent(tt.value)
			assert.Equal(t, tt.valid, ok)
		})
	}
}
