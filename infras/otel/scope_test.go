package otel_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"teleconsult/infras/otel"
	"teleconsult/shared/failure"
)

func record(t *testing.T, fn func(scope otel.Scope)) sdktrace.ReadOnlySpan {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	_, span := provider.Tracer("test").Start(context.Background(), "op")
	scope := otel.NewScope(span)

	fn(scope)
	scope.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)

	return ended[0]
}

func attributes(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	res := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		res[kv.Key] = kv.Value
	}

	return res
}

func TestTraceError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      int64
		retryable bool
	}{
		{name: "retryable", err: failure.Unavailable(errors.New("timeout")), code: 503, retryable: true},
		{name: "conflict", err: failure.Conflict("slot taken"), code: 409},
		{name: "plain error", err: errors.New("boom"), code: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			span := record(t, func(scope otel.Scope) { scope.TraceIfError(tt.err) })

			assert.Equal(t, codes.Error, span.Status().Code)

			attrs := attributes(span)
			assert.Equal(t, tt.code, attrs["error.code"].AsInt64())
			assert.Equal(t, tt.retryable, attrs["error.retryable"].AsBool())
		})
	}
}

func TestTraceIfErrorIgnoresNil(t *testing.T) {
	span := record(t, func(scope otel.Scope) { scope.TraceIfError(nil) })

	assert.Equal(t, codes.Unset, span.Status().Code)
}

func TestSetAttributes(t *testing.T) {
	span := record(t, func(scope otel.Scope) {
		scope.SetAttributes(map[string]any{
			"appointment.id": "appt-1",
			"invitees":       []string{"a", "b"},
			"attempt":        2,
			"lead":           15 * time.Minute,
		})
	})

	attrs := attributes(span)
	assert.Equal(t, "appt-1", attrs["appointment.id"].AsString())
	assert.Equal(t, []string{"a", "b"}, attrs["invitees"].AsStringSlice())
	assert.Equal(t, int64(2), attrs["attempt"].AsInt64())
	assert.Equal(t, "15m0s", attrs["lead"].AsString())
}
