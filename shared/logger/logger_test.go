package logger_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"

	"teleconsult/config"
	"teleconsult/shared/logger"
)

func restore(t *testing.T) {
	t.Helper()

	original := log.Logger
	level := zerolog.GlobalLevel()

	t.Cleanup(func() {
		log.Logger = original
		zerolog.SetGlobalLevel(level)
	})
}

func TestInitLogger(t *testing.T) {
	restore(t)

	logger.InitLogger()

	assert.Equal(t, zerolog.TimeFormatUnix, zerolog.TimeFieldFormat)
	assert.Equal(t, zerolog.TraceLevel, zerolog.GlobalLevel())
}

func TestErrorWithStack(t *testing.T) {
	restore(t)

	var buf bytes.Buffer
	log.Logger = log.Output(&buf)

	logger.ErrorWithStack(errors.New("ticket activation failed"))

	assert.Contains(t, buf.String(), "ticket activation failed")
}

func TestSetLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
	}{
		{level: "debug", expected: zerolog.DebugLevel},
		{level: "info", expected: zerolog.InfoLevel},
		{level: "warn", expected: zerolog.WarnLevel},
		{level: "error", expected: zerolog.ErrorLevel},
		{level: "not-a-level", expected: zerolog.TraceLevel},
		{level: "", expected: zerolog.NoLevel},
	}

	for _, tt := range tests {
		t.Run("level "+tt.level, func(t *testing.T) {
			restore(t)

			cfg := &config.Config{}
			cfg.Server.LogLevel = tt.level

			logger.SetLogLevel(cfg)

			assert.Equal(t, tt.expected, zerolog.GlobalLevel())
		})
	}
}

func TestConfigureProductionWritesJSON(t *testing.T) {
	restore(t)

	cfg := &config.Config{}
	cfg.Server.Env = "production"
	cfg.Server.LogLevel = "info"

	logger.Configure(cfg)

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestCtxCarriesRequestAndTraceIDs(t *testing.T) {
	restore(t)

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)

	traceID := trace.TraceID{0x01, 0x02}
	ctx := context.WithValue(context.Background(), chiMiddleware.RequestIDKey, "req-42")
	ctx = trace.ContextWithSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  trace.SpanID{0x03},
	}))

	logger.Ctx(ctx).Info().Msg("request served")

	assert.Contains(t, buf.String(), `"request_id":"req-42"`)
	assert.Contains(t, buf.String(), traceID.String())
}

func TestCtxWithoutRequestScope(t *testing.T) {
	restore(t)

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)

	logger.Ctx(context.Background()).Info().Msg("startup")

	assert.NotContains(t, buf.String(), "request_id")
	assert.NotContains(t, buf.String(), "trace_id")
}
