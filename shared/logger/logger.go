package logger

import (
	"context"
	"os"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"

	"teleconsult/config"
	"teleconsult/shared/constant"
)

func InitLogger() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}

	log.Logger = log.Output(output)
	log.Trace().Msg("Zerolog initialized.")
}

// Configure initialises the global logger for the given environment. Production emits JSON lines
// tagged with the app name and environment; other environments log to the console with callers.
func Configure(cfg *config.Config) {
	InitLogger()

	if cfg.Server.Env == constant.ServerEnvProduction {
		log.Logger = zerolog.New(os.Stdout).With().
			Timestamp().
			Str("app", cfg.App.Name).
			Str("env", cfg.Server.Env).
			Logger()
	} else {
		log.Logger = log.With().Caller().Logger()
	}

	SetLogLevel(cfg)
}

// Ctx returns the global logger annotated with the request ID and trace ID carried by ctx.
func Ctx(ctx context.Context) *zerolog.Logger {
	logCtx := log.With()

	if requestID := chiMiddleware.GetReqID(ctx); requestID != "" {
		logCtx = logCtx.Str("request_id", requestID)
	}

	if span := trace.SpanContextFromContext(ctx); span.HasTraceID() {
		logCtx = logCtx.Str("trace_id", span.TraceID().String())
	}

	logger := logCtx.Logger()

	return &logger
}

func ErrorWithStack(err error) {
	log.Error().Msgf("%+v", errors.WithStack(err))
}

func SetLogLevel(config *config.Config) {
	level, err := zerolog.ParseLevel(config.Server.LogLevel)
	if err != nil {
		level = zerolog.TraceLevel
		log.Trace().Str("loglevel", level.String()).Msg("Environment has no log level set up, using default.")
	} else {
		log.Trace().Str("loglevel", level.String()).Msg("Desired log level detected.")
	}

	zerolog.SetGlobalLevel(level)
}
