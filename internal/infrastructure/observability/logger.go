package observability

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// InitLogger initializes the global zerolog logger. Development gets a
// console writer; every other environment logs JSON with caller info.
func InitLogger(serviceName, env, level string) {
	initLogger(os.Stdout, serviceName, env, level)
}

func initLogger(out io.Writer, serviceName, env, level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if env == "development" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}).With().
			Timestamp().
			Str("service", serviceName).
			Logger()
		return
	}

	log.Logger = zerolog.New(out).
		With().
		Timestamp().
		Caller().
		Str("service", serviceName).
		Str("env", env).
		Logger()
}

// LoggerFromContext returns the global logger enriched with trace ids and
// any fields attached with WithLogFields.
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	logger := log.Logger
	if fields, ok := ctx.Value(logFieldsKey{}).(map[string]string); ok {
		lc := logger.With()
		for k, v := range fields {
			lc = lc.Str(k, v)
		}
		logger = lc.Logger()
	}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		logger = logger.With().
			Str("trace_id", span.SpanContext().TraceID().String()).
			Str("span_id", span.SpanContext().SpanID().String()).
			Logger()
	}

	return &logger
}

type logFieldsKey struct{}

// WithLogFields attaches string fields that LoggerFromContext adds to every
// entry, e.g. the request id set by the logging middleware.
func WithLogFields(ctx context.Context, kv ...string) context.Context {
	fields := map[string]string{}
	if existing, ok := ctx.Value(logFieldsKey{}).(map[string]string); ok {
		for k, v := range existing {
			fields[k] = v
		}
	}
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	return context.WithValue(ctx, logFieldsKey{}, fields)
}

// GetLogger returns the global logger
func GetLogger() *zerolog.Logger {
	return &log.Logger
}
