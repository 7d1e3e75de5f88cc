package telemetry

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// newTracer returns the tracer registered with the global otel provider, or a no-op tracer when
// tracing is disabled. Exporter setup is left to the process that owns the provider.
func newTracer(opts Options) trace.Tracer {
	if !opts.TracingEnabled {
		return noop.NewTracerProvider().Tracer(opts.ServiceName)
	}
	return otel.Tracer(opts.ServiceName)
}

func newLogger(out io.Writer, opts Options) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}

	writer := out
	if opts.LogFormat == LogFormatPretty {
		writer = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()
}
