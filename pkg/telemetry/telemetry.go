package telemetry

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

type Telemetry struct {
	Logger      zerolog.Logger
	Tracer      trace.Tracer
	serviceName string
}

// New builds the logger and tracer for a service. Values loaded from the environment are
// overridden by the non-zero fields of opts.
func New(opts Options) (Telemetry, error) {
	return newTelemetry(os.Stdout, opts)
}

func newTelemetry(out io.Writer, opts Options) (Telemetry, error) {
	config, err := loadConfig()
	if err != nil {
		return Telemetry{}, eris.Wrap(err, "failed to load telemetry config")
	}

	options := newDefaultOptions()
	config.applyToOptions(&options)
	options.apply(opts)
	if err := options.validate(); err != nil {
		return Telemetry{}, eris.Wrap(err, "invalid telemetry options")
	}

	return Telemetry{
		Logger:      newLogger(out, options),
		Tracer:      newTracer(options),
		serviceName: options.ServiceName,
	}, nil
}

// GetLogger returns a component-specific logger.
func (t *Telemetry) GetLogger(component string) zerolog.Logger {
	return t.Logger.With().Str("component", t.serviceName+"."+component).Logger()
}

// GetLoggerWithTrace returns a component-specific logger enriched with trace context.
func (t *Telemetry) GetLoggerWithTrace(ctx context.Context, component string) zerolog.Logger {
	span := trace.SpanFromContext(ctx)

	logger := t.Logger.With().Str("component", t.serviceName+"."+component)

	if span.IsRecording() {
		spanCtx := span.SpanContext()
		logger = logger.
			Str("trace_id", spanCtx.TraceID().String()).
			Str("span_id", spanCtx.SpanID().String())
	}

	return logger.Logger()
}

func init() { //nolint:gochecknoinits // Its fine
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}

	log.Logger = zerolog.New(consoleWriter). //nolint:reassign // Its fine
							With().
							Timestamp().
							Caller().
							Logger()
}

// GetGlobalLogger returns a component-specific logger using the global console logger.
func GetGlobalLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
