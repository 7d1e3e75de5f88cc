package telemetry

import (
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

type Config struct {
	// ServiceName is prefixed to every component logger and names the tracer.
	ServiceName string `env:"FREEORION_SERVICE_NAME" envDefault:"freeorion"`

	// TracingEnabled when false installs a no-op tracer.
	TracingEnabled bool `env:"FREEORION_TRACING_ENABLED" envDefault:"false"`

	// Log level configuration ("debug", "info", "warn", "error").
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Log format configuration ("json", "pretty").
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// loadConfig loads the configuration from environment variables.
func loadConfig() (Config, error) {
	cfg := Config{}

	if err := env.Parse(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to parse telemetry config")
	}

	if err := cfg.validate(); err != nil {
		return cfg, eris.Wrap(err, "failed to validate telemetry config")
	}

	return cfg, nil
}

func (cfg *Config) validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err != nil {
		return eris.Errorf("invalid log level: %s (must be 'debug', 'info', 'warn', or 'error')", cfg.LogLevel)
	}
	if ParseLogFormat(cfg.LogFormat) == LogFormatUndefined {
		return eris.Errorf("invalid log format: %s (must be 'json' or 'pretty')", cfg.LogFormat)
	}
	if cfg.ServiceName == "" {
		return eris.New("service name cannot be empty")
	}
	return nil
}

func (cfg *Config) applyToOptions(opt *Options) {
	opt.ServiceName = cfg.ServiceName
	opt.TracingEnabled = cfg.TracingEnabled
	opt.LogLevel = cfg.LogLevel
	opt.LogFormat = ParseLogFormat(cfg.LogFormat)
}

type Options struct {
	ServiceName    string    // Name of the service, prefixed to component names
	TracingEnabled bool      // Use the globally registered tracer provider instead of a no-op
	LogLevel       string    // zerolog level name
	LogFormat      LogFormat // Log output format
}

func newDefaultOptions() Options {
	return Options{
		ServiceName:    "",
		TracingEnabled: false,
		LogLevel:       "",
		LogFormat:      LogFormatUndefined,
	}
}

// apply merges the given options into the current options, overriding non-zero values.
func (opt *Options) apply(newOpt Options) {
	if newOpt.ServiceName != "" {
		opt.ServiceName = newOpt.ServiceName
	}
	if newOpt.TracingEnabled {
		opt.TracingEnabled = true
	}
	if newOpt.LogLevel != "" {
		opt.LogLevel = newOpt.LogLevel
	}
	if newOpt.LogFormat != LogFormatUndefined {
		opt.LogFormat = newOpt.LogFormat
	}
}

func (opt *Options) validate() error {
	if opt.ServiceName == "" {
		return eris.New("service name cannot be empty")
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(opt.LogLevel)); err != nil {
		return eris.Errorf("invalid log level: %s", opt.LogLevel)
	}
	if opt.LogFormat == LogFormatUndefined {
		return eris.New("log format must be specified")
	}
	return nil
}

// LogFormat represents the log output format.
type LogFormat uint8

const (
	LogFormatUndefined LogFormat = iota
	LogFormatJSON
	LogFormatPretty
)

const (
	jsonFormatString      = "json"
	prettyFormatString    = "pretty"
	undefinedFormatString = "undefined"
)

func (f LogFormat) String() string {
	switch f {
	case LogFormatJSON:
		return jsonFormatString
	case LogFormatPretty:
		return prettyFormatString
	case LogFormatUndefined:
		return undefinedFormatString
	default:
		return undefinedFormatString
	}
}

// ParseLogFormat converts a string to LogFormat enum.
func ParseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case jsonFormatString:
		return LogFormatJSON
	case prettyFormatString:
		return LogFormatPretty
	default:
		return LogFormatUndefined
	}
}
