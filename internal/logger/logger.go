package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type LoggerConfig struct {
	Level              string                 `json:"level,omitempty" mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Format             string                 `json:"format,omitempty" mapstructure:"format" validate:"oneof=json console"`
	OutputTarget       string                 `json:"outputTarget,omitempty" mapstructure:"output_target" validate:"oneof=stdout stderr"`
	TimeField          string                 `json:"timeField,omitempty" mapstructure:"time_field"`
	TimeFormat         string                 `json:"timeFormat,omitempty" mapstructure:"time_format"`
	ServiceName        string                 `json:"serviceName,omitempty" mapstructure:"service_name"`
	ServiceVersion     string                 `json:"serviceVersion,omitempty" mapstructure:"service_version"`
	Env                string                 `json:"env,omitempty" mapstructure:"env" validate:"oneof=dev test staging prod"`
	WithCaller         bool                   `json:"withCaller,omitempty" mapstructure:"with_caller"`
	Stacktrace         bool                   `json:"stacktrace,omitempty" mapstructure:"stacktrace"`
	StacktraceMinLevel string                 `json:"stacktraceMinLevel,omitempty" mapstructure:"stacktrace_min_level" validate:"oneof=debug info warn error fatal panic"`
	Fields             map[string]interface{} `json:"fields,omitempty" mapstructure:"fields"`
}

// debugLogPath receives a full copy of the log stream in dev+debug mode.
const debugLogPath = "logs/debug.log"

func New(logg *LoggerConfig) (logger zerolog.Logger, err error) {
	logg.setDefaults()

	v := validator.New()
	if err = v.Struct(logg); err != nil {
		return logger, fmt.Errorf("logger config validation error: %w", err)
	}

	// apply time settings from config
	zerolog.TimestampFieldName = logg.TimeField
	zerolog.TimeFieldFormat = timeLayout(logg.TimeFormat)

	var out io.Writer = os.Stdout
	if logg.OutputTarget == "stderr" {
		out = os.Stderr
	}
	if logg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	// development + debug: console for humans, file for full history
	if logg.Env == "dev" && logg.Level == "debug" {
		if file, ferr := openDebugFile(); ferr == nil {
			out = zerolog.MultiLevelWriter(out, file)
		}
	}

	logger = zerolog.New(out).
		With().
		Timestamp().
		Str("service", logg.ServiceName).
		Str("version", logg.ServiceVersion).
		Str("env", logg.Env).
		Logger()

	// add optional extras in a clean linear flow
	if logg.WithCaller {
		logger = logger.With().Caller().Logger()
	}
	if logg.Stacktrace {
		logger = logger.With().Stack().Logger()
	}
	if len(logg.Fields) > 0 {
		logger = logger.With().Fields(logg.Fields).Logger()
	}

	level, err := zerolog.ParseLevel(logg.Level)
	if err != nil {
		return logger, err
	}
	zerolog.SetGlobalLevel(level)

	return logger, nil
}

// openDebugFile makes sure the log directory exists; failure only disables the file copy.
func openDebugFile() (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(debugLogPath), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(debugLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
}

// timeLayout maps config names to zerolog layouts; anything else is used verbatim.
func timeLayout(name string) string {
	switch name {
	case "rfc3339":
		return time.RFC3339
	case "rfc3339nano":
		return time.RFC3339Nano
	case "unix":
		return zerolog.TimeFormatUnix
	case "unix_ms":
		return zerolog.TimeFormatUnixMs
	default:
		return name
	}
}

func (c *LoggerConfig) setDefaults() {
	// environment default
	if c.Env == "" {
		c.Env = "prod"
	}

	// level defaults depend on environment
	if c.Level == "" {
		if c.Env == "dev" {
			c.Level = "debug"
		} else {
			c.Level = "info"
		}
	}

	if c.Format == "" {
		if c.Env == "dev" {
			c.Format = "console"
		} else {
			c.Format = "json"
		}
	}
	if c.OutputTarget == "" {
		c.OutputTarget = "stdout"
	}

	if c.TimeField == "" {
		c.TimeField = "ts"
	}
	if c.TimeFormat == "" {
		c.TimeFormat = "rfc3339nano"
	}

	// caller & stacktrace defaults
	if !c.WithCaller && c.Env == "dev" {
		c.WithCaller = true
	}
	if !c.Stacktrace && c.Env != "dev" {
		c.Stacktrace = true
	}
	if c.StacktraceMinLevel == "" {
		c.StacktraceMinLevel = "error"
	}

	if c.ServiceName == "" {
		c.ServiceName = "foodgram-service"
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "0.1.0"
	}

	// ensure fields map is not nil
	if c.Fields == nil {
		c.Fields = make(map[string]interface{})
	}
}
