package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

// pgxLogger adapts zerolog.Logger to pgx's tracelog interface.
type pgxLogger struct {
	logger zerolog.Logger
}

func newPgxLogger(logger zerolog.Logger) *pgxLogger {
	l := logger.With().Str("component", "pgx").Logger()
	return &pgxLogger{logger: l}
}

// Log maps pgx levels to zerolog. Query arguments can carry password hashes
// and tokens, so they are only emitted at trace level.
func (l *pgxLogger) Log(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	if level == tracelog.LogLevelNone {
		return
	}

	var event *zerolog.Event
	switch level {
	case tracelog.LogLevelTrace:
		event = l.logger.Trace()
		if args, ok := data["args"]; ok {
			event = event.Interface("args", args)
		}
	case tracelog.LogLevelDebug:
		event = l.logger.Debug()
	case tracelog.LogLevelInfo:
		event = l.logger.Info()
	case tracelog.LogLevelWarn:
		event = l.logger.Warn()
	case tracelog.LogLevelError:
		event = l.logger.Error()
	default:
		event = l.logger.Info().Str("pgx_log_level", level.String())
	}
	if !event.Enabled() {
		return
	}

	for k, v := range data {
		switch val := v.(type) {
		case string:
			event = event.Str(k, val)
		case time.Duration:
			event = event.Dur(k, val)
		case error:
			event = event.AnErr(k, val)
		default:
			if k == "args" {
				continue
			}
			event = event.Interface(k, val)
		}
	}
	event.Msg(msg)
}
