package bindings

import (
	"context"
	"log/slog"

	"github.com/mge-engine/reflection"
	"github.com/mge-engine/reflection/config"
)

// LogSeverity is a set of log severities.
type LogSeverity uint8

const (
	SeverityNone    LogSeverity = 0
	SeverityError   LogSeverity = 1 << 0
	SeverityWarning LogSeverity = 1 << 1
	SeverityInfo    LogSeverity = 1 << 2
	SeverityDebug   LogSeverity = 1 << 3
	SeverityAll     LogSeverity = 0xff
)

// Level maps the most severe severity in s to a slog level.
func (s LogSeverity) Level() slog.Level {
	switch {
	case s&SeverityError != 0:
		return slog.LevelError
	case s&SeverityWarning != 0:
		return slog.LevelWarn
	case s&SeverityInfo != 0:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// Core returns the reflector registering log severities, the script log
// function and the configuration class.
func Core(opts Options) reflection.Reflector {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Configuration
	if cfg == nil {
		cfg = &config.Configuration{}
	}
	return &reflector{name: "core", reflect: func(r *reflection.Registry) error {
		mge, err := r.Module(ModuleName)
		if err != nil {
			return err
		}

		reflection.Type[LogSeverity](mge, "log_severity").
			EnumValue("NONE", SeverityNone).
			EnumValue("ERROR_SEVERITY", SeverityError).
			EnumValue("WARNING_SEVERITY", SeverityWarning).
			EnumValue("INFO_SEVERITY", SeverityInfo).
			EnumValue("DEBUG_SEVERITY", SeverityDebug).
			EnumValue("ALL", SeverityAll)

		reflection.Type[config.Configuration](mge, "configuration").
			DefaultConstructor().
			Constructor(config.ReadConfiguration).
			Method("contains_key", (*config.Configuration).ContainsKey).
			Method("value", (*config.Configuration).Value).
			Method("value", (*config.Configuration).ValueOr).
			Method("set", (*config.Configuration).Set).
			Method("empty", (*config.Configuration).Empty).
			Method("size", (*config.Configuration).Len).
			Method("key", (*config.Configuration).Key).
			Method("store", (*config.Configuration).Store)

		mge.RegisterVariable("configuration", cfg)
		mge.RegisterFunction("log", func(severity LogSeverity, message string) {
			if severity == SeverityNone {
				return
			}
			logger.Log(context.Background(), severity.Level(), message, slog.String("source", "script"))
		})
		return nil
	}}
}
