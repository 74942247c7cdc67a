package logging

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Level = zerolog.Level

const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
)

// Func receives formatted diagnostic lines in place of the zerolog output.
type Func func(level Level, msg string)

func Debugf(format string, args ...any) { log.Debug().Msgf(format, args...) }
func Infof(format string, args ...any)  { log.Info().Msgf(format, args...) }
func Warnf(format string, args ...any)  { log.Warn().Msgf(format, args...) }
func Errf(format string, args ...any)   { log.Error().Msgf(format, args...) }

// Logf writes an unleveled line; tests use it to narrate a path.
func Logf(format string, args ...any) { log.Log().Msgf(format, args...) }

// Logger tags lines with a plugin id and optionally diverts them to a callback.
type Logger struct {
	pluginID string
	fn       Func
}

func New(pluginID string, fn Func) Logger {
	return Logger{pluginID: pluginID, fn: fn}
}

// WithPluginID returns a copy bound to a new plugin id.
func (l Logger) WithPluginID(pluginID string) Logger {
	l.pluginID = pluginID
	return l
}

func (l Logger) Debugf(format string, args ...any) { l.emit(DebugLevel, format, args) }
func (l Logger) Infof(format string, args ...any)  { l.emit(InfoLevel, format, args) }
func (l Logger) Warnf(format string, args ...any)  { l.emit(WarnLevel, format, args) }
func (l Logger) Errf(format string, args ...any)   { l.emit(ErrorLevel, format, args) }

func (l Logger) emit(level Level, format string, args []any) {
	if l.fn != nil {
		l.fn(level, fmt.Sprintf(format, args...))
		return
	}
	ev := log.WithLevel(level)
	if l.pluginID != "" {
		ev = ev.Str("plugin", l.pluginID)
	}
	ev.Msgf(format, args...)
}
