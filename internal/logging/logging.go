package logging

import (
	"io"
	"os"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/google/uuid"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

type Field struct {
	Key   string
	Value any
}

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	Enabled(level Level) bool
}

// charmLogger writes logfmt lines (time=... level=... msg=... key=value).
type charmLogger struct {
	base  *charmlog.Logger
	level Level
}

func New(out io.Writer, level Level) Logger {
	if out == nil {
		out = os.Stdout
	}
	base := charmlog.NewWithOptions(out, charmlog.Options{
		Level:           toCharmLevel(level),
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339Nano,
		Formatter:       charmlog.LogfmtFormatter,
	})
	return &charmLogger{base: base, level: level}
}

func Nop() Logger {
	return New(io.Discard, Error)
}

func (l *charmLogger) Enabled(level Level) bool {
	if l == nil {
		return false
	}
	return level >= l.level
}

func (l *charmLogger) With(fields ...Field) Logger {
	if l == nil {
		return Nop()
	}
	return &charmLogger{base: l.base.With(keyvals(fields)...), level: l.level}
}

func (l *charmLogger) Debug(msg string, fields ...Field) {
	if l.Enabled(Debug) {
		l.base.Debug(msg, keyvals(fields)...)
	}
}

func (l *charmLogger) Info(msg string, fields ...Field) {
	if l.Enabled(Info) {
		l.base.Info(msg, keyvals(fields)...)
	}
}

func (l *charmLogger) Warn(msg string, fields ...Field) {
	if l.Enabled(Warn) {
		l.base.Warn(msg, keyvals(fields)...)
	}
}

func (l *charmLogger) Error(msg string, fields ...Field) {
	if l.Enabled(Error) {
		l.base.Error(msg, keyvals(fields)...)
	}
}

func keyvals(fields []Field) []any {
	if len(fields) == 0 {
		return nil
	}
	out := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		value := field.Value
		switch v := value.(type) {
		case error:
			value = v.Error()
		case time.Duration:
			value = v.String()
		case nil:
			value = "null"
		}
		out = append(out, field.Key, value)
	}
	return out
}

func toCharmLevel(level Level) charmlog.Level {
	switch level {
	case Debug:
		return charmlog.DebugLevel
	case Warn:
		return charmlog.WarnLevel
	case Error:
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

func ParseLevel(raw string) Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return Debug
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

// NewRequestID returns a short random id for correlating log lines.
func NewRequestID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}
