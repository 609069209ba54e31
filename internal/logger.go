package internal

import (
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Logger is a slog logger that tags every record with the kind and name
// of the component that emitted it.
type Logger struct {
	*slog.Logger

	kind string
	name string
}

// NewLogger returns a tint backed logger writing to stderr
// (or to a colorable stdout on windows).
func NewLogger(kind, name string) *Logger {
	if runtime.GOOS == "windows" {
		return NewLoggerWithWriter(kind, name, colorable.NewColorableStdout(), false)
	}

	w := os.Stderr
	return NewLoggerWithWriter(kind, name, w, !isatty.IsTerminal(w.Fd()))
}

// NewLoggerWithWriter returns a logger writing to w.
func NewLoggerWithWriter(kind, name string, w io.Writer, noColor bool) *Logger {
	handler := tint.NewHandler(w, &tint.Options{
		Level:   slog.LevelDebug,
		NoColor: noColor,
	})

	return &Logger{
		Logger: slog.New(handler),

		kind: kind,
		name: name,
	}
}

func (l *Logger) getInfo() slog.Attr {
	return slog.Group("info", slog.String("kind", l.kind), slog.String("name", l.name))
}

func (l *Logger) getArgs(args ...any) []any {
	return append([]any{l.getInfo()}, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.Logger.Debug(msg, l.getArgs(args...)...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.Logger.Info(msg, l.getArgs(args...)...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.Logger.Warn(msg, l.getArgs(args...)...)
}

func (l *Logger) Error(msg string, err error, args ...any) {
	tmpArgs := append([]any{tint.Err(err)}, args...)
	l.Logger.Error(msg, l.getArgs(tmpArgs...)...)
}
