package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

type Logger struct {
	InfoLog  *slog.Logger
	ErrorLog *slog.Logger
}

func (l Logger) Info(message string, module string) {
	l.InfoLog.Info(message, "module", module)
}

func (l Logger) Warn(message string, module string) {
	l.InfoLog.Warn(message, "module", module)
}

func (l Logger) Error(message string) {
	l.ErrorLog.Error(message)
}

// NewLogger uses the bracket format on terminals and JSON otherwise.
func NewLogger() Logger {
	fd := os.Stdout.Fd()
	bracket := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	return NewLoggerTo(os.Stdout, os.Stderr, bracket)
}

func NewLoggerTo(out io.Writer, errOut io.Writer, bracket bool) Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	var handlerOut slog.Handler
	if bracket {
		handlerOut = NewHandler(out, opts)
	} else {
		handlerOut = slog.NewJSONHandler(out, opts)
	}
	handlerErr := slog.NewJSONHandler(errOut, opts)
	return Logger{
		InfoLog:  slog.New(handlerOut),
		ErrorLog: slog.New(handlerErr),
	}
}
