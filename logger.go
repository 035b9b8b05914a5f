package mailbox

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the logging interface used by sessions.
//
// Implementations must be safe for concurrent use.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	WithAttrs(args ...any) Logger
}

const logComponent = "mailbox/session"

type loggerRef struct{ Logger }

var packageLogger atomic.Pointer[loggerRef]

func newDefaultLogger() Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	return SlogLogger(slog.New(h)).WithAttrs("component", logComponent)
}

// SetLogger replaces the logger used by the package. Passing nil restores
// the built-in slog logger writing to stderr.
func SetLogger(logger Logger) {
	if logger == nil {
		packageLogger.Store(&loggerRef{newDefaultLogger()})
		return
	}
	packageLogger.Store(&loggerRef{logger.WithAttrs("component", logComponent)})
}

// SetSlogLogger is SetLogger for a *slog.Logger.
func SetSlogLogger(logger *slog.Logger) {
	SetLogger(SlogLogger(logger))
}

// SlogLogger adapts a *slog.Logger to the Logger interface.
func SlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		return nil
	}
	return slogLogger{l: logger}
}

type slogLogger struct{ l *slog.Logger }

func (s slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s slogLogger) Info(msg string, args ...any) { s.l.Info(msg, args...) }
func (s slogLogger) Warn(msg string, args ...any) { s.l.Warn(msg, args...) }
func (s slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

func (s slogLogger) WithAttrs(args ...any) Logger {
	return slogLogger{l: s.l.With(args...)}
}

func baseLogger() Logger {
	if ref := packageLogger.Load(); ref != nil {
		return ref.Logger
	}
	ref := &loggerRef{newDefaultLogger()}
	if packageLogger.CompareAndSwap(nil, ref) {
		return ref.Logger
	}
	return packageLogger.Load().Logger
}

// sessionLogger tags entries with the session id and, when one is
// selected, the folder.
func sessionLogger(session, folder string) Logger {
	args := []any{"session", session}
	if folder != "" {
		args = append(args, "mailbox", folder)
	}
	return baseLogger().WithAttrs(args...)
}

// verbose logs at debug level, only when Verbose is set.
func verbose(l Logger, msg string, args ...any) {
	if Verbose {
		l.Debug(msg, args...)
	}
}

// log returns the logger for s in its current folder.
func (s *Session) log() Logger {
	return sessionLogger(s.logID(), s.folder)
}

// traceWriter turns the protocol trace written by the IMAP library into
// one debug entry per line, masking the password.
type traceWriter struct {
	log    Logger
	secret string
	buf    []byte
}

func (w *traceWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		line, rest, ok := bytes.Cut(w.buf, []byte("\n"))
		if !ok {
			break
		}
		w.buf = rest
		text := string(bytes.TrimSuffix(line, []byte("\r")))
		if w.secret != "" {
			text = strings.ReplaceAll(text, w.secret, "****")
		}
		w.log.Debug("protocol trace", "line", text)
	}
	return len(p), nil
}
