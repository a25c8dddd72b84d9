// Package log hands out named loggers, one per service ("search", "stream",
// "web", ...). Every line carries a "[name>]" prefix. Debug output can be
// enabled for the whole process or for individual services.
//
//	l := log.ForService("stream")
//	l.Infof("serving %d bytes", n)
//	l.Debugf("chunk %d trimmed to %d bytes", i, len(buf))
//
// The package name collides with the standard library; alias one of them when
// both are needed.
package log

import (
	"io"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a named logger.
type Logger struct {
	name  string
	sugar atomic.Pointer[zap.SugaredLogger]
}

var (
	globalDebug  atomic.Bool
	serviceDebug sync.Map // map[string]*atomic.Bool
	loggers      sync.Map // map[string]*Logger

	base atomic.Pointer[zap.Logger]
)

func init() {
	base.Store(newBase(os.Stderr))
}

func newBase(w io.Writer) *zap.Logger {
	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		MessageKey:    "msg",
		StacktraceKey: "stacktrace",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeName: func(name string, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + name + ">]")
		},
		EncodeDuration: zapcore.StringDurationEncoder,
	})
	// Level filtering happens in Debugf so per-service debug can be toggled.
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zapcore.DebugLevel)
	return zap.New(core)
}

// ForService returns the memoized logger for name.
func ForService(name string) *Logger {
	if name == "" {
		name = "unknown"
	}
	if l, ok := loggers.Load(name); ok {
		return l.(*Logger)
	}
	l := &Logger{name: name}
	l.sugar.Store(base.Load().Named(name).Sugar())
	actual, _ := loggers.LoadOrStore(name, l)
	return actual.(*Logger)
}

// SetOutput redirects every logger, existing and future, to w.
func SetOutput(w io.Writer) {
	if w == nil {
		return
	}
	b := newBase(w)
	base.Store(b)
	loggers.Range(func(_, v any) bool {
		l := v.(*Logger)
		l.sugar.Store(b.Named(l.name).Sugar())
		return true
	})
}

func SetGlobalDebug(enabled bool) {
	globalDebug.Store(enabled)
}

func GlobalDebug() bool {
	return globalDebug.Load()
}

func EnableDebugFor(name string) {
	if name == "" {
		return
	}
	val, _ := serviceDebug.LoadOrStore(name, &atomic.Bool{})
	val.(*atomic.Bool).Store(true)
}

func DisableDebugFor(name string) {
	if val, ok := serviceDebug.Load(name); ok {
		val.(*atomic.Bool).Store(false)
	}
}

// DebugEnabledFor reports whether debug lines for name are emitted.
func DebugEnabledFor(name string) bool {
	if globalDebug.Load() {
		return true
	}
	if val, ok := serviceDebug.Load(name); ok {
		return val.(*atomic.Bool).Load()
	}
	return false
}

func (l *Logger) Infof(format string, args ...any) {
	l.sugar.Load().Infof(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.sugar.Load().Warnf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.sugar.Load().Errorf(format, args...)
}

func (l *Logger) Debugf(format string, args ...any) {
	if !DebugEnabledFor(l.name) {
		return
	}
	l.sugar.Load().Debugf(format, args...)
}

// Infow logs msg with alternating key/value pairs.
func (l *Logger) Infow(msg string, keysAndValues ...any) {
	l.sugar.Load().Infow(msg, keysAndValues...)
}

func (l *Logger) Warnw(msg string, keysAndValues ...any) {
	l.sugar.Load().Warnw(msg, keysAndValues...)
}

// Flush writes any buffered entries.
func Flush() {
	_ = base.Load().Sync()
}
