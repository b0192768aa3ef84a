// Package log wraps go.uber.org/zap the way the teacher's own log
// package wraps its logger: one named logger per module, plus a
// process-wide sink hook so an embedding process can capture every
// line (spec §6's "line-logger callback receives (prefix, text,
// enableTimestamp, level)").
package log

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level mirrors spec §6's logging channel ladder. zap has no native
// "notify" or "trace" level: notify is written at zap's info level and
// trace at its debug level, with no field marking them apart; a sink
// installed with SetSink still receives the original Level.
type Level int

const (
	LevelNone Level = iota
	LevelNotify
	LevelError
	LevelWarning
	LevelInfo
	LevelDebug
	LevelTrace
)

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelError:
		return zapcore.ErrorLevel
	case LevelWarning:
		return zapcore.WarnLevel
	case LevelInfo, LevelNotify:
		return zapcore.InfoLevel
	case LevelDebug, LevelTrace:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// SinkFunc matches spec §6's line-logger callback signature.
type SinkFunc func(prefix, text string, enableTimestamp bool, level Level)

var (
	mu       sync.Mutex // guards sink + base; formatting itself stays lock-free
	sink     SinkFunc
	base     *zap.Logger
	minLevel = LevelInfo
)

func init() {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}
	base = l
}

// SetSink installs the process-wide line callback. Pass nil to disable.
func SetSink(f SinkFunc) {
	mu.Lock()
	defer mu.Unlock()
	sink = f
}

// SetLevel sets the minimum level emitted process-wide.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
}

// Logger is a module-scoped logging handle, the equivalent of the
// teacher's log.NewModuleLogger(moduleName) return value.
type Logger struct {
	module string
	zap    *zap.SugaredLogger
}

// New returns a Logger scoped to module, e.g. log.New("messaging.dispatch").
func New(module string) *Logger {
	return &Logger{module: module, zap: base.Sugar().Named(module)}
}

func (lg *Logger) emit(level Level, msg string, kv ...interface{}) {
	mu.Lock()
	cur := minLevel
	s := sink
	mu.Unlock()
	if cur == LevelNone || level > cur {
		return
	}
	switch level {
	case LevelError:
		lg.zap.Errorw(msg, kv...)
	case LevelWarning:
		lg.zap.Warnw(msg, kv...)
	case LevelDebug, LevelTrace:
		lg.zap.Debugw(msg, kv...)
	default:
		lg.zap.Infow(msg, kv...)
	}
	if s != nil {
		s(lg.module, msg, true, level)
	}
}

func (lg *Logger) Info(msg string, kv ...interface{})  { lg.emit(LevelInfo, msg, kv...) }
func (lg *Logger) Warn(msg string, kv ...interface{})  { lg.emit(LevelWarning, msg, kv...) }
func (lg *Logger) Error(msg string, kv ...interface{}) { lg.emit(LevelError, msg, kv...) }
func (lg *Logger) Debug(msg string, kv ...interface{}) { lg.emit(LevelDebug, msg, kv...) }
func (lg *Logger) Trace(msg string, kv ...interface{}) { lg.emit(LevelTrace, msg, kv...) }

// Fatal logs at zap's fatal level (bypassing SetLevel and the sink) then
// aborts the process; reserved for
// *errs.Error of kind ProgrammerError per spec §7.
func (lg *Logger) Fatal(msg string, kv ...interface{}) {
	lg.zap.Fatalw(msg, kv...)
}
