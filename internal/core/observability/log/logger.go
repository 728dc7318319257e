package log

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ Log = (*Logger)(nil)

// Logger is the zap-backed Log. Children made by With and Named share the
// parent's level, so SetLevel on any of them moves all of them.
type Logger struct {
	zl    *zap.Logger
	level zap.AtomicLevel
}

type options struct {
	out     io.Writer
	console bool
	sample  bool
}

type Option func(*options)

// WithOutput sends entries to w instead of stderr.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithConsole switches from JSON to the human readable console encoding.
func WithConsole() Option {
	return func(o *options) { o.console = true }
}

// WithoutSampling keeps every entry. Sampling is on by default and drops
// repeats of the same message past 100 per second.
func WithoutSampling() Option {
	return func(o *options) { o.sample = false }
}

func New(level Level, opts ...Option) *Logger {
	o := options{out: os.Stderr, sample: true}
	for _, opt := range opts {
		opt(&o)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if o.console {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	atomic := zap.NewAtomicLevelAt(level.zap())
	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(o.out)), atomic)
	if o.sample {
		core = zapcore.NewSamplerWithOptions(core, time.Second, 100, 100)
	}
	return &Logger{zl: zap.New(core), level: atomic}
}

// NewNop returns a logger that discards everything. Used by tests and by
// sessions that are run in bulk.
func NewNop() *Logger {
	return &Logger{zl: zap.NewNop(), level: zap.NewAtomicLevelAt(zap.FatalLevel)}
}

func (l *Logger) Log(level Level, msg string, fields ...Field) {
	if ce := l.zl.Check(level.zap(), msg); ce != nil {
		ce.Write(zapFields(fields)...)
	}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.Log(LevelDebug, msg, fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.Log(LevelInfo, msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.Log(LevelWarn, msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field) { l.Log(LevelError, msg, fields...) }

// Fatal logs and exits the process.
func (l *Logger) Fatal(msg string, fields ...Field) {
	l.zl.Fatal(msg, zapFields(fields)...)
}

func (l *Logger) With(fields ...Field) Log {
	return &Logger{zl: l.zl.With(zapFields(fields)...), level: l.level}
}

// Named appends a dotted segment to the logger name, e.g. "headless.run".
func (l *Logger) Named(name string) Log {
	return &Logger{zl: l.zl.Named(name), level: l.level}
}

func (l *Logger) SetLevel(level Level) { l.level.SetLevel(level.zap()) }

func (l *Logger) GetLevel() Level { return levelFromZap(l.level.Level()) }

// Sync flushes buffered entries. Errors from syncing stderr are ignored.
func (l *Logger) Sync() {
	_ = l.zl.Sync()
}

func (l *Logger) enabled(level Level) bool {
	return l.level.Enabled(level.zap())
}

func (l Level) zap() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelFatal:
		return zapcore.FatalLevel
	}
	return zapcore.InfoLevel
}

func levelFromZap(z zapcore.Level) Level {
	switch z {
	case zapcore.DebugLevel:
		return LevelDebug
	case zapcore.WarnLevel:
		return LevelWarn
	case zapcore.ErrorLevel:
		return LevelError
	case zapcore.FatalLevel:
		return LevelFatal
	}
	return LevelInfo
}

func zapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		out[i] = f.zap()
	}
	return out
}

func (f Field) zap() zap.Field {
	switch f.Type {
	case BoolType:
		return zap.Bool(f.Key, f.Value.(bool))
	case DurationType:
		return zap.Duration(f.Key, f.Value.(time.Duration))
	case Float64Type:
		return zap.Float64(f.Key, f.Value.(float64))
	case IntType:
		return zap.Int(f.Key, f.Value.(int))
	case Int64Type:
		return zap.Int64(f.Key, f.Value.(int64))
	case StringType:
		return zap.String(f.Key, f.Value.(string))
	case Uint64Type:
		return zap.Uint64(f.Key, f.Value.(uint64))
	case ErrorType:
		if err, ok := f.Value.(error); ok && err != nil {
			return zap.NamedError(f.Key, err)
		}
		return zap.Skip()
	}
	return zap.Any(f.Key, f.Value)
}
