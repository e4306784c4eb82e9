// Package logger wraps zap behind a small interface so that services and
// handlers can be tested with a no-op logger.
package logger

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the logging surface used across the application.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	Sync() error
}

// Field is a single structured log attribute.
type Field struct {
	zap.Field
}

// Options configures New.
type Options struct {
	Environment string // "dev" selects the console encoder, anything else JSON
	Level       string // debug, info, warn, error
	Service     string
	File        string // optional path of a rotated log file
}

type zapLogger struct {
	z *zap.Logger
}

// New creates a zap backed Logger writing to stdout and, when opts.File is
// set, to a lumberjack rotated file as well.
func New(opts Options) (Logger, error) {
	level := parseLevel(opts.Level)

	var encoder zapcore.Encoder
	if opts.Environment == "dev" || opts.Environment == "development" {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		ec := zap.NewProductionEncoderConfig()
		ec.TimeKey = "time"
		ec.MessageKey = "msg"
		ec.EncodeLevel = zapcore.LowercaseLevelEncoder
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		ec.EncodeDuration = zapcore.MillisDurationEncoder
		ec.EncodeCaller = zapcore.ShortCallerEncoder
		encoder = zapcore.NewJSONEncoder(ec)
	}

	sinks := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if opts.File != "" {
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(sinks...), zap.NewAtomicLevelAt(level))
	z := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zap.ErrorLevel))
	if opts.Service != "" {
		z = z.With(zap.String("service", opts.Service), zap.String("environment", opts.Environment))
	}
	return &zapLogger{z: z}, nil
}

// NewNop returns a Logger that discards everything.
func NewNop() Logger {
	return &zapLogger{z: zap.NewNop()}
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zap.DebugLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, unwrap(fields)...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.z.Info(msg, unwrap(fields)...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, unwrap(fields)...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.z.Error(msg, unwrap(fields)...) }

func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{z: l.z.With(unwrap(fields)...)}
}

func (l *zapLogger) Sync() error { return l.z.Sync() }

func unwrap(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		out[i] = f.Field
	}
	return out
}

// String creates a string field.
func String(key, val string) Field { return Field{zap.String(key, val)} }

// Int creates an int field.
func Int(key string, val int) Field { return Field{zap.Int(key, val)} }

// Int64 creates an int64 field.
func Int64(key string, val int64) Field { return Field{zap.Int64(key, val)} }

// Uint64 creates a uint64 field.
func Uint64(key string, val uint64) Field { return Field{zap.Uint64(key, val)} }

// Bool creates a bool field.
func Bool(key string, val bool) Field { return Field{zap.Bool(key, val)} }

// Duration creates a duration field.
func Duration(key string, val time.Duration) Field { return Field{zap.Duration(key, val)} }

// Error creates an "error" field; a nil error is rendered as "nil".
func Error(err error) Field {
	if err == nil {
		return Field{zap.String("error", "nil")}
	}
	return Field{zap.String("error", err.Error())}
}

// Any creates a field with an arbitrary value.
func Any(key string, val interface{}) Field { return Field{zap.Any(key, val)} }
