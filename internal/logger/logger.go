package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging contract used across the harvester.
// Each call carries a short human message, a machine friendly event name and
// a bag of fields.
type Logger interface {
	DebugObj(msg, event string, fields map[string]any)
	InfoObj(msg, event string, fields map[string]any)
	WarnObj(msg, event string, fields map[string]any)
	ErrorObj(msg, event string, fields map[string]any)
	Sync() error
}

// Options controls how the zap logger is built.
type Options struct {
	Level  string
	Format string // "json" or "console"
}

type zapLogger struct {
	base *zap.Logger
}

// New builds a zap backed Logger writing to stderr.
func New(opts Options) (Logger, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	case "console":
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level)
	return &zapLogger{base: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2))}, nil
}

// FromZap wraps an existing zap logger.
func FromZap(l *zap.Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return &zapLogger{base: l}
}

func parseLevel(raw string) (zapcore.Level, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(raw))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("parse log level %q: %w", raw, err)
	}
	return lvl, nil
}

func (l *zapLogger) DebugObj(msg, event string, fields map[string]any) {
	l.log(zapcore.DebugLevel, msg, event, fields)
}

func (l *zapLogger) InfoObj(msg, event string, fields map[string]any) {
	l.log(zapcore.InfoLevel, msg, event, fields)
}

func (l *zapLogger) WarnObj(msg, event string, fields map[string]any) {
	l.log(zapcore.WarnLevel, msg, event, fields)
}

func (l *zapLogger) ErrorObj(msg, event string, fields map[string]any) {
	l.log(zapcore.ErrorLevel, msg, event, fields)
}

func (l *zapLogger) Sync() error {
	return l.base.Sync()
}

func (l *zapLogger) log(level zapcore.Level, msg, event string, fields map[string]any) {
	ce := l.base.Check(level, msg)
	if ce == nil {
		return
	}
	zf := make([]zap.Field, 0, len(fields)+1)
	if event != "" {
		zf = append(zf, zap.String("event", event))
	}
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	ce.Write(zf...)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) DebugObj(string, string, map[string]any) {}
func (NopLogger) InfoObj(string, string, map[string]any) {}
func (NopLogger) WarnObj(string, string, map[string]any) {}
func (NopLogger) ErrorObj(string, string, map[string]any) {}
func (NopLogger) Sync() error { return nil }
