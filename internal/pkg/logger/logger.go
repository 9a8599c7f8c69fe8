package logger

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

var (
	mx   sync.RWMutex
	base = zap.NewNop()
)

// Init заменяет глобальный логгер. level: debug, info, warn, error.
func Init(level string, development bool) error {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	SetLogger(l)
	return nil
}

func SetLogger(l *zap.Logger) {
	mx.Lock()
	defer mx.Unlock()
	base = l
}

func Sync() {
	_ = get().Sync()
}

// WithFields возвращает контекст, все записи лога из которого будут содержать fields.
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	prev, _ := ctx.Value(ctxKey{}).([]zap.Field)
	merged := make([]zap.Field, 0, len(prev)+len(fields))
	merged = append(merged, prev...)
	merged = append(merged, fields...)
	return context.WithValue(ctx, ctxKey{}, merged)
}

func get() *zap.Logger {
	mx.RLock()
	defer mx.RUnlock()
	return base
}

func fromCtx(ctx context.Context) *zap.Logger {
	l := get()
	if ctx == nil {
		return l
	}
	if fields, ok := ctx.Value(ctxKey{}).([]zap.Field); ok && len(fields) > 0 {
		return l.With(fields...)
	}
	return l
}

func Debug(ctx context.Context, msg string, fields ...zap.Field) {
	fromCtx(ctx).Debug(msg, fields...)
}

func Info(ctx context.Context, msg string, fields ...zap.Field) {
	fromCtx(ctx).Info(msg, fields...)
}

func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	fromCtx(ctx).Warn(msg, fields...)
}

func Error(ctx context.Context, msg string, fields ...zap.Field) {
	fromCtx(ctx).Error(msg, fields...)
}

func Debugf(ctx context.Context, format string, args ...any) {
	fromCtx(ctx).Sugar().Debugf(format, args...)
}

func Infof(ctx context.Context, format string, args ...any) {
	fromCtx(ctx).Sugar().Infof(format, args...)
}

func Warnf(ctx context.Context, format string, args ...any) {
	fromCtx(ctx).Sugar().Warnf(format, args...)
}

func Errorf(ctx context.Context, format string, args ...any) {
	fromCtx(ctx).Sugar().Errorf(format, args...)
}

func Fatal(ctx context.Context, args ...any) {
	fromCtx(ctx).Sugar().Fatal(args...)
}
