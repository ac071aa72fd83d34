package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger for env: "prod" writes JSON, "local" and "dev"
// write colored console lines. level, if non-empty, overrides the default
// level (debug, info, warn, error).
func New(env string, level string) (*zap.Logger, error) {
	var cfg zap.Config
	switch env {
	case "prod":
		cfg = zap.NewProductionConfig()
	case "", "local", "dev":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown environment %q for logger", env)
	}
	// stdout carries search results
	cfg.OutputPaths = []string{"stderr"}

	if level != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	l, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}

type ctxKey struct{}

// WithContext stores l in ctx.
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// Lookup returns the logger stored in ctx, if any.
func Lookup(ctx context.Context) (*zap.Logger, bool) {
	l, ok := ctx.Value(ctxKey{}).(*zap.Logger)
	return l, ok && l != nil
}

// FromContext returns the logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := Lookup(ctx); ok {
		return l
	}
	return zap.NewNop()
}
