package logging

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// IntoContext stores logger tagged with the running CLI command.
func IntoContext(ctx context.Context, logger *zap.Logger, command string) context.Context {
	if logger == nil {
		return ctx
	}
	if command != "" {
		logger = logger.With(zap.String("command", command))
	}
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the stored logger, or a no-op logger when none was set.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
			return logger
		}
	}
	return zap.NewNop()
}
