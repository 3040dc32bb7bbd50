package logging

import (
	"context"
	"log/slog"
)

type contextKey int

const (
	commandKey contextKey = iota
	sceneKey
)

// WithCommand records the CLI command name on ctx.
func WithCommand(ctx context.Context, command string) context.Context {
	return context.WithValue(ctx, commandKey, command)
}

// WithScene records the scene document path on ctx.
func WithScene(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, sceneKey, path)
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	if cmd, ok := ctx.Value(commandKey).(string); ok && cmd != "" {
		fields = append(fields, slog.String(FieldCommand, cmd))
	}
	if path, ok := ctx.Value(sceneKey).(string); ok && path != "" {
		fields = append(fields, slog.String("scene", path))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	logger = OrNop(logger)
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = f
	}
	return logger.With(args...)
}
