package utils

import (
	"context"
	"log/slog"
	"os"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	DebugCtx(ctx context.Context, msg string, args ...any)
	InfoCtx(ctx context.Context, msg string, args ...any)
	WarnCtx(ctx context.Context, msg string, args ...any)
	ErrorCtx(ctx context.Context, msg string, args ...any)
}

const prefix = "[burrow] "

// SlogLogger is the default Logger, writing text records to stderr.
type SlogLogger struct {
	logger *slog.Logger
}

func NewLogger(level slog.Level) *SlogLogger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	return &SlogLogger{logger: logger}
}

func (d *SlogLogger) Debug(msg string, args ...any) {
	d.logger.Debug(prefix+msg, args...)
}

func (d *SlogLogger) Info(msg string, args ...any) {
	d.logger.Info(prefix+msg, args...)
}

func (d *SlogLogger) Warn(msg string, args ...any) {
	d.logger.Warn(prefix+msg, args...)
}

func (d *SlogLogger) Error(msg string, args ...any) {
	d.logger.Error(prefix+msg, args...)
}

var logArgsKey int

func getLogArgs(ctx context.Context) []any {
	args := ctx.Value(&logArgsKey)
	if args == nil {
		return nil
	}
	return args.([]any)
}

// WithLogArgs attaches key-value pairs to the context; the Ctx logging
// variants append them to every record.
func WithLogArgs(ctx context.Context, args ...any) context.Context {
	merged := append(getLogArgs(ctx), args...)
	return context.WithValue(ctx, &logArgsKey, merged)
}

func (d *SlogLogger) DebugCtx(ctx context.Context, msg string, args ...any) {
	d.logger.Debug(prefix+msg, append(args, getLogArgs(ctx)...)...)
}

func (d *SlogLogger) InfoCtx(ctx context.Context, msg string, args ...any) {
	d.logger.Info(prefix+msg, append(args, getLogArgs(ctx)...)...)
}

func (d *SlogLogger) WarnCtx(ctx context.Context, msg string, args ...any) {
	d.logger.Warn(prefix+msg, append(args, getLogArgs(ctx)...)...)
}

func (d *SlogLogger) ErrorCtx(ctx context.Context, msg string, args ...any) {
	d.logger.Error(prefix+msg, append(args, getLogArgs(ctx)...)...)
}

// NopLogger discards everything. Handy in tests.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any)                     {}
func (NopLogger) Info(string, ...any)                      {}
func (NopLogger) Warn(string, ...any)                      {}
func (NopLogger) Error(string, ...any)                     {}
func (NopLogger) DebugCtx(context.Context, string, ...any) {}
func (NopLogger) InfoCtx(context.Context, string, ...any)  {}
func (NopLogger) WarnCtx(context.Context, string, ...any)  {}
func (NopLogger) ErrorCtx(context.Context, string, ...any) {}
