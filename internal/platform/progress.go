package platform

import (
	"context"
	"fmt"
)

// ProgressFunc receives human-readable status lines while a run is in flight.
type ProgressFunc func(msg string)

type progressKey struct{}

// WithProgress returns a context carrying fn.
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

// Progressf formats and forwards a status line to the callback in ctx.
// A context without a callback (MCP, daemon) drops the line.
func Progressf(ctx context.Context, format string, args ...any) {
	fn, ok := ctx.Value(progressKey{}).(ProgressFunc)
	if !ok || fn == nil {
		return
	}
	fn(fmt.Sprintf(format, args...))
}
