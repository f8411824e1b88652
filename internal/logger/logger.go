// Package logger owns the process-wide slog logger and the request-scoped
// attributes attached to it.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]

func init() {
	Setup(os.Getenv("ENV"), os.Stdout)
}

// Setup installs the logger for env. Production writes JSON at info level;
// any other env writes text at debug level.
func Setup(env string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	var h slog.Handler = slog.NewTextHandler(w, opts)
	if env == "production" {
		opts.Level = slog.LevelInfo
		h = slog.NewJSONHandler(w, opts)
	}

	l := slog.New(h)
	current.Store(l)
	slog.SetDefault(l)
	return l
}

// Logger returns the installed logger.
func Logger() *slog.Logger {
	return current.Load()
}

type attrsKey struct{}

// with returns ctx carrying attr after any attributes already present.
// A repeated key replaces the earlier value.
func with(ctx context.Context, attr slog.Attr) context.Context {
	prev, _ := ctx.Value(attrsKey{}).([]slog.Attr)
	next := make([]slog.Attr, 0, len(prev)+1)
	for _, a := range prev {
		if a.Key != attr.Key {
			next = append(next, a)
		}
	}
	return context.WithValue(ctx, attrsKey{}, append(next, attr))
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return with(ctx, slog.String("request_id", requestID))
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return with(ctx, slog.String("user_id", userID))
}

// FromContext returns the installed logger with the attributes stored in ctx.
func FromContext(ctx context.Context) *slog.Logger {
	l := Logger()
	attrs, _ := ctx.Value(attrsKey{}).([]slog.Attr)
	for _, a := range attrs {
		if a.Value.String() != "" {
			l = l.With(a)
		}
	}
	return l
}
