// Package logger builds the portal's slog logger.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Options configure New. Zero values mean stdout, info level and a format
// derived from Env.
type Options struct {
	Service string
	Version string
	Env     string
	Level   string
	// Format is "json" or "text".
	Format string
	Output io.Writer
}

// New returns a logger whose records carry the service, version and
// environment, plus trace_id/span_id when ctx holds a span. The text format
// paints ERROR messages red.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	level := ParseLevel(opts.Level)

	var base slog.Handler
	if useJSON(opts) {
		base = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level, AddSource: true})
	} else {
		base = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	}

	h := &portalHandler{next: base, colorErrors: !useJSON(opts)}

	var attrs []any
	if opts.Service != "" {
		attrs = append(attrs, slog.String("service", opts.Service))
	}
	if opts.Version != "" {
		attrs = append(attrs, slog.String("version", opts.Version))
	}
	if opts.Env != "" {
		attrs = append(attrs, slog.String("environment", opts.Env))
	}
	return slog.New(h).With(attrs...)
}

// NewDiscard returns a logger that drops everything.
func NewDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps debug/info/warn/error to a slog level. Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func useJSON(opts Options) bool {
	switch opts.Format {
	case "json":
		return true
	case "text":
		return false
	}
	if _, inK8s := os.LookupEnv("KUBERNETES_SERVICE_HOST"); inK8s {
		return true
	}
	return opts.Env != "" && opts.Env != "local"
}

type portalHandler struct {
	next        slog.Handler
	colorErrors bool
}

func (h *portalHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *portalHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.colorErrors && r.Level >= slog.LevelError {
		red := slog.NewRecord(r.Time, r.Level, fmt.Sprintf("\x1b[31m%s\x1b[0m", r.Message), r.PC)
		r.Attrs(func(a slog.Attr) bool {
			red.AddAttrs(a)
			return true
		})
		r = red
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.next.Handle(ctx, r)
}

func (h *portalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &portalHandler{next: h.next.WithAttrs(attrs), colorErrors: h.colorErrors}
}

func (h *portalHandler) WithGroup(name string) slog.Handler {
	return &portalHandler{next: h.next.WithGroup(name), colorErrors: h.colorErrors}
}
