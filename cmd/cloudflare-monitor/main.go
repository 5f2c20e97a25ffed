// Package main is the entry point for the Cloudflare Pages monitor.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"

	"github.com/CrashBytes/cloudflare-monitor/cmd/cloudflare-monitor/app"
	"github.com/CrashBytes/cloudflare-monitor/internal/config"
)

func main() {
	// stdout is reserved for command output such as poll results
	slog.SetDefault(newLogger(os.Stderr, logLevel()))

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger returns a JSON logger that stamps records logged with a span in their context
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(spanContextHandler{slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})})
}

// logLevel reads CFMON_LOG_LEVEL, then LOG_LEVEL
func logLevel() slog.Level {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()

	raw := v.GetString("log_level")
	if raw == "" {
		raw = os.Getenv("LOG_LEVEL")
	}
	return parseLevel(raw)
}

// parseLevel accepts the slog level names, offsets such as "info+2" and "warning".
// Anything else is reported and treated as info.
func parseLevel(raw string) slog.Level {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "":
		return slog.LevelInfo
	case "warning":
		return slog.LevelWarn
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		slog.Warn("Ignoring invalid log level", "value", raw)
		return slog.LevelInfo
	}
	return level
}

// spanContextHandler adds trace_id and span_id of the active span to every record
type spanContextHandler struct {
	slog.Handler
}

func (h spanContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h spanContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return spanContextHandler{h.Handler.WithAttrs(attrs)}
}

func (h spanContextHandler) WithGroup(name string) slog.Handler {
	return spanContextHandler{h.Handler.WithGroup(name)}
}
