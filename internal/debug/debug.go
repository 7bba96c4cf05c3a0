// Package debug provides context-based debug mode with structured logging.
package debug

import (
	"context"
	"io"
	"log/slog"
	"os"
)

type ctxKey struct{}

func WithDebug(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, ctxKey{}, enabled)
}

// IsEnabled reports whether --debug was given for the running command.
func IsEnabled(ctx context.Context) bool {
	on, _ := ctx.Value(ctxKey{}).(bool)
	return on
}

// LoggerOptions controls where and how log records are written.
type LoggerOptions struct {
	Debug bool
	JSON  bool
	// Writer defaults to os.Stderr.
	Writer io.Writer
}

// SetupLogger configures slog based on debug mode, installs the logger as
// the slog default, and returns it so it can be handed to the API client.
func SetupLogger(opts LoggerOptions) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	ho := &slog.HandlerOptions{Level: slog.LevelWarn, ReplaceAttr: redact}
	if opts.Debug {
		ho.Level = slog.LevelDebug
	}
	var h slog.Handler = slog.NewTextHandler(w, ho)
	if opts.JSON {
		h = slog.NewJSONHandler(w, ho)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

var secretAttrs = map[string]bool{
	"app_secret":         true,
	"access_token":       true,
	"authorization":      true,
	"helpdesk_token":     true,
	"refresh_token":      true,
	"encrypt_key":        true,
	"verification_token": true,
}

// redact keeps credentials out of debug output.
func redact(_ []string, a slog.Attr) slog.Attr {
	if secretAttrs[a.Key] && a.Value.String() != "" {
		return slog.String(a.Key, "[redacted]")
	}
	return a
}
