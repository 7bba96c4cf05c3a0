// Package outfmt renders command results as text tables, JSON or JSONL,
// optionally filtered by a jq query or rendered through a template.
package outfmt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// Mode is the output format selected with --output.
type Mode int

const (
	// Text is the default human-readable output
	Text Mode = iota
	// JSON outputs structured JSON
	JSON
	// JSONL outputs one JSON value per line; lists are split into their items
	JSONL
)

// Parse parses an output mode string
func Parse(s string) (Mode, error) {
	switch s {
	case "text", "":
		return Text, nil
	case "json":
		return JSON, nil
	case "jsonl", "ndjson":
		return JSONL, nil
	default:
		return Text, fmt.Errorf("invalid output format: %q (use 'text', 'json', 'jsonl' or 'ndjson')", s)
	}
}

func (m Mode) String() string {
	switch m {
	case JSON:
		return "json"
	case JSONL:
		return "jsonl"
	default:
		return "text"
	}
}

// Options is everything a Formatter needs to know about the requested
// output. The root command builds it once from the global flags.
type Options struct {
	Mode     Mode
	Compact  bool
	Query    string
	Args     map[string]string
	Template string
}

type optionsKey struct{}

// WithOptions stores o in ctx.
func WithOptions(ctx context.Context, o Options) context.Context {
	return context.WithValue(ctx, optionsKey{}, o)
}

// OptionsFrom returns the options stored in ctx, or text output.
func OptionsFrom(ctx context.Context) Options {
	o, _ := ctx.Value(optionsKey{}).(Options)
	return o
}

// WithMode overrides only the mode of the options in ctx.
func WithMode(ctx context.Context, mode Mode) context.Context {
	o := OptionsFrom(ctx)
	o.Mode = mode
	return WithOptions(ctx, o)
}

// IsJSON reports whether ctx asks for JSON or JSONL.
func IsJSON(ctx context.Context) bool {
	return OptionsFrom(ctx).Mode != Text
}

// WriteJSON writes v as indented JSON without HTML escaping.
func WriteJSON(w io.Writer, v any) error {
	return encodeJSON(w, v, false)
}

func encodeJSON(w io.Writer, v any, compact bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// WriteJSONL writes v as compact lines. A list, or an object carrying an
// items list, produces one line per element.
func WriteJSONL(w io.Writer, v any) error {
	lines := []any{v}
	switch t := v.(type) {
	case []any:
		lines = t
	case map[string]any:
		if items, ok := t["items"].([]any); ok {
			lines = items
		}
	}
	for _, line := range lines {
		if err := encodeJSON(w, line, true); err != nil {
			return err
		}
	}
	return nil
}
