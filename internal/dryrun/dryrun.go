// Package dryrun describes dispatcher requests instead of sending them.
package dryrun

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/larkkit/lark-cli/internal/api"
)

type ctxKey struct{}

// WithDryRun marks ctx so commands preview rather than send.
func WithDryRun(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, ctxKey{}, enabled)
}

func IsEnabled(ctx context.Context) bool {
	enabled, _ := ctx.Value(ctxKey{}).(bool)
	return enabled
}

// Preview is what would have been sent.
type Preview struct {
	DryRun   bool           `json:"dry_run"`
	Method   string         `json:"method"`
	Endpoint string         `json:"endpoint"`
	URL      string         `json:"url,omitempty"`
	Auth     string         `json:"auth,omitempty"`
	Body     map[string]any `json:"body,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
}

// FromRequest summarises req. Uploads show as name and size.
func FromRequest(req api.Request) *Preview {
	p := &Preview{
		DryRun:   true,
		Method:   req.Method,
		Endpoint: req.Scope + "." + req.API,
		URL:      req.URL,
		Auth:     req.Caps.String(),
	}
	if fields, ok := req.Body.(map[string]any); ok && len(fields) > 0 {
		p.Body = make(map[string]any, len(fields))
		for k, v := range fields {
			p.Body[k] = summarize(v)
		}
	}
	if req.Method == http.MethodDelete {
		p.Warnings = append(p.Warnings, "This action is irreversible")
	}
	if req.Caps.Has(api.NeedHelpdeskAuth) {
		p.Warnings = append(p.Warnings, "Requires helpdesk credentials")
	}
	return p
}

func summarize(v any) any {
	switch v := v.(type) {
	case api.File:
		return fmt.Sprintf("<file %s, %d bytes>", v.Name, len(v.Content))
	case []byte:
		return fmt.Sprintf("<%d bytes>", len(v))
	case nil, string, bool, int, int64, float64:
		return v
	}
	if data, err := json.Marshal(v); err == nil {
		return string(data)
	}
	return v
}

const rule = "───────────────────────────────────────"

// Write renders p for a terminal; body fields are sorted by name.
func (p *Preview) Write(w io.Writer) {
	var b strings.Builder
	fmt.Fprintf(&b, "\n[DRY-RUN] Would %s %s\n%s\n", p.Method, p.Endpoint, rule)
	if p.URL != "" {
		fmt.Fprintf(&b, "  url: %s\n", p.URL)
	}
	if p.Auth != "" {
		fmt.Fprintf(&b, "  auth: %s\n", p.Auth)
	}
	keys := make([]string, 0, len(p.Body))
	for k := range p.Body {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "  body.%s: %v\n", k, p.Body[k])
	}
	if len(p.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, warning := range p.Warnings {
			fmt.Fprintf(&b, "  ! %s\n", warning)
		}
	}
	fmt.Fprintf(&b, "%s\nNo changes made (dry-run mode)\n", rule)
	_, _ = io.WriteString(w, b.String())
}
