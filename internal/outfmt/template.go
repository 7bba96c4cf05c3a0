package outfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"text/template"
	"time"
)

var templateFuncs = template.FuncMap{
	"json": func(v any) (string, error) {
		var b strings.Builder
		err := encodeJSON(&b, v, false)
		return b.String(), err
	},
	"join":    strings.Join,
	"default": defaultValue,
	"ts":      formatTimestamp,
}

// WriteTemplate renders v with a text/template. Besides the builtins it
// offers json, join, default (for nil or empty values) and ts, which turns
// the platform's second or millisecond epoch values into RFC 3339 UTC.
// Missing map keys render as their zero value.
func WriteTemplate(w io.Writer, v any, tmpl string) error {
	t, err := template.New("output").Funcs(templateFuncs).Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return templateError("invalid template", err)
	}
	if err := t.Execute(w, v); err != nil {
		return templateError("template execution error", err)
	}
	return nil
}

// text/template reports positions as "output:LINE:COL:".
var templatePos = regexp.MustCompile(`:(\d+):(\d+):`)

func templateError(kind string, err error) error {
	if m := templatePos.FindStringSubmatch(err.Error()); m != nil {
		return fmt.Errorf("%s at line %s, column %s: %w", kind, m[1], m[2], err)
	}
	return fmt.Errorf("%s: %w", kind, err)
}

func defaultValue(def, v any) any {
	if v == nil || v == "" {
		return def
	}
	return v
}

// formatTimestamp leaves values it cannot read as numbers unchanged.
func formatTimestamp(v any) string {
	var n int64
	switch t := v.(type) {
	case int:
		n = int64(t)
	case int64:
		n = t
	case float64:
		n = int64(t)
	case json.Number, string:
		s := fmt.Sprint(t)
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return s
		}
		n = parsed
	default:
		return fmt.Sprint(v)
	}
	if n > 1e12 {
		return time.UnixMilli(n).UTC().Format(time.RFC3339)
	}
	return time.Unix(n, 0).UTC().Format(time.RFC3339)
}
