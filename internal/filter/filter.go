// Package filter runs jq expressions over decoded API responses.
package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/itchyny/gojq"
)

// NormalizeExpression undoes the \! escaping zsh applies even inside single
// quotes, which would otherwise break "!=".
func NormalizeExpression(expr string) string {
	return strings.ReplaceAll(expr, `\!`, `!`)
}

// Query is a compiled jq expression with its $name variables bound.
type Query struct {
	expr   string
	code   *gojq.Code
	values []any
}

// Compile parses expression and binds args as $name string variables, the
// way jq's --arg does.
func Compile(expression string, args map[string]string) (*Query, error) {
	expression = NormalizeExpression(expression)
	parsed, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}

	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)
	vars := make([]string, len(names))
	values := make([]any, len(names))
	for i, name := range names {
		vars[i] = "$" + name
		values[i] = args[name]
	}

	code, err := gojq.Compile(parsed, gojq.WithVariables(vars))
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	return &Query{expr: expression, code: code, values: values}, nil
}

// Run evaluates the query. data must be plain JSON values (maps, slices,
// float64, string, bool, nil). One result is returned as is; several
// become a slice.
//
// A root-array query such as ".[]" on a list page ({"items": [...]}) runs
// against the items instead of failing. Map iteration order is not fixed,
// so any non-object element of the page may be the one reported.
func (q *Query) Run(data any) (any, error) {
	results, err := q.collect(data)
	if err != nil && q.isRootArrayQuery() && strings.Contains(err.Error(), "expected an object but got") {
		if items, ok := pageItems(data); ok {
			if fallback, ferr := q.collect(items); ferr == nil {
				results, err = fallback, nil
			}
		}
	}
	if err != nil {
		return nil, err
	}
	if len(results) == 1 {
		return results[0], nil
	}
	return results, nil
}

func (q *Query) collect(data any) ([]any, error) {
	iter := q.code.Run(data, q.values...)
	var results []any
	for {
		v, ok := iter.Next()
		if !ok {
			return results, nil
		}
		if err, ok := v.(error); ok {
			return nil, fmt.Errorf("filter error: %w", err)
		}
		results = append(results, v)
	}
}

func (q *Query) isRootArrayQuery() bool {
	expr := strings.TrimSpace(q.expr)
	return strings.HasPrefix(expr, ".[]") || strings.HasPrefix(expr, "[.[]") || strings.HasPrefix(expr, "(.[]")
}

func pageItems(data any) ([]any, bool) {
	m, ok := data.(map[string]any)
	if !ok {
		return nil, false
	}
	items, ok := m["items"].([]any)
	return items, ok
}

// Apply runs expression over data. An empty expression returns data.
func Apply(data any, expression string) (any, error) {
	return ApplyArgs(data, expression, nil)
}

// ApplyArgs is Apply with $name variables bound.
func ApplyArgs(data any, expression string, args map[string]string) (any, error) {
	if expression == "" {
		return data, nil
	}
	q, err := Compile(expression, args)
	if err != nil {
		return nil, err
	}
	return q.Run(data)
}
