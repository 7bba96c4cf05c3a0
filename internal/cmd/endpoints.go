package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/larkkit/lark-cli/internal/api"
	"github.com/larkkit/lark-cli/internal/resolve"
)

type endpointRow struct {
	Key    string   `json:"key"`
	Scope  string   `json:"scope"`
	Name   string   `json:"name"`
	Method string   `json:"method"`
	Path   string   `json:"path"`
	Query  []string `json:"query,omitempty"`
	Body   []string `json:"body,omitempty"`
	Auth   string   `json:"auth"`
	Doc    string   `json:"doc,omitempty"`
}

func toEndpointRow(e api.Endpoint) endpointRow {
	return endpointRow{
		Key:    e.Key(),
		Scope:  e.Scope,
		Name:   e.Name,
		Method: e.Method,
		Path:   e.Path,
		Query:  e.Query,
		Body:   e.Body,
		Auth:   e.Caps.String(),
		Doc:    e.Doc,
	}
}

// findEndpoints filters the registry by scope and, when query is set, ranks
// fuzzy matches best-first.
func findEndpoints(query, scope string, limit int) []api.Endpoint {
	var pool []api.Endpoint
	for _, e := range api.Endpoints() {
		if scope == "" || strings.EqualFold(e.Scope, scope) {
			pool = append(pool, e)
		}
	}
	if strings.TrimSpace(query) == "" {
		if limit > 0 && len(pool) > limit {
			pool = pool[:limit]
		}
		return pool
	}

	items := make([]resolve.Named, 0, len(pool))
	byKey := make(map[string]api.Endpoint, len(pool))
	for _, e := range pool {
		items = append(items, resolve.Named{ID: e.Key(), Name: e.Key()})
		byKey[e.Key()] = e
	}
	if limit <= 0 {
		limit = len(items)
	}
	var out []api.Endpoint
	for _, m := range resolve.Rank(query, items, limit) {
		out = append(out, byKey[m.ID])
	}
	return out
}

func newEndpointsCmd() *cobra.Command {
	var (
		scope string
		limit int
	)

	cmd := &cobra.Command{
		Use:     "endpoints [query]",
		Aliases: []string{"ep"},
		Short:   "List or search registered endpoints",
		Example: `  lark endpoints
  lark endpoints --scope bitable
  lark endpoints record
  lark endpoints upload --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) > 0 {
				query = args[0]
			}
			found := findEndpoints(query, scope, limit)

			rows := make([]endpointRow, 0, len(found))
			for _, e := range found {
				rows = append(rows, toEndpointRow(e))
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"items": rows})
			}

			f := newFormatter(cmd)
			if len(rows) == 0 {
				f.Empty("No endpoints found")
				return nil
			}
			f.StartTable([]string{"KEY", "METHOD", "PATH", "AUTH"})
			for _, r := range rows {
				f.Row(r.Key, r.Method, r.Path, r.Auth)
			}
			return f.EndTable()
		}),
	}

	cmd.Flags().StringVar(&scope, "scope", "", "Only endpoints of this service (e.g. bitable)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results (0 for all)")
	return cmd
}
