package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/larkkit/lark-cli/internal/api"
	"github.com/larkkit/lark-cli/internal/iocontext"
)

// batchCall is one input line of "lark batch".
type batchCall struct {
	ID       any            `json:"id,omitempty"`
	Endpoint string         `json:"endpoint"`
	Params   map[string]any `json:"params,omitempty"`

	line     int
	endpoint api.Endpoint
}

type batchOutcome struct {
	Line     int                  `json:"line"`
	ID       any                  `json:"id,omitempty"`
	Endpoint string               `json:"endpoint"`
	OK       bool                 `json:"ok"`
	Data     json.RawMessage      `json:"data,omitempty"`
	LogID    string               `json:"log_id,omitempty"`
	Error    *api.StructuredError `json:"error,omitempty"`
}

// parseBatch reads JSONL calls. Blank lines and lines starting with # are
// skipped. Endpoints must be exact registry keys.
func parseBatch(data []byte) ([]batchCall, error) {
	var calls []batchCall
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var c batchCall
		if err := json.Unmarshal([]byte(line), &c); err != nil {
			return nil, fmt.Errorf("line %d: invalid JSON: %w", n, err)
		}
		e, ok := api.LookupEndpoint(c.Endpoint)
		if !ok {
			msg := fmt.Sprintf("line %d: unknown endpoint %q", n, c.Endpoint)
			if s := suggestEndpoints(c.Endpoint, 1); len(s) > 0 {
				msg += fmt.Sprintf(" (did you mean %s?)", s[0])
			}
			return nil, errors.New(msg)
		}
		if e.Caps.Has(api.FileDownload) || e.Caps.Has(api.FileUpload) {
			return nil, fmt.Errorf("line %d: %s transfers files; use 'lark call' instead", n, e.Key())
		}
		c.line, c.endpoint = n, e
		calls = append(calls, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	return calls, nil
}

// runBatch dispatches every call through one client, so all calls share its
// token store and a tenant token is fetched once.
func runBatch(ctx context.Context, client *api.Client, calls []batchCall, concurrency int64, progress bool, cmd *cobra.Command) []batchOutcome {
	var progressOut io.Writer
	if progress {
		progressOut = cmd.ErrOrStderr()
	}
	results := runBulk(ctx, len(calls), concurrency, progressOut,
		func(ctx context.Context, i int) (*api.Result, error) {
			c := calls[i]
			req, err := c.endpoint.Request(client.BaseURL, api.Values(c.Params))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", c.endpoint.Key(), err)
			}
			return client.RawRequest(ctx, req)
		})

	outcomes := make([]batchOutcome, 0, len(results))
	for _, r := range results {
		c := calls[r.Index]
		o := batchOutcome{Line: c.line, ID: c.ID, Endpoint: c.endpoint.Key(), OK: r.Err == nil}
		if r.Err != nil {
			o.Error = api.StructuredErrorFromError(r.Err)
		} else {
			o.Data, o.LogID = r.Value.Data, r.Value.LogID
		}
		outcomes = append(outcomes, o)
	}
	return outcomes
}

func newBatchCmd() *cobra.Command {
	var (
		input       string
		concurrency int
		progress    bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run many endpoint calls concurrently from JSONL",
		Long: `Run many endpoint calls concurrently.

Each input line is a JSON object naming a registry endpoint and its
parameters:

  {"id": "a", "endpoint": "bitable.getRecord", "params": {"app_token": "app1", "table_id": "tbl1", "record_id": "rec1"}}

Calls share one client and token store. Results keep the input order; a
failed call does not stop the others, but the command exits non-zero.`,
		Example: `  lark batch --input calls.jsonl --concurrency 10 -o jsonl
  cat calls.jsonl | lark batch --progress`,
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			data, err := iocontext.ReadInput(cmdContext(cmd), input)
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			calls, err := parseBatch(data)
			if err != nil {
				return err
			}
			if len(calls) == 0 {
				return errors.New("no calls in input")
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			if flags.DryRun {
				for _, c := range calls {
					req, err := c.endpoint.Request(client.BaseURL, api.Values(c.Params))
					if err != nil {
						return fmt.Errorf("line %d: %w", c.line, err)
					}
					if _, err := maybeDryRun(cmd, req); err != nil {
						return err
					}
				}
				return nil
			}

			outcomes := runBatch(cmdContext(cmd), client, calls, int64(concurrency), progress, cmd)
			failed := 0
			for _, o := range outcomes {
				if !o.OK {
					failed++
				}
			}

			if isJSON(cmd) {
				if err := printJSON(cmd, map[string]any{"items": outcomes}); err != nil {
					return err
				}
			} else {
				f := newFormatter(cmd)
				f.StartTable([]string{"LINE", "ENDPOINT", "STATUS", "DETAIL"})
				for _, o := range outcomes {
					status, detail := "ok", o.LogID
					if !o.OK {
						status, detail = "error", o.Error.Message
					}
					f.Row(fmt.Sprint(o.Line), o.Endpoint, status, detail)
				}
				if err := f.EndTable(); err != nil {
					return err
				}
			}

			if skipped := len(calls) - len(outcomes); skipped > 0 {
				return fmt.Errorf("%d of %d calls not run: interrupted", skipped, len(calls))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d calls failed", failed, len(calls))
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&input, "input", "i", "-", "JSONL file of calls (- for stdin)")
	cmd.Flags().IntVar(&concurrency, "concurrency", defaultConcurrency, "Max concurrent calls")
	cmd.Flags().BoolVar(&progress, "progress", false, "Show progress on stderr")
	flagAlias(cmd.Flags(), "concurrency", "cc")
	return cmd
}
