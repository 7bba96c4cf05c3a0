package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/larkkit/lark-cli/internal/api"
	"github.com/larkkit/lark-cli/internal/dryrun"
	"github.com/larkkit/lark-cli/internal/iocontext"
	"github.com/larkkit/lark-cli/internal/outfmt"
	"github.com/larkkit/lark-cli/internal/validation"
)

// getJQQuery returns the jq query from --jq or --query flags.
// --jq takes precedence over --query for consistency with gh CLI.
func getJQQuery() string {
	if flags.JQ != "" {
		return flags.JQ
	}
	return flags.Query
}

func newTabWriter(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

func newTabWriterFromCmd(cmd *cobra.Command) *tabwriter.Writer {
	return newTabWriter(iocontext.GetIO(cmd.Context()).Out)
}

func newFormatter(cmd *cobra.Command) *outfmt.Formatter {
	ioStreams := iocontext.GetIO(cmd.Context())
	return outfmt.NewFormatter(cmd.Context(), ioStreams.Out, ioStreams.ErrOut)
}

// printJSON outputs data as JSON with optional query/template filtering.
// Text mode falls back to indented JSON for payloads without a table view.
func printJSON(cmd *cobra.Command, v any) error {
	if !isJSON(cmd) {
		return outfmt.WriteJSON(iocontext.GetIO(cmd.Context()).Out, v)
	}
	return newFormatter(cmd).Output(v)
}

// isJSON checks if the command context wants JSON output
func isJSON(cmd *cobra.Command) bool {
	return outfmt.IsJSON(cmd.Context())
}

// printIfNotQuiet prints to stdout only if not in quiet mode
func printIfNotQuiet(cmd *cobra.Command, format string, args ...any) {
	if !flags.Quiet {
		ioStreams := iocontext.GetIO(cmd.Context())
		_, _ = fmt.Fprintf(ioStreams.Out, format, args...)
	}
}

func printAction(cmd *cobra.Command, action, resource string, id any, name string) {
	if flags.Quiet || isJSON(cmd) {
		return
	}

	ioStreams := iocontext.GetIO(cmd.Context())
	message := fmt.Sprintf("%s %s", action, resource)
	if id != nil {
		if value, ok := id.(string); !ok || value != "" {
			message = fmt.Sprintf("%s %v", message, id)
		}
	}
	if name != "" {
		message = fmt.Sprintf("%s: %s", message, name)
	}
	_, _ = fmt.Fprintln(ioStreams.Out, message)
}

// cmdContext returns the command context
func cmdContext(cmd *cobra.Command) context.Context {
	return cmd.Context()
}

func registerStaticCompletions(cmd *cobra.Command, flagName string, values []string) {
	_ = cmd.RegisterFlagCompletionFunc(flagName, cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp))
}

// maybeDryRun prints the preview of req and reports true when --dry-run is
// set, in which case the caller must not send it.
func maybeDryRun(cmd *cobra.Command, req api.Request) (bool, error) {
	if !dryrun.IsEnabled(cmd.Context()) {
		return false, nil
	}
	preview := dryrun.FromRequest(req)
	if isJSON(cmd) {
		return true, printJSON(cmd, preview)
	}
	preview.Write(iocontext.GetIO(cmd.Context()).Out)
	return true, nil
}

// parseField parses a key=value field where value is a string
func parseField(field string) (string, string, error) {
	key, value, ok := strings.Cut(field, "=")
	if !ok || key == "" {
		return "", "", fmt.Errorf("invalid field format %q: must be key=value", field)
	}
	return key, value, nil
}

// parseRawField parses a key=value field where value is JSON
func parseRawField(field string) (string, any, error) {
	key, raw, ok := strings.Cut(field, "=")
	if !ok || key == "" {
		return "", nil, fmt.Errorf("invalid raw field format %q: must be key=value", field)
	}
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return "", nil, fmt.Errorf("invalid JSON in raw field %q: %w", key, err)
	}
	return key, value, nil
}

// parseAttachment reads a field=@path (or field=path) upload argument.
func parseAttachment(arg string) (string, api.File, error) {
	field, path, ok := strings.Cut(arg, "=")
	if !ok || field == "" || path == "" {
		return "", api.File{}, fmt.Errorf("invalid --attach %q: must be field=@path", arg)
	}
	path = strings.TrimPrefix(path, "@")
	info, err := os.Stat(path)
	if err != nil {
		return "", api.File{}, fmt.Errorf("read attachment: %w", err)
	}
	if err := validation.ValidateUploadSize(path, info.Size()); err != nil {
		return "", api.File{}, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", api.File{}, fmt.Errorf("read attachment: %w", err)
	}
	return field, api.File{Name: filepath.Base(path), Content: content}, nil
}

// readJSONObject parses a JSON object from an inline string or an input
// argument ("-" for stdin, otherwise a file path).
func readJSONObject(ctx context.Context, inline, input string) (map[string]any, error) {
	if inline != "" && input != "" {
		return nil, errors.New("cannot use both --body and --input flags")
	}
	var data []byte
	switch {
	case inline != "":
		data = []byte(inline)
	case input != "":
		var err error
		if data, err = iocontext.ReadInput(ctx, input); err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
	default:
		return nil, nil
	}
	if err := validation.ValidateJSONPayload(string(data)); err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("failed to parse body JSON: %w", err)
	}
	return body, nil
}

// writeDownload stores downloaded bytes at path, or writes them to stdout
// for "-".
func writeDownload(cmd *cobra.Command, path string, data []byte) error {
	if path == "-" {
		_, err := iocontext.GetIO(cmd.Context()).Out.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write download: %w", err)
	}
	printAction(cmd, "Saved", path, nil, fmt.Sprintf("%d bytes", len(data)))
	return nil
}
