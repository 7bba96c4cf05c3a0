package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/larkkit/lark-cli/internal/iocontext"
	"github.com/larkkit/lark-cli/internal/outfmt"
)

func defaultOutput() string {
	if v := strings.TrimSpace(os.Getenv("LARK_OUTPUT")); v != "" {
		return normalizeOutputFormat(v)
	}
	return "text"
}

func parseBoolEnv(key string) bool {
	v, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return v
}

// normalizeOutputFormat accepts "ndjson" as a spelling of "jsonl".
func normalizeOutputFormat(v string) string {
	v = strings.TrimSpace(v)
	if v == "ndjson" {
		return "jsonl"
	}
	return v
}

// outputOptions turns the output flags into outfmt.Options. A jq query or
// template switches text output to JSON unless --output was given
// explicitly, which is an error instead.
func outputOptions(cmd *cobra.Command) (outfmt.Options, error) {
	flags.Output = normalizeOutputFormat(flags.Output)
	if flags.QueryFile != "" {
		if flags.Query != "" || flags.JQ != "" {
			return outfmt.Options{}, errors.New("--query-file cannot be used with --query or --jq")
		}
		q, err := loadQueryFile(cmd.Context(), flags.QueryFile)
		if err != nil {
			return outfmt.Options{}, err
		}
		flags.Query = q
	}

	explicit := flagOrAliasChanged(cmd, "output")
	if flags.JSON {
		if explicit && flags.Output != "json" {
			return outfmt.Options{}, fmt.Errorf("--json conflicts with --output %s", flags.Output)
		}
		flags.Output = "json"
	}
	wantsJSON := flags.Query != "" || flags.JQ != "" || flags.Template != ""
	if wantsJSON && flags.Output != "json" && flags.Output != "jsonl" {
		if explicit {
			return outfmt.Options{}, errors.New("--jq/--query/--query-file/--template require --output json or jsonl (or --json)")
		}
		flags.Output = "json"
	}

	mode, err := outfmt.Parse(flags.Output)
	if err != nil {
		return outfmt.Options{}, err
	}
	opts := outfmt.Options{Mode: mode, Compact: flags.Compact, Query: getJQQuery()}
	if opts.Args, err = parseQueryArgs(flags.QueryArgs); err != nil {
		return outfmt.Options{}, err
	}
	if opts.Template, err = loadTemplate(flags.Template); err != nil {
		return outfmt.Options{}, err
	}
	return opts, nil
}

func loadQueryFile(ctx context.Context, path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("--query-file requires a file path")
	}
	data, err := iocontext.ReadInput(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to read --query-file: %w", err)
	}
	q := strings.TrimSpace(string(data))
	if q == "" {
		return "", fmt.Errorf("--query-file %q is empty", path)
	}
	return q, nil
}

// parseQueryArgs binds --arg name=value pairs for $name in jq.
func parseQueryArgs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	args := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, err := parseField(p)
		if err != nil {
			return nil, fmt.Errorf("invalid --arg: %w", err)
		}
		args[name] = value
	}
	return args, nil
}

// loadTemplate reads "@path" templates from disk; other values are the
// template text.
func loadTemplate(v string) (string, error) {
	path, ok := strings.CutPrefix(v, "@")
	if !ok {
		return v, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read template file: %w", err)
	}
	return string(data), nil
}
