package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/larkkit/lark-cli/internal/api"
	"github.com/larkkit/lark-cli/internal/config"
	"github.com/larkkit/lark-cli/internal/debug"
	"github.com/larkkit/lark-cli/internal/dryrun"
	"github.com/larkkit/lark-cli/internal/iocontext"
	"github.com/larkkit/lark-cli/internal/outfmt"
	"github.com/larkkit/lark-cli/internal/validation"
)

// rootFlags holds global CLI flags
type rootFlags struct {
	Output       string
	JSON         bool
	Query        string
	QueryFile    string
	JQ           string
	QueryArgs    []string
	Template     string
	Compact      bool
	Debug        bool
	LogJSON      bool
	DryRun       bool
	Quiet        bool
	Silent       bool
	AllowPrivate bool
	Timeout      time.Duration
	TimeoutSet   bool

	Profile    string
	TokenStore string
	RedisURL   string
	UserToken  string
}

// flags holds the global command flags. This is package-level mutable state
// that MUST be reset at the start of every Execute() call. Tests depend on
// this reset to get clean state; any code that reads flags outside of a
// command's RunE is reading stale data from the previous Execute() call.
var flags = rootFlags{
	Output:  defaultOutput(),
	Timeout: api.DefaultTimeout,
}

const rootLong = `Command-line client for the Feishu/Lark Open Platform.

Credentials come from a keyring profile ('lark auth login'), LARK_* variables
or ~/.config/lark-cli/.env. Every API call goes through one dispatcher that
fetches and caches tenant, app and user tokens.

  lark auth login --app-id cli_xxx --app-secret-stdin
  lark bot info
  lark message send --to ou_xxx --text "hello"
  lark endpoints bitable
  lark call bitable.listRecords -p app_token=... -p table_id=... --jq '.items[].fields'
  lark api GET /open-apis/contact/v3/users/ou_xxx`

// Execute runs the root command
func Execute(ctx context.Context, args []string) error {
	// Exported variables always win over the .env file.
	_ = config.LoadDotEnv(config.DotEnvPath())

	// Reset flags to defaults for each execution; see the invariant comment
	// on the flags declaration above.
	flags = rootFlags{
		Output:       defaultOutput(),
		AllowPrivate: parseBoolEnv("LARK_ALLOW_PRIVATE"),
		Timeout:      api.DefaultTimeout,
	}

	root := &cobra.Command{
		Use:                "lark",
		Short:              "CLI for the Feishu/Lark Open Platform",
		Long:               rootLong,
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true, // see explainUsageError
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			opts, err := outputOptions(cmd)
			if err != nil {
				return err
			}
			ctx = outfmt.WithOptions(ctx, opts)

			ioStreams := iocontext.DefaultIO()
			if flags.Silent || flags.Quiet {
				ioStreams.ErrOut = io.Discard
			}
			if flags.Quiet && opts.Mode == outfmt.Text {
				ioStreams.Out = io.Discard
			}
			ctx = iocontext.WithIO(ctx, ioStreams)
			cmd.SetOut(ioStreams.Out)
			cmd.SetErr(ioStreams.ErrOut)

			validation.SetAllowPrivate(flags.AllowPrivate)
			if flags.AllowPrivate && flagOrAliasChanged(cmd, "allow-private") && !flags.Silent && !flags.Quiet {
				_, _ = fmt.Fprintln(ioStreams.ErrOut, "Warning: allowing private/localhost URLs (use only with trusted targets).")
			}

			debug.SetupLogger(debug.LoggerOptions{Debug: flags.Debug, JSON: flags.LogJSON, Writer: ioStreams.ErrOut})
			ctx = debug.WithDebug(ctx, flags.Debug)
			ctx = dryrun.WithDryRun(ctx, flags.DryRun)

			flags.TimeoutSet = flagOrAliasChanged(cmd, "timeout")
			if flags.TimeoutSet && flags.Timeout <= 0 {
				return fmt.Errorf("--timeout must be > 0")
			}

			cmd.SetContext(ctx)
			return nil
		},
	}

	root.SetContext(ctx)
	root.SetArgs(args)

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.Output, "output", "o", flags.Output, "Output format: text|json|jsonl|ndjson (env LARK_OUTPUT)")
	pf.BoolVarP(&flags.JSON, "json", "j", false, "Shorthand for --output json")
	pf.StringVarP(&flags.Query, "query", "q", "", "JQ expression to filter JSON output")
	pf.StringVar(&flags.QueryFile, "query-file", "", "Read JQ expression from file ('-' for stdin)")
	pf.StringVar(&flags.JQ, "jq", "", "Alias for --query")
	pf.StringArrayVar(&flags.QueryArgs, "arg", nil, "Bind a JQ variable as name=value (available as $name)")
	pf.StringVar(&flags.Template, "template", "", "Go template string (or @path) to render JSON output")
	pf.BoolVar(&flags.Compact, "compact-json", false, "Compact JSON output (no indentation)")
	pf.BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	pf.BoolVar(&flags.LogJSON, "log-json", false, "Write logs as JSON")
	pf.BoolVar(&flags.DryRun, "dry-run", false, "Print the request instead of sending it")
	pf.BoolVarP(&flags.Quiet, "quiet", "Q", false, "Suppress non-essential output")
	pf.BoolVar(&flags.Silent, "silent", false, "Suppress non-error output to stderr")
	pf.BoolVar(&flags.AllowPrivate, "allow-private", flags.AllowPrivate, "Allow private/localhost base URLs (env LARK_ALLOW_PRIVATE)")
	pf.DurationVar(&flags.Timeout, "timeout", flags.Timeout, "HTTP request timeout (e.g., 30s, 2m)")
	pf.StringVar(&flags.Profile, "profile", "", "Credential profile (env LARK_PROFILE)")
	pf.StringVar(&flags.TokenStore, "token-store", "", "Token store: memory|file|redis (env LARK_TOKEN_STORE, default file)")
	pf.StringVar(&flags.RedisURL, "redis-url", "", "Redis URL for --token-store redis (env LARK_REDIS_URL)")
	pf.StringVar(&flags.UserToken, "user-token", "", "User access token for user-scoped APIs (env LARK_USER_ACCESS_TOKEN)")

	pf.Bool("help-json", false, "Output command help as JSON")
	flagAlias(pf, "dry-run", "dr")
	flagAlias(pf, "output", "out")
	flagAlias(pf, "compact-json", "cj")
	flagAlias(pf, "timeout", "to")
	flagAlias(pf, "allow-private", "ap")
	registerStaticCompletions(root, "output", []string{"text", "json", "jsonl"})
	registerStaticCompletions(root, "token-store", []string{config.StoreMemory, config.StoreFile, config.StoreRedis})

	root.AddCommand(newAuthCmd())
	root.AddCommand(newAPICmd())
	root.AddCommand(newCallCmd())
	root.AddCommand(newEndpointsCmd())
	root.AddCommand(newBotCmd())
	root.AddCommand(newMessageCmd())
	root.AddCommand(newChatCmd())
	root.AddCommand(newAppLinkCmd())
	root.AddCommand(newEventCmd())
	root.AddCommand(newBatchCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newVersionCmd())
	root.AddCommand(newCompletionsCmd())

	if cmdToDescribe, ok := findHelpJSONTarget(root, args); ok {
		return printHelpJSON(cmdToDescribe)
	}

	target, err := root.ExecuteC()
	if err != nil && !errors.Is(err, errReported) {
		if target == nil {
			target = root
		}
		_, _ = fmt.Fprintln(root.ErrOrStderr(), explainUsageError(err, target))
	}
	return err
}
