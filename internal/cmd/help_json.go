package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/larkkit/lark-cli/internal/api"
	"github.com/larkkit/lark-cli/internal/outfmt"
)

// endpointAnnotation names the registry endpoint a typed command calls.
const endpointAnnotation = "lark/endpoint"

// withEndpoint marks cmd as a wrapper around the endpoint key.
func withEndpoint(cmd *cobra.Command, key string) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[endpointAnnotation] = key
	return cmd
}

// CommandHelp is the --help-json document of one command.
type CommandHelp struct {
	Name        string           `json:"name"`
	Path        string           `json:"path"`
	Aliases     []string         `json:"aliases,omitempty"`
	Short       string           `json:"short"`
	Long        string           `json:"long,omitempty"`
	Usage       string           `json:"usage"`
	Example     string           `json:"example,omitempty"`
	Endpoint    *endpointRow     `json:"endpoint,omitempty"`
	Flags       []FlagHelp       `json:"flags,omitempty"`
	Subcommands []SubcommandHelp `json:"subcommands,omitempty"`
}

type FlagHelp struct {
	Name      string `json:"name"`
	Shorthand string `json:"shorthand,omitempty"`
	Type      string `json:"type"`
	Default   string `json:"default,omitempty"`
	Usage     string `json:"usage"`
	Inherited bool   `json:"inherited,omitempty"`
}

type SubcommandHelp struct {
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`
	Short   string   `json:"short"`
}

func describeCommand(cmd *cobra.Command) CommandHelp {
	help := CommandHelp{
		Name:    cmd.Name(),
		Path:    cmd.CommandPath(),
		Aliases: cmd.Aliases,
		Short:   cmd.Short,
		Long:    cmd.Long,
		Usage:   cmd.UseLine(),
		Example: cmd.Example,
		Flags:   describeFlags(cmd),
	}
	if key := cmd.Annotations[endpointAnnotation]; key != "" {
		if e, ok := api.LookupEndpoint(key); ok {
			row := toEndpointRow(e)
			help.Endpoint = &row
		}
	}
	for _, sub := range cmd.Commands() {
		if sub.Hidden || slices.Contains([]string{"help", "completion"}, sub.Name()) {
			continue
		}
		help.Subcommands = append(help.Subcommands, SubcommandHelp{Name: sub.Name(), Aliases: sub.Aliases, Short: sub.Short})
	}
	return help
}

// describeFlags lists local flags, then inherited ones. Hidden aliases and
// the help flags are left out.
func describeFlags(cmd *cobra.Command) []FlagHelp {
	var flags []FlagHelp
	seen := map[string]bool{"help": true, "help-json": true}
	collect := func(inherited bool) func(*pflag.Flag) {
		return func(f *pflag.Flag) {
			if f.Hidden || seen[f.Name] {
				return
			}
			seen[f.Name] = true
			flags = append(flags, FlagHelp{
				Name:      f.Name,
				Shorthand: f.Shorthand,
				Type:      f.Value.Type(),
				Default:   f.DefValue,
				Usage:     f.Usage,
				Inherited: inherited,
			})
		}
	}
	cmd.LocalFlags().VisitAll(collect(false))
	cmd.InheritedFlags().VisitAll(collect(true))
	return flags
}

func printHelpJSON(cmd *cobra.Command) error {
	if err := outfmt.WriteJSON(cmd.OutOrStdout(), describeCommand(cmd)); err != nil {
		return fmt.Errorf("help json: %w", err)
	}
	return nil
}

// findHelpJSONTarget strips --help-json from args and returns the command
// the remaining args name, or root when they name none. Cobra validates
// Args before PersistentPreRunE, so this runs ahead of Execute.
func findHelpJSONTarget(root *cobra.Command, args []string) (*cobra.Command, bool) {
	requested := false
	rest := make([]string, 0, len(args))
	for _, a := range args {
		switch v, isAssign := strings.CutPrefix(a, "--help-json="); {
		case a == "--help-json":
			requested = true
		case isAssign:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "1", "yes", "y", "on":
				requested = true
			}
		default:
			rest = append(rest, a)
		}
	}
	if !requested {
		return nil, false
	}
	if cmd, _, err := root.Find(rest); err == nil && cmd != nil && len(rest) > 0 {
		return cmd, true
	}
	return root, true
}
