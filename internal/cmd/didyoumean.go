package cmd

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/larkkit/lark-cli/internal/api"
	"github.com/larkkit/lark-cli/internal/resolve"
)

// maxSuggestDistance is the largest edit distance still worth suggesting.
const maxSuggestDistance = 3

// levenshtein computes the Levenshtein edit distance between two strings.
func levenshtein(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	row := make([]int, lb+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= la; i++ {
		prev := i - 1
		row[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			val := min(row[j]+1, row[j-1]+1, prev+cost)
			prev = row[j]
			row[j] = val
		}
	}
	return row[lb]
}

// closest returns the candidate nearest to unknown, compared through key,
// or "" when nothing is within maxSuggestDistance.
func closest(unknown string, candidates []string, key func(string) string) string {
	unknown = strings.ToLower(key(unknown))
	if unknown == "" {
		return ""
	}
	bestDist := maxSuggestDistance + 1
	bestMatch := ""
	for _, c := range candidates {
		if d := levenshtein(unknown, strings.ToLower(key(c))); d < bestDist {
			bestDist = d
			bestMatch = c
		}
	}
	return bestMatch
}

// suggestCommand finds the closest command name to the unknown input.
func suggestCommand(unknown string, commands []string) string {
	return closest(unknown, commands, func(s string) string { return s })
}

// suggestFlag finds the closest flag name, ignoring leading dashes but
// returning the match with its original prefix.
func suggestFlag(unknown string, flagNames []string) string {
	return closest(unknown, flagNames, func(s string) string { return strings.TrimLeft(s, "-") })
}

// suggestEndpoints returns up to limit registry keys close to query: keys
// whose API name is a small edit away come first, then fuzzy matches.
func suggestEndpoints(query string, limit int) []string {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil
	}
	name := query
	if _, after, ok := strings.Cut(query, "."); ok {
		name = after
	}

	type scored struct {
		key  string
		dist int
	}
	var near []scored
	endpoints := api.Endpoints()
	items := make([]resolve.Named, 0, len(endpoints))
	for _, e := range endpoints {
		items = append(items, resolve.Named{ID: e.Key(), Name: e.Key()})
		if d := levenshtein(strings.ToLower(name), strings.ToLower(e.Name)); d <= maxSuggestDistance {
			near = append(near, scored{e.Key(), d})
		}
	}
	sort.SliceStable(near, func(i, j int) bool { return near[i].dist < near[j].dist })

	seen := map[string]bool{}
	var out []string
	add := func(key string) {
		if !seen[key] && len(out) < limit {
			seen[key] = true
			out = append(out, key)
		}
	}
	for _, n := range near {
		add(n.key)
	}
	for _, m := range resolve.Rank(query, items, limit) {
		add(m.ID)
	}
	return out
}

var (
	unknownCommandRe = regexp.MustCompile(`unknown command "([^"]+)"`)
	unknownFlagRe    = regexp.MustCompile(`unknown flag: (--[^\s]+)`)
	unknownShortRe   = regexp.MustCompile(`unknown shorthand flag: '(.)'`)
)

// explainUsageError appends a did-you-mean hint to cobra's unknown command
// and unknown flag errors. target is the command cobra resolved.
func explainUsageError(err error, target *cobra.Command) string {
	msg := err.Error()
	if m := unknownCommandRe.FindStringSubmatch(msg); m != nil {
		var names []string
		for _, c := range target.Commands() {
			if c.IsAvailableCommand() || c.Name() == "help" {
				names = append(names, c.Name())
				names = append(names, c.Aliases...)
			}
		}
		if s := suggestCommand(m[1], names); s != "" {
			return fmt.Sprintf("%s\n\nDid you mean %q?", msg, s)
		}
		return msg
	}

	unknown := ""
	if m := unknownFlagRe.FindStringSubmatch(msg); m != nil {
		unknown = m[1]
	} else if m := unknownShortRe.FindStringSubmatch(msg); m != nil {
		unknown = "-" + m[1]
	} else {
		return msg
	}
	help := fmt.Sprintf("Run %q to see supported flags.", target.CommandPath()+" --help")
	if s := suggestFlag(unknown, visibleFlags(target)); s != "" {
		return fmt.Sprintf("%s\n\nDid you mean %q?\n%s", msg, s, help)
	}
	return msg + "\n\n" + help
}

// visibleFlags lists the long and short spellings of cmd's non-hidden
// local and inherited flags.
func visibleFlags(cmd *cobra.Command) []string {
	seen := map[string]bool{}
	var names []string
	add := func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		for _, n := range []string{"--" + f.Name, "-" + f.Shorthand} {
			if n != "-" && !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	cmd.Flags().VisitAll(add)
	cmd.InheritedFlags().VisitAll(add)
	return names
}
