package cmd

import (
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const aliasAnnotation = "alias-of"

// aliasValue shares the value of the flag it aliases and marks that flag
// changed, so MarkFlagRequired and Changed see the alias too.
type aliasValue struct {
	pflag.Value
	target *pflag.Flag
}

func (a aliasValue) Set(s string) error {
	if err := a.Value.Set(s); err != nil {
		return err
	}
	a.target.Changed = true
	return nil
}

type sliceAliasValue struct {
	aliasValue
	pflag.SliceValue
}

// flagAlias adds a hidden short spelling for an existing flag of fs.
func flagAlias(fs *pflag.FlagSet, name, alias string) {
	target := fs.Lookup(name)
	if target == nil {
		panic("flagAlias: unknown flag " + name)
	}
	base := aliasValue{Value: target.Value, target: target}
	var value pflag.Value = base
	if sv, ok := target.Value.(pflag.SliceValue); ok {
		value = sliceAliasValue{aliasValue: base, SliceValue: sv}
	}
	fs.AddFlag(&pflag.Flag{
		Name:        alias,
		Value:       value,
		DefValue:    target.DefValue,
		NoOptDefVal: target.NoOptDefVal,
		Hidden:      true,
		Annotations: map[string][]string{aliasAnnotation: {name}},
	})
}

// flagOrAliasChanged reports whether name, local or inherited, was set on
// the command line under its own name or an alias.
func flagOrAliasChanged(cmd *cobra.Command, name string) bool {
	if cmd.Flags().Changed(name) || cmd.InheritedFlags().Changed(name) {
		return true
	}
	changed := false
	for _, fs := range []*pflag.FlagSet{cmd.Flags(), cmd.InheritedFlags()} {
		fs.Visit(func(f *pflag.Flag) {
			if slices.Contains(f.Annotations[aliasAnnotation], name) {
				changed = true
			}
		})
	}
	return changed
}
