package outfmt

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Formatter writes one command's result: the JSON pipeline in JSON modes
// and an aligned table in text mode.
type Formatter struct {
	opts   Options
	out    io.Writer
	errOut io.Writer
	table  *tabwriter.Writer
}

// NewFormatter takes its Options from ctx.
func NewFormatter(ctx context.Context, out, errOut io.Writer) *Formatter {
	return &Formatter{
		opts:   OptionsFrom(ctx),
		out:    out,
		errOut: errOut,
		table:  tabwriter.NewWriter(out, 0, 4, 2, ' ', 0),
	}
}

// Output writes data as JSON or JSONL according to the options in the
// context. In text mode it writes nothing; callers render tables themselves.
func (f *Formatter) Output(data any) error {
	o := f.opts
	if o.Mode == Text {
		return nil
	}
	if o.Mode == JSON && o.Query == "" && o.Template == "" {
		return encodeJSON(f.out, normalizeJSONOutput(data), o.Compact)
	}

	value, err := Filter(data, o)
	if err != nil {
		return err
	}
	switch {
	case o.Template != "":
		return WriteTemplate(f.out, value, o.Template)
	case o.Mode == JSONL:
		return WriteJSONL(f.out, value)
	default:
		return encodeJSON(f.out, value, o.Compact)
	}
}

// StartTable writes the header row and reports whether a table is being
// written at all; JSON modes skip it.
func (f *Formatter) StartTable(headers []string) bool {
	if f.opts.Mode != Text {
		return false
	}
	f.Row(headers...)
	return true
}

func (f *Formatter) Row(columns ...string) {
	_, _ = io.WriteString(f.table, strings.Join(columns, "\t")+"\n")
}

func (f *Formatter) EndTable() error {
	return f.table.Flush()
}

// Empty tells the user on stderr that there was nothing to list.
func (f *Formatter) Empty(message string) {
	_, _ = fmt.Fprintln(f.errOut, message)
}
