// Package iocontext carries the command's stdin, stdout and stderr in the
// context so tests can swap them.
package iocontext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// IO holds the streams a command reads from and writes to.
type IO struct {
	Out    io.Writer
	ErrOut io.Writer
	In     io.Reader
}

// DefaultIO returns the process streams.
func DefaultIO() *IO {
	return &IO{Out: os.Stdout, ErrOut: os.Stderr, In: os.Stdin}
}

type ioKey struct{}

// WithIO stores streams in ctx.
func WithIO(ctx context.Context, streams *IO) context.Context {
	return context.WithValue(ctx, ioKey{}, streams)
}

// GetIO returns the streams in ctx, or the process streams.
func GetIO(ctx context.Context) *IO {
	if streams, ok := ctx.Value(ioKey{}).(*IO); ok && streams != nil {
		return streams
	}
	return DefaultIO()
}

// ErrTerminalInput is returned when "-" would block on an interactive
// terminal.
var ErrTerminalInput = errors.New("stdin is a terminal: pipe the input in or pass a file path")

// ReadInput reads a whole input argument: "-" reads the context's stdin,
// "@path" or a plain path reads that file.
func ReadInput(ctx context.Context, arg string) ([]byte, error) {
	if arg == "-" {
		in := GetIO(ctx).In
		if isTerminal(in) {
			return nil, ErrTerminalInput
		}
		return io.ReadAll(in)
	}
	path := strings.TrimPrefix(arg, "@")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
