// Command lark is a command line client for the Feishu/Lark Open Platform.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/larkkit/lark-cli/internal/cmd"
)

// exitInterrupted follows the shell convention of 128+SIGINT.
const exitInterrupted = 130

var (
	execute  = cmd.Execute
	exitCode = cmd.ExitCode
	exit     = os.Exit
)

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := execute(ctx, args)
	switch {
	case err == nil:
		return 0
	case ctx.Err() != nil:
		return exitInterrupted
	default:
		return exitCode(err)
	}
}

func main() {
	exit(run(os.Args[1:]))
}
