// Command provisr bulk-provisions directory accounts from a tabular
// onboarding file.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/provisr/provisr/internal/cli"
	"github.com/provisr/provisr/pkg/version"
)

func main() {
	os.Exit(run())
}

// run executes the root command and maps its outcome to a process exit
// code: zero when the command completes (a batch with per-record failures
// still completes), non-zero on startup failure. An operator interrupt
// cancels the context and stops the batch between records.
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(version.GetVersion())
	if err := root.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
