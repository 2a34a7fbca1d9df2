// Package main is the entry point for the anchorage CLI.
//
// anchorage creates docker-machine hosts and forms docker swarm clusters
// from them. Every external command runs as a task in a dependency graph,
// so independent machines are created concurrently and cluster formation
// waits only for what it needs.
//
// For detailed usage information, run:
//
//	anchorage --help
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/anchorage/cmd/anchorage/commands"
	"github.com/imamik/anchorage/cmd/anchorage/handlers"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.Root().ExecuteContext(ctx)
	stop()

	if err != nil {
		var exitErr *handlers.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
