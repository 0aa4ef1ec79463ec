// Package main is the entry point for the spv shader compiler.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/spv/cmd/spv/commands"
	"go.trai.ch/spv/internal/app"
	"go.trai.ch/spv/internal/core/domain"
	_ "go.trai.ch/spv/internal/wiring"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	components, _, err := graft.ExecuteFor[*app.Components](ctx)
	if err != nil {
		// Logger is not available yet if initialization failed.
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return 1
	}

	cli := commands.New(components.App, components.SetVerbose)

	if err := cli.Execute(ctx); err != nil {
		if errors.Is(err, domain.ErrUserDeclined) {
			// Declining an installation prompt is a normal way out.
			_, _ = os.Stdout.WriteString("Exiting, nothing installed.\n")
			return 0
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		return 1
	}
	return 0
}
