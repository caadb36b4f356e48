package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/yndnr/tlsrest/internal/cli/command"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := command.App().RunContext(ctx, os.Args)
	stop()

	// Errors carrying an exit code were handled by the app already.
	if err != nil {
		fmt.Fprintln(os.Stderr, "tlsrest-cli:", err)
		os.Exit(1)
	}
}
