// Package main provides the rvpipe command line.
// rvpipe runs programs on the 5-stage pipeline simulator and compares the
// hazard handling configurations.
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
