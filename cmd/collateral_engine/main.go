package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"frizo/collateral_engine/internal/cli"
)

func main() {
	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
