package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"horse.fit/clusterer/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := app.RunContext(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
