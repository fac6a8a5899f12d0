package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lance13c/lpqa/cmd"
)

var version = "dev"

func main() {
	// Ctrl+C cancels the run; the pipeline closes Chrome before returning
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd.SetVersion(version)
	code := cmd.Execute(ctx)
	stop()
	os.Exit(code)
}
