package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/brettbedarf/vfs/internal/cli"
	"github.com/brettbedarf/vfs/internal/util"
)

func main() {
	ctx, done := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer done()

	if err := cli.New().ExecuteContext(ctx); err != nil {
		logger := util.GetLogger("main")
		logger.Error().Err(err).Msg("Command failed")
		done()
		os.Exit(1)
	}
}
