package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"

	"github.com/qri-io/deepdiff-mcp/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Root(ctx, viper.New(), version).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
