package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fujiwara/trafficlight"
)

var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	trafficlight.Version = Version
	var cli trafficlight.CLI
	kctx := kong.Parse(&cli, kong.Vars{"version": Version})
	return trafficlight.Run(ctx, kctx.Command(), &cli)
}
