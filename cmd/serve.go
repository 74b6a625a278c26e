package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/okutan/trackfolio/server"
)

type serveCmd struct {
	config string
	addr   string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the dashboard HTTP server" }
func (*serveCmd) Usage() string {
	return `serve [-config <file>] [-addr <host:port>]

  Serves the dashboard: the JSON API, the websocket quote feed and the
  static assets, with live quotes polled in the background.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.config, "config", "", "config file (default: trackfolio.yaml in the working directory)")
	f.StringVar(&c.addr, "addr", "", "listen address, overrides the config")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := server.LoadConfig(c.config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.addr != "" {
		cfg.Addr = c.addr
	}
	if f := *dataFile; f != "positions.json" {
		cfg.DataFile = f
	}

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.New(cfg, log).Run(ctx); err != nil {
		log.Error("server failed", zap.Error(err))
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
