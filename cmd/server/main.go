package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"github.com/searchktools/json-server/app"
	"github.com/searchktools/json-server/config"
	"github.com/searchktools/json-server/core/logging"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		logging.Critical(logging.New(config.Default().Logging, os.Stderr), "configuration failed", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging, os.Stderr)

	if err := cfg.ResolvePort(); err != nil {
		logger.Warn("ignoring port argument, keeping configured port", "port", cfg.Server.Port, "error", err)
	}

	application := app.New(cfg, logger)
	registerRoutes(application.Routes())

	if err := application.Run(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
		logging.Critical(logger, "server stopped with error", "error", err)
		os.Exit(1)
	}
}
