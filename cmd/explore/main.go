package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"soundgraph-backend/internal/config"
	"soundgraph-backend/internal/di"
	"soundgraph-backend/internal/interfaces/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(open).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func open(ctx context.Context, opts cli.Options) (cli.Explorer, func(), error) {
	env := config.GetEnvironment()
	if opts.Env != "" {
		env = config.Environment(opts.Env)
	}

	cfg, err := config.NewLoader(opts.ConfigDir, env).Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	// The terminal owns stdout.
	cfg.Tracing.Enabled = false
	if cfg.Logging.Level == "debug" || cfg.Logging.Level == "info" {
		cfg.Logging.Level = "warn"
	}

	container, cleanup, err := di.InitializeContainer(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize container: %w", err)
	}
	container.Start(ctx)
	return container.Explorer, cleanup, nil
}
