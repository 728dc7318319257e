package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeusync/suika/internal/config"
	"github.com/zeusync/suika/internal/core/observability/log"
)

func main() {
	var (
		configPath string
		level      string
		opts       options
	)
	flag.StringVar(&configPath, "config", "", "path to a YAML config (defaults when empty)")
	flag.StringVar(&level, "level", "", "log level override")
	flag.IntVar(&opts.runs, "runs", 4, "number of independent sessions")
	flag.IntVar(&opts.ticks, "ticks", 3600, "ticks per session")
	flag.Uint64Var(&opts.seed, "seed", 0, "seed of the first session, later ones add the run index")
	flag.IntVar(&opts.every, "every", 45, "autopilot clicks once every this many ticks")
	flag.IntVar(&opts.workers, "workers", 0, "sessions run at once, 0 for one per CPU")
	flag.StringVar(&opts.snapshot, "snapshot", "", "write a PNG of the first session's final board here")
	flag.Parse()

	logger := log.New(log.LevelInfo, log.WithConsole())
	defer logger.Sync()

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadFile(configPath); err != nil {
			logger.Fatal("load config", log.String("path", configPath), log.Err(err))
		}
	}
	if level != "" {
		cfg.Log.Level = level
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", log.Err(err))
	}
	logger.SetLevel(cfg.LogLevel())
	seedSet := false
	flag.Visit(func(f *flag.Flag) { seedSet = seedSet || f.Name == "seed" })
	if !seedSet {
		opts.seed = cfg.Seed
	}
	if err := opts.validate(); err != nil {
		logger.Fatal("invalid flags", log.Err(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, cfg, opts, logger); err != nil {
		logger.Error("headless run failed", log.Err(err))
		fmt.Fprintln(os.Stderr, "error:", err)
		logger.Sync()
		os.Exit(1)
	}
}
