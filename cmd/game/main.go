package main

import (
	"flag"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/zeusync/suika/internal/config"
	"github.com/zeusync/suika/internal/core/observability/log"
	"github.com/zeusync/suika/internal/injector"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config (defaults when empty)")
	seed := flag.Uint64("seed", 0, "next-piece seed, overrides the config when set")
	flag.Parse()

	logger := log.New(log.LevelInfo, log.WithConsole())
	defer logger.Sync()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFile(*configPath); err != nil {
			logger.Fatal("load config", log.String("path", *configPath), log.Err(err))
		}
	}
	logger.SetLevel(cfg.LogLevel())
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			cfg.Seed = *seed
		}
	})

	r, err := injector.InitializeRunner(cfg, injector.Seed(cfg.Seed), logger)
	if err != nil {
		logger.Fatal("build session", log.Err(err))
	}
	defer r.Close()

	g := newGame(r, cfg, logger)
	ebiten.SetWindowTitle("Suika")
	ebiten.SetWindowSize(g.view.Width, g.view.Height)
	if err = ebiten.RunGame(g); err != nil {
		logger.Fatal("game loop", log.Err(err))
	}
}
