package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/suika/internal/config"
	"github.com/zeusync/suika/internal/core/catalog"
	"github.com/zeusync/suika/internal/core/events/bus"
	"github.com/zeusync/suika/internal/core/runner"
	"github.com/zeusync/suika/internal/core/session"
	"github.com/zeusync/suika/internal/core/sim"
	"github.com/zeusync/suika/internal/core/spawn"
)

// Seed feeds the next-piece generator of one session.
type Seed uint64

var ProviderSet = wire.NewSet(
	ProvideCatalog,
	ProvideSessionConfig,
	ProvideSimConfig,
	ProvideRankSource,
	bus.New,
	session.New,
	sim.NewWorld,
	runner.New,
)

func ProvideCatalog(cfg config.Config) (*catalog.Catalog, error) {
	cc, err := cfg.CatalogConfig()
	if err != nil {
		return nil, err
	}
	return catalog.Build(cc)
}

func ProvideSessionConfig(cfg config.Config) session.Config { return cfg.SessionConfig() }

func ProvideSimConfig(cfg config.Config) sim.Config { return cfg.SimConfig() }

func ProvideRankSource(seed Seed) spawn.RankSource { return spawn.NewSource(uint64(seed)) }
