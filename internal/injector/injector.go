//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/suika/internal/config"
	"github.com/zeusync/suika/internal/core/observability/log"
	"github.com/zeusync/suika/internal/core/runner"
)

func InitializeRunner(cfg config.Config, seed Seed, logger log.Log) (*runner.Runner, error) {
	wire.Build(ProviderSet)
	return nil, nil
}
