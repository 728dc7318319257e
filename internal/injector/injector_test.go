package injector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/suika/internal/config"
	"github.com/zeusync/suika/internal/core/observability/log"
	"github.com/zeusync/suika/internal/core/systems/physics"
)

func TestInitializeRunner(t *testing.T) {
	r, err := InitializeRunner(config.Default(), 3, log.NewNop())
	require.NoError(t, err)
	defer r.Close()

	report, err := r.Step(500*time.Millisecond, []physics.Vec2{{X: 10}}, true)
	require.NoError(t, err)
	assert.True(t, report.Replenished)
	assert.True(t, report.Dropped.Valid())
	assert.Equal(t, len(r.Session().Bodies()), r.World().Len())
}

func TestInitializeRunnerRejectsBadCatalog(t *testing.T) {
	cfg := config.Default()
	cfg.Catalog.Palette = []string{"not-a-colour"}
	_, err := InitializeRunner(cfg, 1, log.NewNop())
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}
