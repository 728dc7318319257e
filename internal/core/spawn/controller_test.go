package spawn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/suika/internal/core/catalog"
	"github.com/zeusync/suika/internal/core/models"
	"github.com/zeusync/suika/internal/core/observability/log"
	"github.com/zeusync/suika/internal/core/pieces"
	"github.com/zeusync/suika/internal/core/systems/physics"
)

const cooldown = 500 * time.Millisecond

type fixture struct {
	catalog    *catalog.Catalog
	registry   *pieces.Registry
	commands   *pieces.Commands
	controller *Controller
}

func newFixture(t *testing.T, seed uint64, mutate ...func(*Config)) *fixture {
	t.Helper()
	cat := catalog.MustBuild(catalog.DefaultConfig())
	reg := pieces.NewRegistry()
	cmds := pieces.NewCommands(reg)
	cfg := DefaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	ctrl, err := NewController(cfg, cat, cmds, NewSource(seed), log.NewNop())
	require.NoError(t, err)
	return &fixture{catalog: cat, registry: reg, commands: cmds, controller: ctrl}
}

func (f *fixture) apply() []pieces.Command { return f.commands.Apply() }

func TestTimerOnceMode(t *testing.T) {
	tm := NewTimer(cooldown)
	assert.False(t, tm.Tick(200*time.Millisecond))
	assert.Equal(t, 300*time.Millisecond, tm.Remaining())
	assert.True(t, tm.Tick(400*time.Millisecond))
	assert.True(t, tm.Finished())
	assert.Zero(t, tm.Remaining())
	assert.False(t, tm.Tick(time.Second), "fires at most once")

	tm.Restart()
	assert.False(t, tm.Finished())
	assert.False(t, tm.Tick(-time.Second))
	assert.True(t, tm.Tick(cooldown))

	zero := NewTimer(0)
	assert.True(t, zero.Tick(0))
}

func TestClickWithNothingReadyIsNoop(t *testing.T) {
	f := newFixture(t, 1)
	id, ok := f.controller.Drop(true)
	require.False(t, ok)
	require.Equal(t, models.NoEntity, id)
	require.Zero(t, f.commands.Len())
	require.Zero(t, f.registry.Len())
}

func TestReplenishAfterCooldown(t *testing.T) {
	f := newFixture(t, 7)

	require.False(t, f.controller.Tick(499*time.Millisecond))
	require.Zero(t, f.commands.Len())

	require.True(t, f.controller.Tick(time.Millisecond))
	f.apply()

	slot, ok := f.controller.Ready()
	require.True(t, ok)
	assert.Equal(t, models.Rank(0), slot.Rank, "first piece uses the configured first rank")
	assert.Equal(t, 275.0, slot.Transform.Position.Y)
	assert.Equal(t, 10.0, slot.Transform.Depth)
	assert.Equal(t, 1, f.controller.Draws())

	cursor, ok := f.registry.Get(slot.ID)
	require.True(t, ok)
	assert.Equal(t, models.KindCursor, cursor.Kind)

	preview, ok := f.registry.Get(f.controller.Preview())
	require.True(t, ok)
	assert.Equal(t, models.KindPreview, preview.Kind)
	assert.Equal(t, f.controller.Next(), preview.Rank)
	assert.Equal(t, physics.Vec2{X: 300, Y: 300}, preview.Transform.Position)

	require.False(t, f.controller.Tick(time.Hour), "timer stays finished until a drop")
}

func TestDropSpawnsLivePieceAndRestartsCooldown(t *testing.T) {
	f := newFixture(t, 3)
	f.controller.FollowCursor([]physics.Vec2{{X: 30, Y: -80}})
	f.controller.Tick(cooldown)
	f.apply()
	slot, _ := f.controller.Ready()

	id, ok := f.controller.Drop(true)
	require.True(t, ok)
	applied := f.apply()
	require.Len(t, applied, 2)
	assert.Equal(t, pieces.OpDespawn, applied[0].Op)
	assert.Equal(t, slot.ID, applied[0].ID)

	live, ok := f.registry.Live(id)
	require.True(t, ok)
	assert.Equal(t, slot.Rank, live.Rank)
	assert.Equal(t, slot.Transform, live.Transform)
	assert.False(t, live.Fused)

	_, ready := f.controller.Ready()
	assert.False(t, ready)
	assert.Equal(t, cooldown, f.controller.Cooldown().Remaining())

	_, ok = f.controller.Drop(true)
	assert.False(t, ok, "cooldown blocks a second drop")

	assert.False(t, f.controller.Tick(cooldown-time.Millisecond))
	assert.True(t, f.controller.Tick(time.Millisecond))
}

func TestReplenishDiscardsStalePreview(t *testing.T) {
	f := newFixture(t, 11)
	f.controller.Tick(cooldown)
	f.apply()
	firstPreview := f.controller.Preview()
	promised := f.controller.Next()

	f.controller.Drop(true)
	f.controller.Tick(cooldown)
	applied := f.apply()

	slot, _ := f.controller.Ready()
	assert.Equal(t, promised, slot.Rank, "preview rank becomes the next ready rank")

	_, ok := f.registry.Get(firstPreview)
	assert.False(t, ok)
	assert.Equal(t, 1, f.registry.CountByKind(models.KindPreview))
	assert.Equal(t, 1, f.registry.CountByKind(models.KindCursor))

	despawns := 0
	for _, c := range applied {
		if c.Op == pieces.OpDespawn && c.ID == firstPreview {
			despawns++
		}
	}
	assert.Equal(t, 1, despawns)
}

func cycle(f *fixture, n int) []models.Rank {
	out := make([]models.Rank, 0, n)
	for range n {
		f.controller.Tick(cooldown)
		out = append(out, f.controller.Next())
		f.controller.Drop(true)
		f.apply()
	}
	return out
}

func TestNextRanksDeterministicForSeed(t *testing.T) {
	a := cycle(newFixture(t, 42), 64)
	b := cycle(newFixture(t, 42), 64)
	require.Equal(t, a, b)

	c := cycle(newFixture(t, 43), 64)
	require.NotEqual(t, a, c)

	for _, r := range a {
		require.GreaterOrEqual(t, int(r), 0)
		require.Less(t, int(r), DefaultConfig().SpawnRanks)
	}
}

func TestCursorClampsToBoard(t *testing.T) {
	f := newFixture(t, 1)

	f.controller.FollowCursor([]physics.Vec2{{X: -1000}})
	assert.Equal(t, -250.0, f.controller.CursorX())
	f.controller.FollowCursor([]physics.Vec2{{X: 1000}})
	assert.Equal(t, 250.0, f.controller.CursorX())
	f.controller.FollowCursor([]physics.Vec2{{X: 12}, {X: 900}, {X: -40}})
	assert.Equal(t, -40.0, f.controller.CursorX(), "every sample is consumed, last one wins")
	f.controller.FollowCursor(nil)
	assert.Equal(t, -40.0, f.controller.CursorX())
}

func TestReadyPieceSilhouetteStaysInside(t *testing.T) {
	const half = 250.0
	for rank := models.Rank(0); rank < 3; rank++ {
		f := newFixture(t, 5, func(c *Config) { c.FirstRank = rank })
		f.controller.Tick(cooldown)
		f.apply()

		collider := f.catalog.MustEntry(rank).Collider
		minX, maxX := collider.ExtentsX(physics.Identity)

		for _, px := range []float64{-5000, -251, -249, -10, 0, 10, 249, 251, 5000} {
			f.controller.FollowCursor([]physics.Vec2{{X: px, Y: 0}})
			f.apply()
			slot, ok := f.controller.Ready()
			require.True(t, ok)
			x := slot.Transform.Position.X
			require.GreaterOrEqual(t, x+minX, -half-1e-9, "rank %d px %g", rank, px)
			require.LessOrEqual(t, x+maxX, half+1e-9, "rank %d px %g", rank, px)

			p, ok := f.registry.Get(slot.ID)
			require.True(t, ok)
			require.Equal(t, x, p.Transform.Position.X)
		}
	}
}

func TestClampForRankExactBound(t *testing.T) {
	f := newFixture(t, 1)
	_, maxX := f.catalog.MustEntry(0).Collider.ExtentsX(physics.Identity)
	assert.InDelta(t, 250-maxX, f.controller.ClampForRank(1000, 0), 1e-9)
	assert.Equal(t, 0.0, f.controller.ClampForRank(0, 0))
}

func TestClampForRankCentersOversizedShape(t *testing.T) {
	f := newFixture(t, 1, func(c *Config) { c.Board.Width = 100 })
	assert.InDelta(t, 0.0, f.controller.ClampForRank(40, 0), 1e-9)
}

func TestUpdateOrdersFollowReplenishDrop(t *testing.T) {
	f := newFixture(t, 9)

	id, ok := f.controller.Update(cooldown, []physics.Vec2{{X: -60}}, true)
	require.True(t, ok, "a piece replenished this tick can be dropped this tick")
	f.apply()

	live, ok := f.registry.Live(id)
	require.True(t, ok)
	assert.Equal(t, f.controller.ClampForRank(-60, live.Rank), live.Transform.Position.X)
	assert.Equal(t, 0, f.registry.CountByKind(models.KindCursor))
}

func TestNewControllerValidates(t *testing.T) {
	cat := catalog.MustBuild(catalog.DefaultConfig())
	cmds := pieces.NewCommands(pieces.NewRegistry())

	bad := []func(*Config){
		func(c *Config) { c.Board.Width = 0 },
		func(c *Config) { c.Cooldown = -time.Second },
		func(c *Config) { c.SpawnRanks = 0 },
		func(c *Config) { c.SpawnRanks = cat.Len() + 1 },
		func(c *Config) { c.FirstRank = -1 },
	}
	for _, m := range bad {
		cfg := DefaultConfig()
		m(&cfg)
		_, err := NewController(cfg, cat, cmds, NewSource(1), log.NewNop())
		require.ErrorIs(t, err, ErrInvalidConfig)
	}

	_, err := NewController(DefaultConfig(), cat, cmds, nil, log.NewNop())
	require.ErrorIs(t, err, ErrInvalidConfig)
}
