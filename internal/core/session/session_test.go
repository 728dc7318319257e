package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/suika/internal/core/catalog"
	"github.com/zeusync/suika/internal/core/events"
	"github.com/zeusync/suika/internal/core/events/bus"
	"github.com/zeusync/suika/internal/core/models"
	"github.com/zeusync/suika/internal/core/observability/log"
	"github.com/zeusync/suika/internal/core/spawn"
	"github.com/zeusync/suika/internal/core/systems/physics"
)

const cooldown = 500 * time.Millisecond

type recorder struct {
	types []string
	data  []any
}

func (r *recorder) attach(t *testing.T, b bus.EventBus) {
	for _, typ := range []string{events.TypePieceSpawned, events.TypePieceDespawned, events.TypePieceMoved, events.TypePieceFused} {
		_, err := b.Subscribe(typ, func(e bus.Event) error {
			r.types = append(r.types, e.Type())
			r.data = append(r.data, e.Data())
			return nil
		})
		require.NoError(t, err)
	}
}

func (r *recorder) count(typ string) int {
	n := 0
	for _, x := range r.types {
		if x == typ {
			n++
		}
	}
	return n
}

func newSession(t *testing.T, seed uint64, mutate ...func(*Config)) (*Session, *recorder) {
	t.Helper()
	cfg := DefaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	b := bus.New()
	rec := &recorder{}
	rec.attach(t, b)
	s, err := New(cfg, catalog.MustBuild(catalog.DefaultConfig()), spawn.NewSource(seed), b, log.NewNop())
	require.NoError(t, err)
	return s, rec
}

func onlyRankZero(c *Config) { c.Spawn.SpawnRanks = 1 }

func dropAt(t *testing.T, s *Session, x float64) models.EntityID {
	t.Helper()
	r, err := s.Tick(Input{Dt: cooldown, Pointer: []physics.Vec2{{X: x}}, Click: true})
	require.NoError(t, err)
	require.True(t, r.Dropped.Valid())
	return r.Dropped
}

func TestSessionDropAndFuse(t *testing.T) {
	s, rec := newSession(t, 1, onlyRankZero)

	a := dropAt(t, s, -50)
	b := dropAt(t, s, 50)
	require.Equal(t, uint64(2), s.Stats().Drops)

	bodies := s.Bodies()
	live := 0
	for _, body := range bodies {
		if body.Mode == physics.ModeDynamic {
			live++
			assert.Equal(t, physics.DefaultMaterial(), body.Material)
		}
	}
	assert.Equal(t, 2, live)

	report, err := s.Tick(Input{Dt: time.Millisecond, Collisions: []physics.CollisionEvent{
		{A: a, B: b, Started: true},
		{A: b, B: a, Started: true},
	}})
	require.NoError(t, err)
	require.Len(t, report.Fusions, 1)
	f := report.Fusions[0]
	require.False(t, f.Terminal())
	assert.Equal(t, physics.Vec2{X: 0, Y: 275}, f.Placement.Position)

	var successor *events.Render
	for _, p := range s.Pieces() {
		assert.NotEqual(t, a, p.ID)
		assert.NotEqual(t, b, p.ID)
		if p.ID == f.Successor {
			successor = &p
		}
	}
	require.NotNil(t, successor)
	assert.Equal(t, models.Rank(1), successor.Rank)
	assert.Len(t, successor.Vertices, 4)

	assert.Equal(t, 1, rec.count(events.TypePieceFused))
	assert.Equal(t, uint64(1), s.Stats().Fusions)
	assert.Equal(t, models.Rank(1), s.Stats().HighestRank)
}

func TestSessionSpawnEventsCarryDescriptors(t *testing.T) {
	s, rec := newSession(t, 2, onlyRankZero)
	dropAt(t, s, 0)

	var dynamic, kinematic int
	for i, typ := range rec.types {
		if typ != events.TypePieceSpawned {
			continue
		}
		ev := rec.data[i].(events.PieceSpawned)
		require.Equal(t, ev.Render.ID, ev.Body.ID)
		require.NotEmpty(t, ev.Render.Vertices)
		require.NotEmpty(t, ev.Body.Collider.Points)
		switch ev.Body.Mode {
		case physics.ModeDynamic:
			dynamic++
			require.Equal(t, models.KindLive, ev.Render.Kind)
		case physics.ModeKinematic:
			kinematic++
		}
	}
	assert.Equal(t, 1, dynamic)
	assert.Equal(t, 2, kinematic, "cursor piece and preview")
	assert.Equal(t, 1, rec.count(events.TypePieceDespawned), "cursor piece removed on drop")
}

func TestSessionClickWithNothingReady(t *testing.T) {
	s, rec := newSession(t, 3)
	r, err := s.Tick(Input{Dt: time.Millisecond, Click: true})
	require.NoError(t, err)
	assert.False(t, r.Dropped.Valid())
	assert.Empty(t, r.Applied)
	assert.Empty(t, s.Pieces())
	assert.Empty(t, rec.types)
}

func TestSessionCursorMovesReadyPiece(t *testing.T) {
	s, rec := newSession(t, 4, onlyRankZero)
	_, err := s.Tick(Input{Dt: cooldown})
	require.NoError(t, err)

	_, err = s.Tick(Input{Pointer: []physics.Vec2{{X: -1000}, {X: 20}}})
	require.NoError(t, err)
	require.Equal(t, 1, rec.count(events.TypePieceMoved))

	slot, ok := s.Ready()
	require.True(t, ok)
	assert.Equal(t, 20.0, slot.Transform.Position.X)
	assert.Equal(t, 20.0, s.CursorX())
}

func TestSessionNextRanksDeterministic(t *testing.T) {
	run := func(seed uint64) []models.Rank {
		s, _ := newSession(t, seed)
		var out []models.Rank
		for range 40 {
			_, err := s.Tick(Input{Dt: cooldown, Click: true})
			require.NoError(t, err)
			out = append(out, s.Next())
		}
		return out
	}
	require.Equal(t, run(99), run(99))
}

func TestSessionSyncTransform(t *testing.T) {
	s, _ := newSession(t, 5, onlyRankZero)
	id := dropAt(t, s, 0)

	s.SyncTransform(id, physics.At(10, -150, 0))
	s.SyncTransform(models.EntityID(12345), physics.At(0, 0, 0))

	for _, p := range s.Pieces() {
		if p.ID == id {
			assert.Equal(t, physics.Vec2{X: 10, Y: -150}, p.Transform.Position)
		}
	}
}

func TestSessionPublishErrorIsReported(t *testing.T) {
	b := bus.New()
	boom := errors.New("renderer down")
	_, err := b.Subscribe(events.TypePieceSpawned, func(bus.Event) error { return boom })
	require.NoError(t, err)

	s, err := New(DefaultConfig(), catalog.MustBuild(catalog.DefaultConfig()), spawn.NewSource(1), b, log.NewNop())
	require.NoError(t, err)

	r, err := s.Tick(Input{Dt: cooldown})
	require.ErrorIs(t, err, boom)
	assert.True(t, r.Replenished, "state advances even when a handler fails")
	_, ok := s.Ready()
	assert.True(t, ok)
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fusion.MaxRank = 0
	_, err := New(cfg, catalog.MustBuild(catalog.DefaultConfig()), spawn.NewSource(1), nil, log.NewNop())
	require.Error(t, err)

	cfg = DefaultConfig()
	cfg.Spawn.SpawnRanks = 0
	_, err = New(cfg, catalog.MustBuild(catalog.DefaultConfig()), spawn.NewSource(1), nil, log.NewNop())
	require.ErrorIs(t, err, spawn.ErrInvalidConfig)
}
