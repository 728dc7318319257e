package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zeusync/suika/internal/core/catalog"
	"github.com/zeusync/suika/internal/core/events"
	"github.com/zeusync/suika/internal/core/events/bus"
	"github.com/zeusync/suika/internal/core/fusion"
	"github.com/zeusync/suika/internal/core/models"
	"github.com/zeusync/suika/internal/core/observability/log"
	"github.com/zeusync/suika/internal/core/pieces"
	"github.com/zeusync/suika/internal/core/spawn"
	"github.com/zeusync/suika/internal/core/systems/physics"
)

const eventSource = "session"

type Config struct {
	Fusion   fusion.Config
	Spawn    spawn.Config
	Material physics.Material
}

func DefaultConfig() Config {
	return Config{
		Fusion:   fusion.DefaultConfig(),
		Spawn:    spawn.DefaultConfig(),
		Material: physics.DefaultMaterial(),
	}
}

// Input is everything the outside world delivers for one tick.
type Input struct {
	Dt time.Duration
	// Pointer holds world-space cursor samples in arrival order.
	Pointer []physics.Vec2
	// Click is true when the primary button was pressed this tick.
	Click bool
	// Collisions is the feed produced by the previous physics step.
	Collisions []physics.CollisionEvent
}

// Report summarizes what one tick changed.
type Report struct {
	Tick        uint64
	Fusions     []fusion.Fusion
	Replenished bool
	Dropped     models.EntityID
	Applied     []pieces.Command
}

type Stats struct {
	Ticks           uint64
	Drops           uint64
	Fusions         uint64
	TerminalFusions uint64
	Spawned         uint64
	Despawned       uint64
	HighestRank     models.Rank
}

// Session is one running board. All state belongs to the goroutine calling
// Tick; independent sessions may run in parallel.
type Session struct {
	id       string
	cfg      Config
	catalog  *catalog.Catalog
	registry *pieces.Registry
	commands *pieces.Commands
	resolver *fusion.Resolver
	spawner  *spawn.Controller
	bus      bus.EventBus
	logger   log.Log

	tick  uint64
	stats Stats
}

func New(cfg Config, cat *catalog.Catalog, source spawn.RankSource, eventBus bus.EventBus, logger log.Log) (*Session, error) {
	id := uuid.NewString()
	logger = logger.With(log.String("session", id))

	registry := pieces.NewRegistry()
	commands := pieces.NewCommands(registry)

	resolver, err := fusion.NewResolver(cfg.Fusion, registry, cat, commands, logger)
	if err != nil {
		return nil, fmt.Errorf("create fusion resolver: %w", err)
	}
	spawner, err := spawn.NewController(cfg.Spawn, cat, commands, source, logger)
	if err != nil {
		return nil, fmt.Errorf("create spawn controller: %w", err)
	}

	return &Session{
		id:       id,
		cfg:      cfg,
		catalog:  cat,
		registry: registry,
		commands: commands,
		resolver: resolver,
		spawner:  spawner,
		bus:      eventBus,
		logger:   logger,
	}, nil
}

func (s *Session) ID() string { return s.id }

// Tick runs one logical frame: fusion over the collision batch, then cursor
// follow, replenish and drop, then the buffered commands are applied and
// published. A publish error is returned after the state has advanced.
func (s *Session) Tick(in Input) (Report, error) {
	s.tick++
	report := Report{Tick: s.tick}

	report.Fusions = s.resolver.Resolve(in.Collisions)

	s.spawner.FollowCursor(in.Pointer)
	report.Replenished = s.spawner.Tick(in.Dt)
	report.Dropped, _ = s.spawner.Drop(in.Click)

	report.Applied = s.commands.Apply()
	s.record(report)

	return report, s.publish(report)
}

func (s *Session) record(r Report) {
	s.stats.Ticks++
	if r.Dropped.Valid() {
		s.stats.Drops++
	}
	for _, f := range r.Fusions {
		s.stats.Fusions++
		if f.Terminal() {
			s.stats.TerminalFusions++
		}
	}
	for _, c := range r.Applied {
		switch c.Op {
		case pieces.OpSpawn:
			s.stats.Spawned++
			if c.Kind == models.KindLive && c.Rank > s.stats.HighestRank {
				s.stats.HighestRank = c.Rank
			}
		case pieces.OpDespawn:
			s.stats.Despawned++
		}
	}
}

func (s *Session) publish(r Report) error {
	if s.bus == nil {
		return nil
	}
	batch := make([]bus.Event, 0, len(r.Applied)+len(r.Fusions))
	for _, c := range r.Applied {
		switch c.Op {
		case pieces.OpSpawn:
			// built from the command: the entity may already be gone again this tick
			p := &pieces.Piece{ID: c.ID, Kind: c.Kind, Rank: c.Rank, Transform: c.Transform}
			batch = append(batch, bus.NewEvent(events.TypePieceSpawned, eventSource, events.PieceSpawned{
				Render: s.render(p),
				Body:   s.body(p),
			}))
		case pieces.OpDespawn:
			batch = append(batch, bus.NewEvent(events.TypePieceDespawned, eventSource, events.PieceDespawned{
				ID: c.ID, Kind: c.Kind, Rank: c.Rank,
			}))
		case pieces.OpMove:
			batch = append(batch, bus.NewEvent(events.TypePieceMoved, eventSource, events.PieceMoved{
				ID: c.ID, Kind: c.Kind, Transform: c.Transform,
			}))
		}
	}
	for _, f := range r.Fusions {
		batch = append(batch, bus.NewEvent(events.TypePieceFused, eventSource, events.PieceFused{
			A: f.A, B: f.B, Rank: f.Rank, Successor: f.Successor, Placement: f.Placement,
		}))
	}
	if err := s.bus.PublishBatch(batch...); err != nil {
		s.logger.Warn("event handlers failed", log.Uint64("tick", r.Tick), log.Err(err))
		return fmt.Errorf("publish tick %d: %w", r.Tick, err)
	}
	return nil
}

// SyncTransform lets the physics collaborator write back a simulated
// transform. Unknown ids are ignored.
func (s *Session) SyncTransform(id models.EntityID, t physics.Transform) {
	if p, ok := s.registry.Live(id); ok {
		p.Transform = t
	}
}

func (s *Session) render(p *pieces.Piece) events.Render {
	e := s.catalog.MustEntry(p.Rank)
	return events.Render{
		ID:        p.ID,
		Kind:      p.Kind,
		Rank:      p.Rank,
		Vertices:  e.Vertices,
		Color:     e.Color,
		Transform: p.Transform,
	}
}

func (s *Session) body(p *pieces.Piece) events.Body {
	e := s.catalog.MustEntry(p.Rank)
	mode := physics.ModeKinematic
	if p.Kind == models.KindLive {
		mode = physics.ModeDynamic
	}
	return events.Body{
		ID:        p.ID,
		Rank:      p.Rank,
		Radius:    e.Radius,
		Collider:  e.Collider,
		Mode:      mode,
		Material:  s.cfg.Material,
		Transform: p.Transform,
	}
}

// Pieces returns render descriptors for every entity, ordered by id.
func (s *Session) Pieces() []events.Render {
	all := s.registry.All()
	out := make([]events.Render, len(all))
	for i, p := range all {
		out[i] = s.render(p)
	}
	return out
}

// Bodies returns physics descriptors for every entity, ordered by id.
func (s *Session) Bodies() []events.Body {
	all := s.registry.All()
	out := make([]events.Body, len(all))
	for i, p := range all {
		out[i] = s.body(p)
	}
	return out
}

func (s *Session) Ready() (spawn.Slot, bool) { return s.spawner.Ready() }

func (s *Session) Next() models.Rank { return s.spawner.Next() }

func (s *Session) CursorX() float64 { return s.spawner.CursorX() }

func (s *Session) Stats() Stats { return s.stats }

func (s *Session) Catalog() *catalog.Catalog { return s.catalog }

func (s *Session) Board() spawn.Board { return s.cfg.Spawn.Board }
