package sim

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/zeusync/suika/internal/core/events"
	"github.com/zeusync/suika/internal/core/events/bus"
	"github.com/zeusync/suika/internal/core/models"
	"github.com/zeusync/suika/internal/core/observability/log"
	"github.com/zeusync/suika/internal/core/systems/physics"
)

var ErrInvalidConfig = errors.New("invalid sim config")

// contactSlop keeps resting neighbours in contact between substeps so a
// stack does not flicker between started and stopped.
const contactSlop = 0.5

// Config describes the container. Walls stand at x = ±Width/2.
type Config struct {
	Gravity  float64
	FloorY   float64
	Width    float64
	Substeps int
}

func DefaultConfig() Config {
	return Config{Gravity: 98.1, FloorY: -200, Width: 500, Substeps: 4}
}

func (c Config) Validate() error {
	switch {
	case c.Width <= 0:
		return fmt.Errorf("%w: width %g", ErrInvalidConfig, c.Width)
	case c.Substeps < 1:
		return fmt.Errorf("%w: substeps %d", ErrInvalidConfig, c.Substeps)
	case math.IsNaN(c.Gravity) || math.IsInf(c.Gravity, 0):
		return fmt.Errorf("%w: gravity %g", ErrInvalidConfig, c.Gravity)
	}
	return nil
}

// Syncer receives simulated transforms.
type Syncer interface {
	SyncTransform(id models.EntityID, t physics.Transform)
}

type body struct {
	id       models.EntityID
	radius   float64
	mode     physics.BodyMode
	material physics.Material
	depth    float64
	pos, vel physics.Vec2
	angle    float64
	spin     float64
}

func (b *body) mass() float64 { return b.radius * b.radius }

func (b *body) transform() physics.Transform {
	return physics.Transform{
		Position: b.pos,
		Depth:    b.depth,
		Rotation: physics.RotationFromAngle(b.angle),
	}
}

type pair struct{ a, b models.EntityID }

func makePair(a, b models.EntityID) pair {
	if a > b {
		a, b = b, a
	}
	return pair{a, b}
}

// World is a small circle-based stand-in for a rigid body engine. It is
// deterministic: bodies are visited in id order and contact events are
// emitted sorted. Not safe for concurrent use.
type World struct {
	cfg      Config
	bodies   map[models.EntityID]*body
	ids      []models.EntityID
	contacts map[pair]struct{}
	logger   log.Log
}

func NewWorld(cfg Config, logger log.Log) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &World{
		cfg:      cfg,
		bodies:   make(map[models.EntityID]*body),
		contacts: make(map[pair]struct{}),
		logger:   logger.Named("sim"),
	}, nil
}

func (w *World) Config() Config { return w.cfg }

func (w *World) Len() int { return len(w.bodies) }

// Add inserts or replaces a body. A body with a collider is simulated as the
// circle through its farthest vertex.
func (w *World) Add(d events.Body) {
	if _, ok := w.bodies[d.ID]; !ok {
		i, _ := slices.BinarySearch(w.ids, d.ID)
		w.ids = slices.Insert(w.ids, i, d.ID)
	}
	radius := d.Radius
	if len(d.Collider.Points) > 0 {
		radius = d.Collider.BoundingRadius()
	}
	w.bodies[d.ID] = &body{
		id:       d.ID,
		radius:   radius,
		mode:     d.Mode,
		material: d.Material,
		depth:    d.Transform.Depth,
		pos:      d.Transform.Position,
		angle:    d.Transform.Rotation.Angle(),
	}
	w.logger.Debug("body added",
		log.String("id", d.ID.String()),
		log.String("mode", d.Mode.String()),
		log.Float64("radius", radius),
	)
}

// Remove drops a body and any contact it was part of. No contact-stopped
// event is emitted for it.
func (w *World) Remove(id models.EntityID) {
	if _, ok := w.bodies[id]; !ok {
		return
	}
	delete(w.bodies, id)
	if i, found := slices.BinarySearch(w.ids, id); found {
		w.ids = slices.Delete(w.ids, i, i+1)
	}
	for p := range w.contacts {
		if p.a == id || p.b == id {
			delete(w.contacts, p)
		}
	}
}

// Move teleports a body. Intended for kinematic bodies following the cursor.
func (w *World) Move(id models.EntityID, t physics.Transform) {
	b, ok := w.bodies[id]
	if !ok {
		return
	}
	b.pos = t.Position
	b.depth = t.Depth
	b.angle = t.Rotation.Angle()
}

func (w *World) Transform(id models.EntityID) (physics.Transform, bool) {
	b, ok := w.bodies[id]
	if !ok {
		return physics.Transform{}, false
	}
	return b.transform(), true
}

// Attach keeps the world in step with piece events published on the bus.
func (w *World) Attach(eventBus bus.EventBus) ([]bus.Subscription, error) {
	handlers := map[string]bus.EventHandler{
		events.TypePieceSpawned: func(e bus.Event) error {
			ev, ok := e.Data().(events.PieceSpawned)
			if !ok {
				return fmt.Errorf("unexpected %s payload %T", e.Type(), e.Data())
			}
			w.Add(ev.Body)
			return nil
		},
		events.TypePieceDespawned: func(e bus.Event) error {
			ev, ok := e.Data().(events.PieceDespawned)
			if !ok {
				return fmt.Errorf("unexpected %s payload %T", e.Type(), e.Data())
			}
			w.Remove(ev.ID)
			return nil
		},
		events.TypePieceMoved: func(e bus.Event) error {
			ev, ok := e.Data().(events.PieceMoved)
			if !ok {
				return fmt.Errorf("unexpected %s payload %T", e.Type(), e.Data())
			}
			w.Move(ev.ID, ev.Transform)
			return nil
		},
	}

	subs := make([]bus.Subscription, 0, len(handlers))
	for _, typ := range []string{events.TypePieceSpawned, events.TypePieceDespawned, events.TypePieceMoved} {
		sub, err := eventBus.Subscribe(typ, handlers[typ])
		if err != nil {
			for _, s := range subs {
				_ = eventBus.Unsubscribe(s)
			}
			return nil, fmt.Errorf("subscribe %s: %w", typ, err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// Step advances the simulation and returns contact changes between dynamic
// bodies: started contacts first, then stopped ones, each sorted by pair.
func (w *World) Step(dt time.Duration) []physics.CollisionEvent {
	if dt <= 0 {
		return nil
	}
	h := dt.Seconds() / float64(w.cfg.Substeps)

	dynamic := make([]*body, 0, len(w.ids))
	for _, id := range w.ids {
		if b := w.bodies[id]; b.mode == physics.ModeDynamic {
			dynamic = append(dynamic, b)
		}
	}

	touching := make(map[pair]struct{})
	for range w.cfg.Substeps {
		for _, b := range dynamic {
			w.integrate(b, h)
			w.confine(b)
		}
		for i := range dynamic {
			for j := i + 1; j < len(dynamic); j++ {
				if w.collide(dynamic[i], dynamic[j]) {
					touching[makePair(dynamic[i].id, dynamic[j].id)] = struct{}{}
				}
			}
		}
	}

	var started, stopped []pair
	for p := range touching {
		if _, ok := w.contacts[p]; !ok {
			started = append(started, p)
		}
	}
	for p := range w.contacts {
		if _, ok := touching[p]; !ok {
			stopped = append(stopped, p)
		}
	}
	w.contacts = touching

	sortPairs(started)
	sortPairs(stopped)
	out := make([]physics.CollisionEvent, 0, len(started)+len(stopped))
	for _, p := range started {
		out = append(out, physics.CollisionEvent{A: p.a, B: p.b, Started: true})
	}
	for _, p := range stopped {
		out = append(out, physics.CollisionEvent{A: p.a, B: p.b})
	}
	return out
}

func sortPairs(ps []pair) {
	slices.SortFunc(ps, func(x, y pair) int {
		if x.a != y.a {
			return cmp.Compare(x.a, y.a)
		}
		return cmp.Compare(x.b, y.b)
	})
}

func (w *World) integrate(b *body, h float64) {
	m := b.material
	b.vel.Y -= w.cfg.Gravity * m.GravityScale * h
	b.vel = b.vel.Scale(1 / (1 + h*m.LinearDamping))
	b.pos = b.pos.Add(b.vel.Scale(h))
	b.angle += b.spin * h
	b.spin /= 1 + h*m.AngularDamping
}

func (w *World) confine(b *body) {
	e := b.material.Restitution
	half := w.cfg.Width / 2

	if floor := w.cfg.FloorY + b.radius; b.pos.Y < floor {
		b.pos.Y = floor
		if b.vel.Y < 0 {
			b.vel.Y = -b.vel.Y * e
		}
		b.spin = -b.vel.X / b.radius
	}
	if left := -half + b.radius; b.pos.X < left {
		b.pos.X = left
		if b.vel.X < 0 {
			b.vel.X = -b.vel.X * e
		}
	}
	if right := half - b.radius; b.pos.X > right {
		b.pos.X = right
		if b.vel.X > 0 {
			b.vel.X = -b.vel.X * e
		}
	}
}

// collide separates two overlapping circles and exchanges an impulse along
// the contact normal. It reports whether the pair is in contact.
func (w *World) collide(a, b *body) bool {
	d := b.pos.Sub(a.pos)
	dist := d.Len()
	overlap := a.radius + b.radius - dist
	if overlap <= -contactSlop {
		return false
	}
	if overlap <= 0 {
		return true
	}

	n := physics.Vec2{X: 1}
	if dist > 1e-9 {
		n = d.Scale(1 / dist)
	}
	ia, ib := 1/a.mass(), 1/b.mass()
	total := ia + ib

	a.pos = a.pos.Sub(n.Scale(overlap * ia / total))
	b.pos = b.pos.Add(n.Scale(overlap * ib / total))

	if rel := b.vel.Sub(a.vel).Dot(n); rel < 0 {
		e := math.Min(a.material.Restitution, b.material.Restitution)
		j := -(1 + e) * rel / total
		a.vel = a.vel.Sub(n.Scale(j * ia))
		b.vel = b.vel.Add(n.Scale(j * ib))
	}
	return true
}

// Sync writes every dynamic body's transform back to s.
func (w *World) Sync(s Syncer) {
	for _, id := range w.ids {
		if b := w.bodies[id]; b.mode == physics.ModeDynamic {
			s.SyncTransform(id, b.transform())
		}
	}
}
