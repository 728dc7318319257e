package spawn

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/zeusync/suika/internal/core/catalog"
	"github.com/zeusync/suika/internal/core/models"
	"github.com/zeusync/suika/internal/core/observability/log"
	"github.com/zeusync/suika/internal/core/pieces"
	"github.com/zeusync/suika/internal/core/systems/physics"
)

var ErrInvalidConfig = errors.New("invalid spawn config")

// Board holds the fixed geometry the controller clamps against.
type Board struct {
	Width       float64
	DropHeight  float64
	CursorDepth float64
	Preview     physics.Vec2
}

type Config struct {
	Board    Board
	Cooldown time.Duration
	// SpawnRanks limits drawn ranks to [0, SpawnRanks) so early drops stay small.
	SpawnRanks int
	// FirstRank is the rank of the very first ready piece, before any draw.
	FirstRank models.Rank
}

func DefaultConfig() Config {
	return Config{
		Board: Board{
			Width:       500,
			DropHeight:  275,
			CursorDepth: 10,
			Preview:     physics.Vec2{X: 300, Y: 300},
		},
		Cooldown:   500 * time.Millisecond,
		SpawnRanks: 3,
		FirstRank:  0,
	}
}

func (c Config) Validate(cat *catalog.Catalog) error {
	switch {
	case c.Board.Width <= 0:
		return fmt.Errorf("%w: board width %g", ErrInvalidConfig, c.Board.Width)
	case c.Cooldown < 0:
		return fmt.Errorf("%w: negative cooldown %s", ErrInvalidConfig, c.Cooldown)
	case c.SpawnRanks < 1 || c.SpawnRanks > cat.Len():
		return fmt.Errorf("%w: spawn ranks %d outside [1, %d]", ErrInvalidConfig, c.SpawnRanks, cat.Len())
	case c.FirstRank < 0 || int(c.FirstRank) >= cat.Len():
		return fmt.Errorf("%w: first rank %d", ErrInvalidConfig, c.FirstRank)
	}
	return nil
}

// RankSource is the random source for next-piece draws. *rand.Rand satisfies it.
type RankSource interface {
	IntN(n int) int
}

// NewSource returns a deterministic source for seed.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Slot is the piece currently riding the cursor.
type Slot struct {
	ID        models.EntityID
	Rank      models.Rank
	Transform physics.Transform
}

// Controller owns the drop queue: the ready piece on the cursor, the next-piece
// preview and the cooldown between drops. It is driven once per tick and is
// not safe for concurrent use.
type Controller struct {
	cfg      Config
	catalog  *catalog.Catalog
	commands *pieces.Commands
	source   RankSource
	logger   log.Log

	timer   *Timer
	cursorX float64
	ready   *Slot
	next    models.Rank
	preview models.EntityID
	draws   int
}

func NewController(cfg Config, cat *catalog.Catalog, commands *pieces.Commands, source RankSource, logger log.Log) (*Controller, error) {
	if err := cfg.Validate(cat); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("%w: nil rank source", ErrInvalidConfig)
	}
	return &Controller{
		cfg:      cfg,
		catalog:  cat,
		commands: commands,
		source:   source,
		logger:   logger.Named("spawn"),
		timer:    NewTimer(cfg.Cooldown),
		next:     cfg.FirstRank,
	}, nil
}

// Update runs one tick in the required order: cursor follow, replenish, drop.
// It returns the id of the dropped piece, if any.
func (c *Controller) Update(dt time.Duration, pointer []physics.Vec2, clicked bool) (models.EntityID, bool) {
	c.FollowCursor(pointer)
	c.Tick(dt)
	return c.Drop(clicked)
}

// FollowCursor consumes every pointer sample of the tick in order.
func (c *Controller) FollowCursor(points []physics.Vec2) {
	if len(points) == 0 {
		return
	}
	half := c.cfg.Board.Width / 2
	for _, p := range points {
		c.cursorX = physics.Clamp(p.X, -half, half)
	}
	if c.ready == nil {
		return
	}
	x := c.ClampForRank(c.cursorX, c.ready.Rank)
	if x == c.ready.Transform.Position.X {
		return
	}
	c.ready.Transform.Position.X = x
	c.commands.Move(c.ready.ID, c.ready.Transform)
}

// Tick advances the cooldown and replenishes the ready slot when it expires.
// It reports whether a new piece was put on the cursor.
func (c *Controller) Tick(dt time.Duration) bool {
	if !c.timer.Tick(dt) || c.ready != nil {
		return false
	}
	c.replenish()
	return true
}

func (c *Controller) replenish() {
	rank := c.next
	t := physics.At(c.ClampForRank(c.cursorX, rank), c.cfg.Board.DropHeight, c.cfg.Board.CursorDepth)
	c.ready = &Slot{
		ID:        c.commands.Spawn(models.KindCursor, rank, t),
		Rank:      rank,
		Transform: t,
	}

	if c.preview.Valid() {
		c.commands.Despawn(c.preview)
	}
	c.next = c.drawRank()
	c.preview = c.commands.Spawn(models.KindPreview, c.next, physics.At(c.cfg.Board.Preview.X, c.cfg.Board.Preview.Y, 0))

	c.logger.Debug("replenished cursor",
		log.Int("ready_rank", int(rank)), log.Int("next_rank", int(c.next)))
}

func (c *Controller) drawRank() models.Rank {
	c.draws++
	return models.Rank(c.source.IntN(c.cfg.SpawnRanks))
}

// Drop turns the ready piece into a live one. Without a ready piece, or
// without a click, it does nothing.
func (c *Controller) Drop(clicked bool) (models.EntityID, bool) {
	if !clicked || c.ready == nil {
		return models.NoEntity, false
	}
	slot := c.ready
	c.ready = nil

	c.commands.Despawn(slot.ID)
	id := c.commands.Spawn(models.KindLive, slot.Rank, slot.Transform)
	c.timer.Restart()

	c.logger.Debug("dropped piece",
		log.String("id", id.String()), log.Int("rank", int(slot.Rank)),
		log.Float64("x", slot.Transform.Position.X))
	return id, true
}

// ClampForRank narrows x so the rank's collider stays between the walls.
// A shape wider than the board is centered.
func (c *Controller) ClampForRank(x float64, rank models.Rank) float64 {
	half := c.cfg.Board.Width / 2
	x = physics.Clamp(x, -half, half)

	minX, maxX := c.catalog.MustEntry(rank).Collider.ExtentsX(physics.Identity)
	lo, hi := -half-minX, half-maxX
	if lo > hi {
		return (lo + hi) / 2
	}
	return physics.Clamp(x, lo, hi)
}

func (c *Controller) Ready() (Slot, bool) {
	if c.ready == nil {
		return Slot{}, false
	}
	return *c.ready, true
}

func (c *Controller) Next() models.Rank { return c.next }

func (c *Controller) Preview() models.EntityID { return c.preview }

func (c *Controller) CursorX() float64 { return c.cursorX }

// Draws is how many next ranks were taken from the source.
func (c *Controller) Draws() int { return c.draws }

func (c *Controller) Cooldown() *Timer { return c.timer }

func (c *Controller) Config() Config { return c.cfg }
