package fusion

import (
	"errors"
	"fmt"

	"github.com/zeusync/suika/internal/core/catalog"
	"github.com/zeusync/suika/internal/core/models"
	"github.com/zeusync/suika/internal/core/observability/log"
	"github.com/zeusync/suika/internal/core/pieces"
	"github.com/zeusync/suika/internal/core/systems/physics"
)

var ErrInvalidConfig = errors.New("invalid fusion config")

type Config struct {
	// MaxRank bounds the chain: a pair of rank r only leaves a successor when r+1 < MaxRank.
	MaxRank models.Rank
}

func DefaultConfig() Config {
	return Config{MaxRank: 6}
}

// Fusion describes one accepted pair.
type Fusion struct {
	A, B      models.EntityID
	Rank      models.Rank
	Successor models.EntityID
	Placement physics.Transform
}

// Terminal reports whether the pair vanished without a successor.
func (f Fusion) Terminal() bool { return !f.Successor.Valid() }

// Resolver turns collision-start notifications into fusions. It reads the
// registry directly and requests every despawn and spawn through the command
// buffer, so pieces claimed earlier in a batch stay visible until the buffer
// is applied and are rejected by their Fused flag.
type Resolver struct {
	registry *pieces.Registry
	catalog  *catalog.Catalog
	commands *pieces.Commands
	maxRank  models.Rank
	logger   log.Log
}

func NewResolver(cfg Config, registry *pieces.Registry, cat *catalog.Catalog, commands *pieces.Commands, logger log.Log) (*Resolver, error) {
	if cfg.MaxRank < 1 {
		return nil, fmt.Errorf("%w: max rank %d", ErrInvalidConfig, cfg.MaxRank)
	}
	if int(cfg.MaxRank) > cat.Len() {
		return nil, fmt.Errorf("%w: max rank %d exceeds catalog of %d shapes", ErrInvalidConfig, cfg.MaxRank, cat.Len())
	}
	return &Resolver{
		registry: registry,
		catalog:  cat,
		commands: commands,
		maxRank:  cfg.MaxRank,
		logger:   logger.Named("fusion"),
	}, nil
}

func (r *Resolver) MaxRank() models.Rank { return r.maxRank }

// Resolve processes a whole collision batch in order. Separation events are ignored.
func (r *Resolver) Resolve(events []physics.CollisionEvent) []Fusion {
	var fusions []Fusion
	for _, ev := range events {
		if !ev.Started {
			continue
		}
		if f, ok := r.OnCollisionStart(ev.A, ev.B); ok {
			fusions = append(fusions, f)
		}
	}
	return fusions
}

// OnCollisionStart decides a single contact. It returns false when nothing fused.
func (r *Resolver) OnCollisionStart(a, b models.EntityID) (Fusion, bool) {
	if a == b {
		return Fusion{}, false
	}

	pa, okA := r.registry.Live(a)
	pb, okB := r.registry.Live(b)
	if !okA || !okB {
		r.logger.Debug("collision references missing piece",
			log.String("a", a.String()), log.String("b", b.String()),
			log.Bool("a_found", okA), log.Bool("b_found", okB))
		return Fusion{}, false
	}

	// check both flags, then set both
	if pa.Rank != pb.Rank || pa.Fused || pb.Fused {
		return Fusion{}, false
	}
	pa.Fused = true
	pb.Fused = true

	r.commands.Despawn(a)
	r.commands.Despawn(b)

	f := Fusion{
		A:         a,
		B:         b,
		Rank:      pa.Rank,
		Placement: pa.Transform.Blend(pb.Transform),
	}

	next := pa.Rank + 1
	if next < r.maxRank {
		if _, err := r.catalog.Entry(next); err != nil {
			// NewResolver bounds maxRank by the catalog, so this is a broken invariant.
			panic(err)
		}
		f.Successor = r.commands.Spawn(models.KindLive, next, f.Placement)
	}

	r.logger.Debug("pieces fused",
		log.String("a", a.String()), log.String("b", b.String()),
		log.Int("rank", int(pa.Rank)), log.Bool("terminal", f.Terminal()))
	return f, true
}
