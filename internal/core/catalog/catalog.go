package catalog

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/image/colornames"

	"github.com/zeusync/suika/internal/core/models"
	"github.com/zeusync/suika/internal/core/systems/physics"
)

var (
	ErrInvalidConfig      = errors.New("invalid catalog config")
	ErrDegenerateCollider = errors.New("degenerate piece collider")
	ErrUnknownRank        = errors.New("rank outside catalog")
)

// DefaultPalette is indexed by rank. Ranks past the end reuse the last color.
var DefaultPalette = []color.RGBA{
	colornames.Turquoise,
	colornames.Red,
	colornames.Aquamarine,
	colornames.Cyan,
	colornames.Bisque,
	colornames.Beige,
	colornames.Antiquewhite,
}

type Config struct {
	MinRadius float64
	MaxRadius float64
	MinEdges  int
	RankCount int
	Palette   []color.RGBA
}

func DefaultConfig() Config {
	return Config{
		MinRadius: 20,
		MaxRadius: 200,
		MinEdges:  3,
		RankCount: 7,
		Palette:   DefaultPalette,
	}
}

func (c Config) Validate() error {
	switch {
	case c.RankCount < 1:
		return fmt.Errorf("%w: rank count %d", ErrInvalidConfig, c.RankCount)
	case c.MinEdges < 3:
		return fmt.Errorf("%w: min edges %d, need at least 3", ErrInvalidConfig, c.MinEdges)
	case !finite(c.MinRadius) || !finite(c.MaxRadius):
		return fmt.Errorf("%w: radii must be finite", ErrInvalidConfig)
	case c.MinRadius <= 0:
		return fmt.Errorf("%w: min radius %g", ErrInvalidConfig, c.MinRadius)
	case c.MaxRadius < c.MinRadius:
		return fmt.Errorf("%w: max radius %g below min radius %g", ErrInvalidConfig, c.MaxRadius, c.MinRadius)
	}
	return nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// Entry is the immutable shape data for one rank.
type Entry struct {
	Rank     models.Rank
	Edges    int
	Radius   float64
	Vertices []physics.Vec2
	Collider physics.ConvexPolygon
	Color    color.RGBA
}

// Catalog holds one Entry per rank. It is built once and only read afterwards.
type Catalog struct {
	config  Config
	entries []Entry
}

// Build computes the catalog. An error here means the bounds are misconfigured;
// callers at startup should treat it as fatal.
func Build(cfg Config) (*Catalog, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Palette) == 0 {
		cfg.Palette = DefaultPalette
	}

	entries := make([]Entry, cfg.RankCount)
	for rank := range cfg.RankCount {
		edges := cfg.MinEdges + rank
		radius := cfg.radius(rank)
		vertices := RegularPolygon(edges, radius)

		collider, err := physics.ConvexHull(vertices)
		if err != nil {
			return nil, fmt.Errorf("%w: rank %d (%d edges, radius %g): %w", ErrDegenerateCollider, rank, edges, radius, err)
		}

		entries[rank] = Entry{
			Rank:     models.Rank(rank),
			Edges:    edges,
			Radius:   radius,
			Vertices: vertices,
			Collider: collider,
			Color:    cfg.Palette[min(rank, len(cfg.Palette)-1)],
		}
	}

	return &Catalog{config: cfg, entries: entries}, nil
}

// MustBuild is Build for startup paths where a bad catalog must stop the process.
func MustBuild(cfg Config) *Catalog {
	c, err := Build(cfg)
	if err != nil {
		panic(err)
	}
	return c
}

// radius interpolates linearly from MaxRadius at rank 0 down to MinRadius at
// the last rank. Both endpoints are assigned directly so they are exact.
func (c Config) radius(rank int) float64 {
	last := c.RankCount - 1
	switch rank {
	case 0:
		return c.MaxRadius
	case last:
		return c.MinRadius
	}
	return c.MaxRadius - float64(rank)*(c.MaxRadius-c.MinRadius)/float64(last)
}

// RegularPolygon places edges vertices on a circle, vertex i at angle 2πi/edges
// measured from +Y so vertex 0 points up.
func RegularPolygon(edges int, radius float64) []physics.Vec2 {
	vertices := make([]physics.Vec2, edges)
	for i := range edges {
		theta := 2 * math.Pi * float64(i) / float64(edges)
		vertices[i] = physics.Vec2{
			X: radius * math.Sin(theta),
			Y: radius * math.Cos(theta),
		}
	}
	return vertices
}

func (c *Catalog) Len() int { return len(c.entries) }

func (c *Catalog) Config() Config { return c.config }

func (c *Catalog) Entry(rank models.Rank) (Entry, error) {
	if rank < 0 || int(rank) >= len(c.entries) {
		return Entry{}, fmt.Errorf("%w: %d", ErrUnknownRank, rank)
	}
	return c.entries[rank], nil
}

// MustEntry panics on an unknown rank. Ranks come from the catalog itself, so a
// miss is a programming error.
func (c *Catalog) MustEntry(rank models.Rank) Entry {
	e, err := c.Entry(rank)
	if err != nil {
		panic(err)
	}
	return e
}

func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Fingerprint hashes every radius and vertex so two processes can check they
// built the same catalog.
func (c *Catalog) Fingerprint() uint64 {
	h := xxhash.New()
	buf := make([]byte, 0, 8)
	write := func(f float64) {
		buf = binary.LittleEndian.AppendUint64(buf[:0], math.Float64bits(f))
		_, _ = h.Write(buf)
	}
	for _, e := range c.entries {
		write(float64(e.Edges))
		write(e.Radius)
		for _, v := range e.Vertices {
			write(v.X)
			write(v.Y)
		}
	}
	return h.Sum64()
}
