package config

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/suika/internal/core/catalog"
	"github.com/zeusync/suika/internal/core/fusion"
	"github.com/zeusync/suika/internal/core/models"
	"github.com/zeusync/suika/internal/core/observability/log"
	"github.com/zeusync/suika/internal/core/session"
	"github.com/zeusync/suika/internal/core/sim"
	"github.com/zeusync/suika/internal/core/spawn"
	"github.com/zeusync/suika/internal/core/systems/physics"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the whole process configuration. Every field has a default, so a
// file only needs the values it changes.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Seed    uint64        `yaml:"seed"`
	Catalog CatalogConfig `yaml:"catalog"`
	Board   BoardConfig   `yaml:"board"`
	Spawn   SpawnConfig   `yaml:"spawn"`
	Fusion  FusionConfig  `yaml:"fusion"`
	Physics PhysicsConfig `yaml:"physics"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type CatalogConfig struct {
	MinRadius float64 `yaml:"min_radius"`
	MaxRadius float64 `yaml:"max_radius"`
	MinEdges  int     `yaml:"min_edges"`
	RankCount int     `yaml:"rank_count"`
	// Palette entries are color names ("turquoise") or hex ("#40e0d0").
	Palette []string `yaml:"palette,omitempty"`
}

type BoardConfig struct {
	Width       float64 `yaml:"width"`
	Height      float64 `yaml:"height"`
	FloorY      float64 `yaml:"floor_y"`
	DropHeight  float64 `yaml:"drop_height"`
	CursorDepth float64 `yaml:"cursor_depth"`
	PreviewX    float64 `yaml:"preview_x"`
	PreviewY    float64 `yaml:"preview_y"`
}

type SpawnConfig struct {
	Cooldown   time.Duration `yaml:"cooldown"`
	SpawnRanks int           `yaml:"spawn_ranks"`
	FirstRank  int           `yaml:"first_rank"`
}

type FusionConfig struct {
	MaxRank int `yaml:"max_rank"`
}

type PhysicsConfig struct {
	Gravity        float64 `yaml:"gravity"`
	Restitution    float64 `yaml:"restitution"`
	GravityScale   float64 `yaml:"gravity_scale"`
	LinearDamping  float64 `yaml:"linear_damping"`
	AngularDamping float64 `yaml:"angular_damping"`
	Substeps       int     `yaml:"substeps"`
}

const phi = 1.618033988749894848204586834365638118

func Default() Config {
	cat := catalog.DefaultConfig()
	sp := spawn.DefaultConfig()
	mat := physics.DefaultMaterial()
	return Config{
		Log:  LogConfig{Level: "info"},
		Seed: 0,
		Catalog: CatalogConfig{
			MinRadius: cat.MinRadius,
			MaxRadius: cat.MaxRadius,
			MinEdges:  cat.MinEdges,
			RankCount: cat.RankCount,
		},
		Board: BoardConfig{
			Width:       sp.Board.Width,
			Height:      phi * sp.Board.Width,
			FloorY:      -200,
			DropHeight:  sp.Board.DropHeight,
			CursorDepth: sp.Board.CursorDepth,
			PreviewX:    sp.Board.Preview.X,
			PreviewY:    sp.Board.Preview.Y,
		},
		Spawn: SpawnConfig{
			Cooldown:   sp.Cooldown,
			SpawnRanks: sp.SpawnRanks,
			FirstRank:  int(sp.FirstRank),
		},
		Fusion: FusionConfig{MaxRank: int(fusion.DefaultConfig().MaxRank)},
		Physics: PhysicsConfig{
			Gravity:        98.1,
			Restitution:    mat.Restitution,
			GravityScale:   mat.GravityScale,
			LinearDamping:  mat.LinearDamping,
			AngularDamping: mat.AngularDamping,
			Substeps:       4,
		},
	}
}

// Load decodes YAML on top of the defaults. Unknown keys are rejected.
func Load(r io.Reader) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Validate checks what can be checked without building the catalog.
func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cat, err := c.CatalogConfig()
	if err != nil {
		return err
	}
	if err = cat.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch {
	case c.Fusion.MaxRank < 1 || c.Fusion.MaxRank > c.Catalog.RankCount:
		return fmt.Errorf("%w: fusion.max_rank %d outside [1, %d]", ErrInvalidConfig, c.Fusion.MaxRank, c.Catalog.RankCount)
	case c.Spawn.SpawnRanks < 1 || c.Spawn.SpawnRanks > c.Catalog.RankCount:
		return fmt.Errorf("%w: spawn.spawn_ranks %d outside [1, %d]", ErrInvalidConfig, c.Spawn.SpawnRanks, c.Catalog.RankCount)
	case c.Spawn.FirstRank < 0 || c.Spawn.FirstRank >= c.Catalog.RankCount:
		return fmt.Errorf("%w: spawn.first_rank %d", ErrInvalidConfig, c.Spawn.FirstRank)
	case c.Spawn.Cooldown < 0:
		return fmt.Errorf("%w: spawn.cooldown %s", ErrInvalidConfig, c.Spawn.Cooldown)
	case c.Board.Width <= 0 || c.Board.Height <= 0:
		return fmt.Errorf("%w: board %gx%g", ErrInvalidConfig, c.Board.Width, c.Board.Height)
	case c.Board.DropHeight <= c.Board.FloorY:
		return fmt.Errorf("%w: drop height %g not above floor %g", ErrInvalidConfig, c.Board.DropHeight, c.Board.FloorY)
	case c.Physics.Substeps < 1:
		return fmt.Errorf("%w: physics.substeps %d", ErrInvalidConfig, c.Physics.Substeps)
	}
	return nil
}

func (c Config) LogLevel() log.Level {
	level, _ := log.ParseLevel(c.Log.Level)
	return level
}

func (c Config) CatalogConfig() (catalog.Config, error) {
	palette, err := parsePalette(c.Catalog.Palette)
	if err != nil {
		return catalog.Config{}, err
	}
	return catalog.Config{
		MinRadius: c.Catalog.MinRadius,
		MaxRadius: c.Catalog.MaxRadius,
		MinEdges:  c.Catalog.MinEdges,
		RankCount: c.Catalog.RankCount,
		Palette:   palette,
	}, nil
}

func (c Config) SessionConfig() session.Config {
	return session.Config{
		Fusion: fusion.Config{MaxRank: models.Rank(c.Fusion.MaxRank)},
		Spawn: spawn.Config{
			Board: spawn.Board{
				Width:       c.Board.Width,
				DropHeight:  c.Board.DropHeight,
				CursorDepth: c.Board.CursorDepth,
				Preview:     physics.Vec2{X: c.Board.PreviewX, Y: c.Board.PreviewY},
			},
			Cooldown:   c.Spawn.Cooldown,
			SpawnRanks: c.Spawn.SpawnRanks,
			FirstRank:  models.Rank(c.Spawn.FirstRank),
		},
		Material: physics.Material{
			Restitution:    c.Physics.Restitution,
			GravityScale:   c.Physics.GravityScale,
			LinearDamping:  c.Physics.LinearDamping,
			AngularDamping: c.Physics.AngularDamping,
		},
	}
}

func (c Config) SimConfig() sim.Config {
	return sim.Config{
		Gravity:  c.Physics.Gravity,
		FloorY:   c.Board.FloorY,
		Width:    c.Board.Width,
		Substeps: c.Physics.Substeps,
	}
}

func parsePalette(names []string) ([]color.RGBA, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]color.RGBA, len(names))
	for i, name := range names {
		c, err := parseColor(name)
		if err != nil {
			return nil, fmt.Errorf("%w: palette[%d]: %w", ErrInvalidConfig, i, err)
		}
		out[i] = c
	}
	return out, nil
}

func parseColor(s string) (color.RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("unknown color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("bad hex color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
