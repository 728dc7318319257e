package pieces

import (
	"github.com/zeusync/suika/internal/core/models"
	"github.com/zeusync/suika/internal/core/systems/physics"
)

type Op uint8

const (
	OpSpawn Op = iota
	OpDespawn
	OpMove
)

func (o Op) String() string {
	switch o {
	case OpSpawn:
		return "spawn"
	case OpDespawn:
		return "despawn"
	case OpMove:
		return "move"
	default:
		return "unknown"
	}
}

// Command is one deferred change to the registry.
type Command struct {
	Op        Op
	ID        models.EntityID
	Kind      models.Kind
	Rank      models.Rank
	Transform physics.Transform
}

// Commands buffers registry changes requested during a tick. Spawns get their
// id immediately so the requester can refer to the entity before it exists.
type Commands struct {
	registry *Registry
	queue    []Command
}

func NewCommands(r *Registry) *Commands {
	return &Commands{registry: r}
}

func (c *Commands) Spawn(kind models.Kind, rank models.Rank, t physics.Transform) models.EntityID {
	id := c.registry.Reserve()
	c.queue = append(c.queue, Command{Op: OpSpawn, ID: id, Kind: kind, Rank: rank, Transform: t})
	return id
}

func (c *Commands) Despawn(id models.EntityID) {
	c.queue = append(c.queue, Command{Op: OpDespawn, ID: id})
}

func (c *Commands) Move(id models.EntityID, t physics.Transform) {
	c.queue = append(c.queue, Command{Op: OpMove, ID: id, Transform: t})
}

func (c *Commands) Len() int { return len(c.queue) }

// Apply executes the buffered commands in request order and returns the ones
// that changed the registry. Despawning or moving a missing entity is skipped.
// Despawning the same entity twice is only reported once.
func (c *Commands) Apply() []Command {
	applied := make([]Command, 0, len(c.queue))
	for _, cmd := range c.queue {
		switch cmd.Op {
		case OpSpawn:
			if _, err := c.registry.Insert(cmd.ID, cmd.Kind, cmd.Rank, cmd.Transform); err != nil {
				continue
			}
		case OpDespawn:
			p, ok := c.registry.Remove(cmd.ID)
			if !ok {
				continue
			}
			cmd.Kind, cmd.Rank, cmd.Transform = p.Kind, p.Rank, p.Transform
		case OpMove:
			p, ok := c.registry.Get(cmd.ID)
			if !ok {
				continue
			}
			p.Transform = cmd.Transform
			cmd.Kind, cmd.Rank = p.Kind, p.Rank
		}
		applied = append(applied, cmd)
	}
	c.queue = c.queue[:0]
	return applied
}
