package events

import (
	"image/color"

	"github.com/zeusync/suika/internal/core/models"
	"github.com/zeusync/suika/internal/core/systems/physics"
)

// Event types published by a session after each tick's commands are applied.
const (
	TypePieceSpawned   = "piece.spawned"
	TypePieceDespawned = "piece.despawned"
	TypePieceMoved     = "piece.moved"
	TypePieceFused     = "piece.fused"
)

// Render is what the rendering collaborator needs to draw a piece.
type Render struct {
	ID        models.EntityID
	Kind      models.Kind
	Rank      models.Rank
	Vertices  []physics.Vec2
	Color     color.RGBA
	Transform physics.Transform
}

// Body is what the physics collaborator needs to simulate a piece.
// Cursor and preview pieces are kinematic and never collide.
type Body struct {
	ID        models.EntityID
	Rank      models.Rank
	Radius    float64
	Collider  physics.ConvexPolygon
	Mode      physics.BodyMode
	Material  physics.Material
	Transform physics.Transform
}

type PieceSpawned struct {
	Render Render
	Body   Body
}

type PieceDespawned struct {
	ID   models.EntityID
	Kind models.Kind
	Rank models.Rank
}

type PieceMoved struct {
	ID        models.EntityID
	Kind      models.Kind
	Transform physics.Transform
}

type PieceFused struct {
	A, B      models.EntityID
	Rank      models.Rank
	Successor models.EntityID
	Placement physics.Transform
}
