package physics

import (
	"math"

	"github.com/zeusync/suika/internal/core/models"
)

// Lightweight physics abstractions shared by the game core and whatever
// rigid-body engine sits behind it. The core only describes colliders and
// consumes collision notifications; motion is integrated elsewhere.

type Vec2 struct{ X, Y float64 }

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(f float64) Vec2 { return Vec2{v.X * f, v.Y * f} }
func (v Vec2) Dot(o Vec2) float64   { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Cross(o Vec2) float64 { return v.X*o.Y - v.Y*o.X }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }
func (v Vec2) Midpoint(o Vec2) Vec2 { return Vec2{(v.X + o.X) / 2, (v.Y + o.Y) / 2} }

// Rotation is a unit quaternion about the Z axis, stored as its (z, w) pair.
type Rotation struct{ Z, W float64 }

var Identity = Rotation{W: 1}

func RotationFromAngle(theta float64) Rotation {
	s, c := math.Sincos(theta / 2)
	return Rotation{Z: s, W: c}
}

func (r Rotation) Angle() float64 { return 2 * math.Atan2(r.Z, r.W) }

// Average is the component-wise mean of two rotations. It is not a slerp and
// the result is not renormalized.
func (r Rotation) Average(o Rotation) Rotation {
	return Rotation{Z: (r.Z + o.Z) / 2, W: (r.W + o.W) / 2}
}

// Apply rotates v by the rotation's angle. Non-unit rotations still rotate by
// their angle; their magnitude is ignored.
func (r Rotation) Apply(v Vec2) Vec2 {
	if r == Identity {
		return v
	}
	s, c := math.Sincos(r.Angle())
	return Vec2{X: v.X*c - v.Y*s, Y: v.X*s + v.Y*c}
}

// Transform places an entity in the world. Depth is the render layer only.
type Transform struct {
	Position Vec2
	Depth    float64
	Rotation Rotation
}

func At(x, y, depth float64) Transform {
	return Transform{Position: Vec2{X: x, Y: y}, Depth: depth, Rotation: Identity}
}

// Blend returns the transform halfway between t and o: midpoint position,
// mean depth and component-wise averaged rotation.
func (t Transform) Blend(o Transform) Transform {
	return Transform{
		Position: t.Position.Midpoint(o.Position),
		Depth:    (t.Depth + o.Depth) / 2,
		Rotation: t.Rotation.Average(o.Rotation),
	}
}

// BodyMode selects how the physics collaborator treats a body.
type BodyMode uint8

const (
	// ModeKinematic bodies follow their transform and never collide.
	ModeKinematic BodyMode = iota
	// ModeDynamic bodies are fully simulated.
	ModeDynamic
)

func (m BodyMode) String() string {
	if m == ModeDynamic {
		return "dynamic"
	}
	return "kinematic"
}

// Material holds the per-body tuning handed to the physics collaborator.
type Material struct {
	Restitution    float64
	GravityScale   float64
	LinearDamping  float64
	AngularDamping float64
}

func DefaultMaterial() Material {
	return Material{
		Restitution:    0.8,
		GravityScale:   6,
		LinearDamping:  1,
		AngularDamping: 0,
	}
}

// CollisionEvent is one entry of the collision feed. Started is false for
// separation notifications.
type CollisionEvent struct {
	A, B    models.EntityID
	Started bool
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
