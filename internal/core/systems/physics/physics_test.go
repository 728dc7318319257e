package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvexHull(t *testing.T) {
	t.Run("square with interior point", func(t *testing.T) {
		poly, err := ConvexHull([]Vec2{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {1, 1}})
		require.NoError(t, err)
		assert.Len(t, poly.Points, 4)
		assert.InDelta(t, 4.0, poly.Area(), 1e-12)
	})

	t.Run("collinear points are degenerate", func(t *testing.T) {
		_, err := ConvexHull([]Vec2{{0, 0}, {1, 1}, {2, 2}, {3, 3}})
		require.True(t, errors.Is(err, ErrDegenerateHull))
	})

	t.Run("too few points", func(t *testing.T) {
		_, err := ConvexHull([]Vec2{{0, 0}, {1, 0}})
		require.ErrorIs(t, err, ErrDegenerateHull)
	})

	t.Run("almost flat triangle", func(t *testing.T) {
		_, err := ConvexHull([]Vec2{{-100, 0}, {100, 0}, {0, 1e-9}})
		require.ErrorIs(t, err, ErrDegenerateHull)
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		_, err := ConvexHull([]Vec2{{1, 1}, {1, 1}, {1, 1}})
		require.ErrorIs(t, err, ErrDegenerateHull)
	})
}

func TestExtentsX(t *testing.T) {
	poly, err := ConvexHull([]Vec2{{0, 10}, {8, -5}, {-6, -5}})
	require.NoError(t, err)

	minX, maxX := poly.ExtentsX(Identity)
	assert.Equal(t, -6.0, minX)
	assert.Equal(t, 8.0, maxX)

	minX, maxX = poly.ExtentsX(RotationFromAngle(math.Pi))
	assert.InDelta(t, -8.0, minX, 1e-9)
	assert.InDelta(t, 6.0, maxX, 1e-9)
}

func TestBoundingRadius(t *testing.T) {
	poly, err := ConvexHull([]Vec2{{0, 10}, {8, -6}, {-6, -5}})
	require.NoError(t, err)
	assert.Equal(t, 10.0, poly.BoundingRadius())

	assert.Zero(t, ConvexPolygon{}.BoundingRadius())
}

func TestRotationAverage(t *testing.T) {
	a := RotationFromAngle(0)
	b := RotationFromAngle(math.Pi / 2)
	avg := a.Average(b)

	assert.Equal(t, (a.Z+b.Z)/2, avg.Z)
	assert.Equal(t, (a.W+b.W)/2, avg.W)
	assert.InDelta(t, math.Pi/4, avg.Angle(), 1e-12)
	// component-wise mean of two unit quaternions is shorter than unit length
	assert.Less(t, math.Hypot(avg.Z, avg.W), 1.0)
}

func TestTransformBlend(t *testing.T) {
	a := At(-10, 4, 0)
	b := At(30, 8, 2)
	b.Rotation = RotationFromAngle(1)

	mid := a.Blend(b)
	assert.Equal(t, Vec2{X: 10, Y: 6}, mid.Position)
	assert.Equal(t, 1.0, mid.Depth)
	assert.Equal(t, Identity.Average(b.Rotation), mid.Rotation)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, -1.0, Clamp(-5, -1, 1))
	assert.Equal(t, 1.0, Clamp(5, -1, 1))
	assert.Equal(t, 0.5, Clamp(0.5, -1, 1))
}
