package physics

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var ErrDegenerateHull = errors.New("convex hull is degenerate")

// degenerateAreaRatio is the smallest hull area, relative to the squared
// extent of the input, that still counts as a polygon.
const degenerateAreaRatio = 1e-9

// ConvexPolygon is a counter-clockwise convex polygon centered on its body origin.
type ConvexPolygon struct {
	Points []Vec2
}

// ConvexHull builds the convex hull of points with the monotone chain
// algorithm. Collinear points are dropped. It fails with ErrDegenerateHull
// when fewer than three points remain or the hull is almost flat.
func ConvexHull(points []Vec2) (ConvexPolygon, error) {
	if len(points) < 3 {
		return ConvexPolygon{}, fmt.Errorf("%w: %d points", ErrDegenerateHull, len(points))
	}

	sorted := slices.Clone(points)
	slices.SortFunc(sorted, func(a, b Vec2) int {
		if a.X != b.X {
			if a.X < b.X {
				return -1
			}
			return 1
		}
		switch {
		case a.Y < b.Y:
			return -1
		case a.Y > b.Y:
			return 1
		default:
			return 0
		}
	})
	sorted = slices.Compact(sorted)

	hull := make([]Vec2, 0, 2*len(sorted))
	for _, p := range sorted {
		for len(hull) >= 2 && turn(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(sorted) - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && turn(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	hull = hull[:len(hull)-1]

	poly := ConvexPolygon{Points: hull}
	if len(hull) < 3 {
		return ConvexPolygon{}, fmt.Errorf("%w: %d hull points", ErrDegenerateHull, len(hull))
	}

	span := extent(sorted)
	if poly.Area() <= degenerateAreaRatio*span*span {
		return ConvexPolygon{}, fmt.Errorf("%w: area %g", ErrDegenerateHull, poly.Area())
	}
	return poly, nil
}

func turn(o, a, b Vec2) float64 { return a.Sub(o).Cross(b.Sub(o)) }

func extent(points []Vec2) float64 {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	return max(maxX-minX, maxY-minY)
}

// Area uses the shoelace formula.
func (p ConvexPolygon) Area() float64 {
	var sum float64
	for i, a := range p.Points {
		b := p.Points[(i+1)%len(p.Points)]
		sum += a.Cross(b)
	}
	return math.Abs(sum) / 2
}

// ExtentsX projects the polygon onto the X axis and returns how far it
// reaches to the left (minX, <= 0 for a centered shape) and right (maxX).
func (p ConvexPolygon) ExtentsX(r Rotation) (minX, maxX float64) {
	minX, maxX = math.Inf(1), math.Inf(-1)
	for _, v := range p.Points {
		w := r.Apply(v)
		minX, maxX = min(minX, w.X), max(maxX, w.X)
	}
	return minX, maxX
}

// BoundingRadius is the distance from the origin to the farthest vertex.
func (p ConvexPolygon) BoundingRadius() float64 {
	var r float64
	for _, v := range p.Points {
		r = max(r, v.Len())
	}
	return r
}
