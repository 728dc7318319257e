package render

import "github.com/zeusync/suika/internal/core/systems/physics"

// View maps the y-up world, origin at the board centre, onto a y-down
// pixel grid. Center is the world point drawn at the middle of the frame.
type View struct {
	Width, Height int
	Scale         float64
	Center        physics.Vec2
}

func DefaultView() View {
	return View{Width: 800, Height: 700, Scale: 1, Center: physics.Vec2{X: 50, Y: 75}}
}

func (v View) ToScreen(p physics.Vec2) (float64, float64) {
	x := float64(v.Width)/2 + (p.X-v.Center.X)*v.Scale
	y := float64(v.Height)/2 - (p.Y-v.Center.Y)*v.Scale
	return x, y
}

func (v View) ToWorld(x, y float64) physics.Vec2 {
	return physics.Vec2{
		X: (x-float64(v.Width)/2)/v.Scale + v.Center.X,
		Y: (float64(v.Height)/2-y)/v.Scale + v.Center.Y,
	}
}

// Outline returns the piece's vertices in screen space.
func (v View) Outline(vertices []physics.Vec2, t physics.Transform) [][2]float64 {
	out := make([][2]float64, len(vertices))
	for i, vert := range vertices {
		x, y := v.ToScreen(t.Rotation.Apply(vert).Add(t.Position))
		out[i] = [2]float64{x, y}
	}
	return out
}
