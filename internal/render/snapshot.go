package render

import (
	"cmp"
	"fmt"
	"image"
	"image/color"
	"io"
	"slices"

	"github.com/gogpu/gg"
	"golang.org/x/image/colornames"

	"github.com/zeusync/suika/internal/core/events"
	"github.com/zeusync/suika/internal/core/systems/physics"
)

type Options struct {
	View
	BoardWidth float64
	FloorY     float64
	WallHeight float64
	Background color.RGBA
	Edge       color.RGBA
}

func DefaultOptions() Options {
	return Options{
		View:       DefaultView(),
		BoardWidth: 500,
		FloorY:     -200,
		WallHeight: 500,
		Background: colornames.Black,
		Edge:       colornames.Dimgray,
	}
}

// Draw paints the board and pieces, back to front by depth, into a new image.
func Draw(pieces []events.Render, opts Options) (image.Image, error) {
	dc, err := paint(pieces, opts)
	if err != nil {
		return nil, err
	}
	defer dc.Close()
	return dc.Image(), nil
}

// Snapshot draws the pieces and writes the frame as PNG.
func Snapshot(w io.Writer, pieces []events.Render, opts Options) error {
	dc, err := paint(pieces, opts)
	if err != nil {
		return err
	}
	defer dc.Close()
	return dc.EncodePNG(w)
}

func paint(pieces []events.Render, opts Options) (*gg.Context, error) {
	if opts.Width <= 0 || opts.Height <= 0 || opts.Scale <= 0 {
		return nil, fmt.Errorf("bad snapshot frame %dx%d scale %g", opts.Width, opts.Height, opts.Scale)
	}
	dc := gg.NewContext(opts.Width, opts.Height)
	dc.ClearWithColor(gg.FromColor(opts.Background))

	if err := drawBoard(dc, opts); err != nil {
		_ = dc.Close()
		return nil, err
	}

	ordered := slices.Clone(pieces)
	slices.SortStableFunc(ordered, func(a, b events.Render) int {
		if c := cmp.Compare(a.Transform.Depth, b.Transform.Depth); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	for _, p := range ordered {
		if err := drawPiece(dc, p, opts); err != nil {
			_ = dc.Close()
			return nil, fmt.Errorf("draw %s: %w", p.ID, err)
		}
	}
	return dc, nil
}

func drawBoard(dc *gg.Context, o Options) error {
	half := o.BoardWidth / 2
	top := o.FloorY + o.WallHeight
	corners := []physics.Vec2{{X: -half, Y: top}, {X: -half, Y: o.FloorY}, {X: half, Y: o.FloorY}, {X: half, Y: top}}

	dc.SetColor(colornames.White)
	dc.SetLineWidth(2)
	for i, c := range corners {
		x, y := o.ToScreen(c)
		if i == 0 {
			dc.MoveTo(x, y)
			continue
		}
		dc.LineTo(x, y)
	}
	return dc.Stroke()
}

func drawPiece(dc *gg.Context, p events.Render, o Options) error {
	if len(p.Vertices) < 3 {
		return nil
	}
	for i, pt := range o.Outline(p.Vertices, p.Transform) {
		if i == 0 {
			dc.MoveTo(pt[0], pt[1])
			continue
		}
		dc.LineTo(pt[0], pt[1])
	}
	dc.ClosePath()

	dc.SetColor(p.Color)
	if err := dc.FillPreserve(); err != nil {
		return err
	}
	dc.SetColor(o.Edge)
	dc.SetLineWidth(1)
	return dc.Stroke()
}
