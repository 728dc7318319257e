package main

import (
	"cmp"
	"image/color"
	"slices"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/colornames"

	"github.com/zeusync/suika/internal/config"
	"github.com/zeusync/suika/internal/core/events"
	"github.com/zeusync/suika/internal/core/observability/log"
	"github.com/zeusync/suika/internal/core/runner"
	"github.com/zeusync/suika/internal/core/systems/physics"
	"github.com/zeusync/suika/internal/render"
)

type Game struct {
	runner  *runner.Runner
	board   config.BoardConfig
	view    render.View
	frame   time.Duration
	pressed bool
	logger  log.Log
}

func newGame(r *runner.Runner, cfg config.Config, logger log.Log) *Game {
	return &Game{
		runner: r,
		board:  cfg.Board,
		view:   render.DefaultView(),
		frame:  time.Second / time.Duration(ebiten.TPS()),
		logger: logger,
	}
}

func (g *Game) Update() error {
	cx, cy := ebiten.CursorPosition()
	pointer := g.view.ToWorld(float64(cx), float64(cy))

	pressed := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	click := pressed && !g.pressed
	g.pressed = pressed

	report, err := g.runner.Step(g.frame, []physics.Vec2{pointer}, click)
	if err != nil {
		g.logger.Warn("frame failed", log.Uint64("tick", report.Tick), log.Err(err))
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Black)
	g.drawBoard(screen)

	pieces := g.runner.Session().Pieces()
	slices.SortStableFunc(pieces, func(a, b events.Render) int {
		return cmp.Compare(a.Transform.Depth, b.Transform.Depth)
	})
	for _, p := range pieces {
		drawPiece(screen, g.view, p)
	}
}

func (g *Game) drawBoard(screen *ebiten.Image) {
	half := g.board.Width / 2
	top := g.board.DropHeight
	lx, ty := g.view.ToScreen(physics.Vec2{X: -half, Y: top})
	rx, by := g.view.ToScreen(physics.Vec2{X: half, Y: g.board.FloorY})
	l, t, r, b := float32(lx), float32(ty), float32(rx), float32(by)
	vector.StrokeLine(screen, l, t, l, b, 2, colornames.White, true)
	vector.StrokeLine(screen, l, b, r, b, 2, colornames.White, true)
	vector.StrokeLine(screen, r, b, r, t, 2, colornames.White, true)
}

func drawPiece(screen *ebiten.Image, v render.View, p events.Render) {
	if len(p.Vertices) < 3 {
		return
	}
	outline := v.Outline(p.Vertices, p.Transform)
	var path vector.Path
	for i, pt := range outline {
		if i == 0 {
			path.MoveTo(float32(pt[0]), float32(pt[1]))
			continue
		}
		path.LineTo(float32(pt[0]), float32(pt[1]))
	}
	path.Close()

	opts := &vector.DrawPathOptions{AntiAlias: true}
	opts.ColorScale.ScaleWithColor(p.Color)
	vector.FillPath(screen, &path, &vector.FillOptions{}, opts)

	edge := color.RGBA{R: 40, G: 40, B: 40, A: 255}
	for i, a := range outline {
		b := outline[(i+1)%len(outline)]
		vector.StrokeLine(screen, float32(a[0]), float32(a[1]), float32(b[0]), float32(b[1]), 1, edge, true)
	}
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.view.Width, g.view.Height
}
