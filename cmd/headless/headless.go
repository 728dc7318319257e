package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/suika/internal/config"
	"github.com/zeusync/suika/internal/core/events"
	"github.com/zeusync/suika/internal/core/observability/log"
	"github.com/zeusync/suika/internal/core/runner"
	"github.com/zeusync/suika/internal/core/session"
	"github.com/zeusync/suika/internal/core/systems/physics"
	"github.com/zeusync/suika/internal/injector"
	"github.com/zeusync/suika/internal/render"
	"github.com/zeusync/suika/pkg/concurrent"
)

const frame = time.Second / 60

var errNondeterministic = errors.New("same seed produced different sessions")

type options struct {
	runs     int
	ticks    int
	seed     uint64
	every    int
	workers  int
	snapshot string
}

func (o options) validate() error {
	switch {
	case o.runs <= 0:
		return fmt.Errorf("-runs must be > 0, got %d", o.runs)
	case o.ticks <= 0:
		return fmt.Errorf("-ticks must be > 0, got %d", o.ticks)
	case o.every <= 0:
		return fmt.Errorf("-every must be > 0, got %d", o.every)
	}
	return nil
}

type result struct {
	index     int
	seed      uint64
	stats     session.Stats
	digest    uint64
	published uint64
	pieces    []events.Render
}

// simulate plays one session under the autopilot. The digest covers the
// sequence of previewed ranks, which depends only on the seed.
func simulate(ctx context.Context, cfg config.Config, index int, seed uint64, o options, logger log.Log) (result, error) {
	r, err := injector.InitializeRunner(cfg, injector.Seed(seed), logger)
	if err != nil {
		return result{}, fmt.Errorf("run %d: %w", index, err)
	}
	defer r.Close()

	auto := runner.NewAutopilot(cfg.Board.Width, o.every, float64(seed%628)/100)
	h := xxhash.New()
	var buf [8]byte

	for tick := range o.ticks {
		if tick%256 == 0 {
			if err = ctx.Err(); err != nil {
				return result{}, err
			}
		}
		p, click := auto.Next()
		report, err := r.Step(frame, []physics.Vec2{p}, click)
		if err != nil {
			return result{}, fmt.Errorf("run %d: %w", index, err)
		}
		if report.Replenished {
			binary.LittleEndian.PutUint64(buf[:], uint64(r.Session().Next()))
			_, _ = h.Write(buf[:])
		}
	}

	res := result{
		index:     index,
		seed:      seed,
		stats:     r.Session().Stats(),
		digest:    h.Sum64(),
		published: r.Events().Published,
		pieces:    r.Session().Pieces(),
	}
	logger.Info("run finished",
		log.Int("run", index),
		log.Uint64("seed", seed),
		log.Uint64("drops", res.stats.Drops),
		log.Uint64("fusions", res.stats.Fusions),
		log.Int("highest_rank", int(res.stats.HighestRank)),
		log.Uint64("events", res.published),
	)
	return res, nil
}

func runAll(ctx context.Context, cfg config.Config, o options, logger log.Log) ([]result, error) {
	indices := make([]int, o.runs)
	for i := range indices {
		indices[i] = i + 1
	}
	workers := o.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return concurrent.ParallelMap(ctx, indices, workers, func(ctx context.Context, i int) (result, error) {
		return simulate(ctx, cfg, i, o.seed+uint64(i-1), o, logger)
	})
}

// verify replays the first seed and checks it reproduces the same session.
func verify(ctx context.Context, cfg config.Config, o options, first result, logger log.Log) error {
	again, err := simulate(ctx, cfg, 0, first.seed, o, logger)
	if err != nil {
		return err
	}
	if again.digest != first.digest || again.stats != first.stats || again.published != first.published {
		return fmt.Errorf("%w: seed %d digest %016x vs %016x", errNondeterministic, first.seed, first.digest, again.digest)
	}
	return nil
}

func run(ctx context.Context, out io.Writer, cfg config.Config, o options, logger log.Log) error {
	fingerprint, err := catalogFingerprint(cfg)
	if err != nil {
		return err
	}
	results, err := runAll(ctx, cfg, o, logger)
	if err != nil {
		return err
	}
	if err = verify(ctx, cfg, o, results[0], logger); err != nil {
		return err
	}
	printReport(out, fingerprint, o, results)

	if o.snapshot != "" {
		if err = writeSnapshot(o.snapshot, cfg, results[0].pieces); err != nil {
			return err
		}
		logger.Info("snapshot written", log.String("path", o.snapshot))
	}
	return nil
}

func catalogFingerprint(cfg config.Config) (uint64, error) {
	cat, err := injector.ProvideCatalog(cfg)
	if err != nil {
		return 0, err
	}
	return cat.Fingerprint(), nil
}

func printReport(w io.Writer, fingerprint uint64, o options, results []result) {
	fmt.Fprintf(w, "=== Suika Headless Report ===\n")
	fmt.Fprintf(w, "catalog=%016x runs=%d ticks=%d seed=%d every=%d\n\n", fingerprint, o.runs, o.ticks, o.seed, o.every)

	var drops, fusions, terminal uint64
	for _, r := range results {
		fmt.Fprintf(w, "run %2d seed=%-6d drops=%-4d fusions=%-4d terminal=%-3d highest=%d pieces=%-3d events=%-5d digest=%016x\n",
			r.index, r.seed, r.stats.Drops, r.stats.Fusions, r.stats.TerminalFusions, r.stats.HighestRank, len(r.pieces), r.published, r.digest)
		drops += r.stats.Drops
		fusions += r.stats.Fusions
		terminal += r.stats.TerminalFusions
	}
	fmt.Fprintf(w, "\ntotal drops=%d fusions=%d terminal=%d deterministic=ok\n", drops, fusions, terminal)
}

func writeSnapshot(path string, cfg config.Config, pieces []events.Render) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	opts := render.DefaultOptions()
	opts.BoardWidth = cfg.Board.Width
	opts.FloorY = cfg.Board.FloorY
	opts.WallHeight = cfg.Board.DropHeight - cfg.Board.FloorY
	if err = render.Snapshot(f, pieces, opts); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return f.Close()
}
