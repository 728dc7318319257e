package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/suika/internal/config"
	"github.com/zeusync/suika/internal/core/observability/log"
)

func smallRun() options {
	return options{runs: 3, ticks: 900, seed: 11, every: 30, workers: 2}
}

func TestSimulateIsReproducible(t *testing.T) {
	cfg := config.Default()
	a, err := simulate(context.Background(), cfg, 1, 5, smallRun(), log.NewNop())
	require.NoError(t, err)
	b, err := simulate(context.Background(), cfg, 2, 5, smallRun(), log.NewNop())
	require.NoError(t, err)

	assert.Equal(t, a.digest, b.digest)
	assert.Equal(t, a.stats, b.stats)
	assert.Positive(t, a.stats.Drops)
}

func TestRunAllKeepsRunOrder(t *testing.T) {
	results, err := runAll(context.Background(), config.Default(), smallRun(), log.NewNop())
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i+1, r.index)
		assert.Equal(t, uint64(11+i), r.seed)
	}
}

func TestRunWritesReportAndSnapshot(t *testing.T) {
	o := smallRun()
	o.snapshot = filepath.Join(t.TempDir(), "board.png")

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), &out, config.Default(), o, log.NewNop()))

	report := out.String()
	assert.True(t, strings.HasPrefix(report, "=== Suika Headless Report ==="))
	assert.Contains(t, report, "deterministic=ok")
	assert.Equal(t, 3, strings.Count(report, "\nrun "))

	png, err := os.ReadFile(o.snapshot)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(png[:4]))
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := run(ctx, &bytes.Buffer{}, config.Default(), smallRun(), log.NewNop())
	require.ErrorIs(t, err, context.Canceled)
}

func TestOptionsValidate(t *testing.T) {
	require.NoError(t, smallRun().validate())
	for _, mutate := range []func(*options){
		func(o *options) { o.runs = 0 },
		func(o *options) { o.ticks = -1 },
		func(o *options) { o.every = 0 },
	} {
		o := smallRun()
		mutate(&o)
		require.Error(t, o.validate())
	}
}
