package server

import (
	"bytes"
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"waitdie/config"
	"waitdie/schedule"
	"waitdie/transaction"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) (*WaitDie, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	var buf bytes.Buffer
	w, err := New(cfg, &buf)
	require.NoError(t, err)
	return w, &buf
}

func samples(t *testing.T) [][]schedule.Operation {
	t.Helper()
	var inputs [][]schedule.Operation
	for _, name := range SampleNames() {
		ops, err := Sample(name)
		require.NoError(t, err)
		inputs = append(inputs, ops)
	}
	return inputs
}

func TestRunAll(t *testing.T) {
	w, _ := newTestServer(t, func(cfg *config.Config) { cfg.Parallelism = 2 })
	inputs := samples(t)

	results, err := w.RunAll(context.Background(), inputs...)
	require.NoError(t, err)
	require.Len(t, results, len(inputs))

	for i, input := range inputs {
		want, err := w.Run(context.Background(), input)
		require.NoError(t, err)
		require.Equal(t, want.Events, results[i].Events)
		require.Equal(t, want.Rounds, results[i].Rounds)
		require.Empty(t, results[i].Stalled)
	}

	// SampleNames is sorted: one, three, two.
	require.Equal(t, 3, results[0].Rounds)
	require.Equal(t, 13, results[1].Rounds)
	require.Equal(t, 10, results[2].Rounds)
}

func TestRunAllFailure(t *testing.T) {
	w, buf := newTestServer(t, nil)

	bad := []schedule.Operation{{Object: "x", Tx: "T1", Kind: schedule.OpKind(9)}}
	_, err := w.RunAll(context.Background(), samples(t)[0], bad)
	require.Error(t, err)
	require.True(t, errors.Is(err, schedule.ErrUnsupportedOperationKind))
	require.Contains(t, err.Error(), "input 1")
	require.Contains(t, buf.String(), "run failed")
}

func TestRunAllRoundLimit(t *testing.T) {
	w, _ := newTestServer(t, func(cfg *config.Config) { cfg.MaxRounds = 5 })

	_, err := w.RunAll(context.Background(), samples(t)...)
	require.True(t, errors.Is(err, transaction.ErrRoundLimitExceeded))
}

func TestMetricsEnabled(t *testing.T) {
	w, _ := newTestServer(t, nil)
	require.Nil(t, w.Counters())

	w, _ = newTestServer(t, func(cfg *config.Config) { cfg.Metrics.Enabled = true })
	ops, err := Sample("two")
	require.NoError(t, err)
	_, err = w.Run(context.Background(), ops)
	require.NoError(t, err)

	totals := make(map[string]float64)
	for _, c := range w.Counters() {
		totals[c.Name] = c.Total
	}
	require.Equal(t, float64(3), totals["waitdie.events.rollback"])
	require.Equal(t, float64(1), totals["waitdie.events.wait"])
	require.Equal(t, float64(2), totals["waitdie.events.commit"])
}

func TestLogging(t *testing.T) {
	w, buf := newTestServer(t, func(cfg *config.Config) {
		cfg.Log.Level = "trace"
		cfg.Log.JSON = true
	})
	ops, err := Sample("one")
	require.NoError(t, err)
	_, err = w.Run(context.Background(), ops)
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, `"@message":"starting run"`)
	require.Contains(t, out, `"@module":"waitdie.scheduler"`)
	require.Contains(t, out, `"@module":"waitdie.locktable"`)
}

func TestNewInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Parallelism = 0
	_, err := New(cfg, nil)
	require.Error(t, err)
}

func TestSample(t *testing.T) {
	require.Equal(t, []string{"one", "three", "two"}, SampleNames())

	ops, err := Sample("one")
	require.NoError(t, err)
	require.Equal(t, []schedule.Operation{
		schedule.Write("A", "pear"),
		schedule.Commit("NA", "pear"),
	}, ops)

	_, err = Sample("four")
	require.True(t, errors.Is(err, ErrUnknownSample))
}
