// Package server wires configuration, logging and metrics into schedulers
// and runs batches of independent inputs.
package server

import (
	"context"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-metrics"
	"golang.org/x/sync/errgroup"

	"waitdie/config"
	"waitdie/monitor"
	"waitdie/schedule"
	"waitdie/transaction"
)

type WaitDie struct {
	cfg       *config.Config
	logger    hclog.Logger
	sink      *metrics.InmemSink
	scheduler *transaction.Scheduler
}

// New builds a WaitDie from cfg, logging to out. A nil out logs to stderr.
func New(cfg *config.Config, out io.Writer) (*WaitDie, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	if out == nil {
		out = os.Stderr
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "waitdie",
		Level:      cfg.LogLevel(),
		Output:     out,
		JSONFormat: cfg.Log.JSON,
	})

	observers := []transaction.Observer{monitor.NewLockTableLogger(logger)}

	var sink *metrics.InmemSink
	if cfg.Metrics.Enabled {
		m, s, err := monitor.NewInmem()
		if err != nil {
			return nil, err
		}
		observers = append(observers, m)
		sink = s
	}

	scheduler := transaction.NewScheduler(transaction.Options{
		Order:     cfg.SchedulerOrder(),
		MaxRounds: cfg.MaxRounds,
		Logger:    logger,
		Observers: observers,
	})

	return &WaitDie{
		cfg:       cfg,
		logger:    logger,
		sink:      sink,
		scheduler: scheduler,
	}, nil
}

func (w *WaitDie) Logger() hclog.Logger {
	return w.logger
}

// Run schedules a single input.
func (w *WaitDie) Run(ctx context.Context, input []schedule.Operation) (*transaction.Result, error) {
	return w.scheduler.Run(ctx, input)
}

// RunAll schedules every input in parallel, at most cfg.Parallelism at a
// time. Results are returned in input order. The first failure cancels the
// remaining runs.
func (w *WaitDie) RunAll(ctx context.Context, inputs ...[]schedule.Operation) ([]*transaction.Result, error) {
	results := make([]*transaction.Result, len(inputs))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(w.cfg.Parallelism)
	for i, input := range inputs {
		i, input := i, input
		eg.Go(func() error {
			res, err := w.scheduler.Run(ctx, input)
			if err != nil {
				return errors.Wrapf(err, "input %d", i)
			}
			results[i] = res
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Counters returns the metric totals collected so far, or nil when metrics
// are disabled.
func (w *WaitDie) Counters() []monitor.Counter {
	if w.sink == nil {
		return nil
	}
	return monitor.Counters(w.sink)
}
