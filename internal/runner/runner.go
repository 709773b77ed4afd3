// Package runner executes a batch of named tasks sequentially or with bounded
// parallelism, either collecting every error or stopping at the first one.
package runner

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config controls batch execution.
type Config struct {
	// Parallelism is the maximum number of concurrent tasks. Values below 2 run sequentially.
	Parallelism int `mapstructure:"parallelism" yaml:"parallelism" validate:"gte=0"`
	// FailFast stops scheduling after the first error and cancels running tasks.
	FailFast bool `mapstructure:"fail_fast" yaml:"fail_fast"`
}

// Task is one unit of work identified by name.
type Task func(ctx context.Context, name string) error

// Runner runs tasks under a Config.
type Runner struct {
	config Config
	logger *zap.Logger
}

// New creates a runner
func New(config Config, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{config: config, logger: logger}
}

// Config returns the runner configuration.
func (r *Runner) Config() Config { return r.config }

// Run executes task once per name. In collect-all mode every name is attempted
// and the returned error combines all failures. In fail-fast mode the first
// error is returned and remaining names are skipped.
func (r *Runner) Run(ctx context.Context, names []string, task Task) error {
	if r.config.Parallelism < 2 {
		return r.runSequential(ctx, names, task)
	}
	return r.runParallel(ctx, names, task)
}

func (r *Runner) runSequential(ctx context.Context, names []string, task Task) error {
	var errs error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		if err := task(ctx, name); err != nil {
			if r.config.FailFast {
				return err
			}
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (r *Runner) runParallel(ctx context.Context, names []string, task Task) error {
	if r.config.FailFast {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.config.Parallelism)
		for _, name := range names {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				return task(gctx, name)
			})
		}
		return g.Wait()
	}

	var (
		mu   sync.Mutex
		errs error
	)
	g := new(errgroup.Group)
	g.SetLimit(r.config.Parallelism)
	for _, name := range names {
		g.Go(func() error {
			err := ctx.Err()
			if err == nil {
				err = task(ctx, name)
			}
			if err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	r.logger.Debug("parallel batch finished",
		zap.Int("tasks", len(names)),
		zap.Int("parallelism", r.config.Parallelism),
		zap.Int("errors", len(multierr.Errors(errs))))
	return errs
}
