package messaging

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"BakeryStore/pkg/logger"
	"BakeryStore/pkg/metrics"
)

// Runner starts named consumer workers against one handler chain.
type Runner struct {
	logger  *logger.Logger
	handler MessageHandler
	names   []string
	workers []Worker
}

func NewRunner(l *logger.Logger, handler MessageHandler) *Runner {
	return &Runner{logger: l, handler: handler}
}

// Add registers a worker under a name used in logs and the workers_running gauge.
func (r *Runner) Add(name string, w Worker) *Runner {
	r.names = append(r.names, name)
	r.workers = append(r.workers, w)
	return r
}

// Start blocks until ctx is cancelled or a worker fails. A panic in a worker is returned
// as an error naming it. Cancellation is a clean stop.
func (r *Runner) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for i, w := range r.workers {
		name := r.names[i]
		g.Go(func() (err error) {
			running := metrics.WorkersRunning.WithLabelValues(name)
			running.Inc()
			defer func() {
				if rec := recover(); rec != nil {
					r.logger.Error("Worker panic recovered: worker=%s panic=%v stack=%s", name, rec, string(debug.Stack()))
					err = fmt.Errorf("worker %s panicked: %v", name, rec)
				}
				running.Dec()
				if cerr := w.Close(); cerr != nil {
					r.logger.Error("Failed to close worker: worker=%s error=%v", name, cerr)
				}
			}()

			r.logger.Info("Worker started: worker=%s", name)
			err = w.Start(gctx, r.handler)
			if err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil {
				err = nil
			}
			if err != nil {
				return fmt.Errorf("worker %s: %w", name, err)
			}
			r.logger.Info("Worker stopped: worker=%s", name)
			return nil
		})
	}

	return g.Wait()
}
