// Package runner partitions a fixed number of work units across concurrent
// workers, executes them through a Requester, and funnels every outcome over
// one bounded channel into the metrics aggregator.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pummelapp/pummel/internal/metrics"
)

// Configuration errors reported before any worker is spawned.
var (
	ErrNoRequester = errors.New("requester is required")
	ErrNoWorkers   = errors.New("concurrency must be >= 1")
	ErrNoWorkUnits = errors.New("total work units must be >= 1")
)

// ErrWorkerTaskFailure accounts for a work unit whose execution terminated
// abnormally. It carries no further classification.
var ErrWorkerTaskFailure = errors.New("worker task failure")

// Runner coordinates one fixed-count load run.
type Runner struct {
	opt Options
}

// New creates a Runner for the given options.
func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt}
}

// Run executes all work units and returns the final summary. Workers execute
// their shares strictly sequentially; results stream into a single consumer.
// Per-unit failures never abort the run.
func (r *Runner) Run(ctx context.Context) (metrics.Summary, error) {
	if r.opt.Requester == nil {
		return metrics.Summary{}, ErrNoRequester
	}
	if r.opt.Concurrency < 1 {
		return metrics.Summary{}, ErrNoWorkers
	}
	if r.opt.TotalUnits < 1 {
		return metrics.Summary{}, ErrNoWorkUnits
	}
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()

	// Bounded buffer: backpressure only, never work loss. A producer blocks
	// when the aggregator is momentarily slower.
	results := make(chan metrics.Result, r.opt.Concurrency*2)

	agg := metrics.NewAggregator()
	if r.opt.Progress != nil {
		agg.PublishProgress(r.opt.Progress, r.opt.ProgressInterval)
	}
	aggDone := make(chan struct{})
	go func() {
		defer close(aggDone)
		agg.Consume(results)
	}()

	limiter := r.opt.LimiterFactory(r.opt.RatePerSecond)

	var wg sync.WaitGroup
	for _, a := range SplitWork(r.opt.TotalUnits, r.opt.Concurrency) {
		wg.Add(1)
		go func(a Assignment) {
			defer wg.Done()
			for i := 0; i < a.Units; i++ {
				if err := limiter.Wait(ctx); err != nil {
					results <- metrics.Result{Err: fmt.Errorf("pacing wait: %w", err)}
					continue
				}
				results <- r.executeUnit(ctx)
			}
		}(a)
	}

	// The channel closes only once every producer has finished sending;
	// joining the workers is this same wait, and the aggregator drains any
	// buffered results afterwards.
	go func() {
		wg.Wait()
		close(results)
	}()
	<-aggDone

	return agg.Summarize(time.Since(start)), nil
}

// executeUnit runs one work unit. An abnormal termination inside the
// requester still yields exactly one accounted-for Result, so successes plus
// failures always equal the requested total and nothing is double-counted at
// join time.
func (r *Runner) executeUnit(ctx context.Context) (res metrics.Result) {
	started := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			res = metrics.Result{
				Duration: time.Since(started),
				Err:      ErrWorkerTaskFailure,
			}
		}
	}()
	return r.opt.Requester.Do(ctx)
}
