package runner

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/pummelapp/pummel/internal/metrics"
)

// Requester executes exactly one work unit and reports its outcome. Every
// path through Do yields exactly one Result; per-unit errors are carried in
// the Result, never returned out of band.
type Requester interface {
	Do(ctx context.Context) metrics.Result
}

// Options configure the Runner.
type Options struct {
	Concurrency   int       // number of worker goroutines
	TotalUnits    int       // total work units to execute across all workers
	RatePerSecond int       // fixed pacing across workers (0 means unlimited)
	Requester     Requester // work unit executor (required)

	// Progress, when set, receives periodic snapshots from the aggregator.
	Progress         chan<- metrics.Progress
	ProgressInterval time.Duration

	// LimiterFactory allows injection for tests.
	LimiterFactory func(rps int) *rate.Limiter
}

func (o *Options) normalize() {
	if o.RatePerSecond < 0 {
		o.RatePerSecond = 0
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			// Burst equal to rps to smooth pacing under concurrency.
			return rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}

// FailureLogger receives each failed work unit's error.
type FailureLogger interface {
	LogFailure(err error)
}

// WithLogging wraps a Requester so every failure is reported to the logger.
func WithLogging(next Requester, logger FailureLogger) Requester {
	if logger == nil {
		return next
	}
	return &loggingRequester{next: next, logger: logger}
}

type loggingRequester struct {
	next   Requester
	logger FailureLogger
}

func (l *loggingRequester) Do(ctx context.Context) metrics.Result {
	res := l.next.Do(ctx)
	if !res.OK {
		l.logger.LogFailure(res.Err)
	}
	return res
}
