// Package metrics aggregates per-unit results into latency and outcome
// statistics.
//
// The Aggregator is a single-owner actor: exactly one goroutine runs Consume,
// and all counters, the histogram, and the tallies are mutated only from that
// loop. Workers never touch aggregate state, so no lock is needed anywhere in
// this package.
package metrics

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Histogram value domain: integer milliseconds from 1ms to 10 minutes with
// 3 significant figures. Sub-millisecond completions are clamped up to 1ms
// rather than dropped; the lost resolution is a known approximation.
const (
	lowestTrackableMs  = 1
	highestTrackableMs = int64(10 * time.Minute / time.Millisecond)
	sigFigs            = 3
)

// Progress is a point-in-time snapshot published by the Aggregator for
// progress reporting while the run is still in flight.
type Progress struct {
	Total          int64
	Successes      int64
	Failures       int64
	Elapsed        time.Duration
	RequestsPerSec float64
}

// Aggregator owns all running statistics for one load run.
type Aggregator struct {
	hist        *hdrhistogram.Histogram
	statusCodes map[int]int64
	errors      map[string]int64
	successes   int64
	failures    int64
	start       time.Time

	progress chan<- Progress
	interval time.Duration
}

// NewAggregator creates an Aggregator with an empty histogram and tallies.
func NewAggregator() *Aggregator {
	return &Aggregator{
		hist:        hdrhistogram.New(lowestTrackableMs, highestTrackableMs, sigFigs),
		statusCodes: make(map[int]int64),
		errors:      make(map[string]int64),
		start:       time.Now(),
	}
}

// PublishProgress makes Consume emit periodic snapshots on ch. The channel is
// closed when the consume loop ends. Must be called before Consume.
func (a *Aggregator) PublishProgress(ch chan<- Progress, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	a.progress = ch
	a.interval = interval
}

// Consume receives results until the channel is closed. The channel must be
// closed only after every producer has finished sending; closing is the
// producers' completion signal, distinct from joining the worker goroutines.
func (a *Aggregator) Consume(results <-chan Result) {
	a.start = time.Now()

	if a.progress != nil {
		defer close(a.progress)
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()
		for {
			select {
			case r, ok := <-results:
				if !ok {
					return
				}
				a.record(r)
			case <-ticker.C:
				select {
				case a.progress <- a.snapshot():
				default:
					// Reporter is behind; skip this tick rather than block ingestion.
				}
			}
		}
	}

	for r := range results {
		a.record(r)
	}
}

func (a *Aggregator) record(r Result) {
	if r.OK {
		a.successes++
		a.recordLatency(r.Duration)
	} else {
		a.failures++
		a.errors[errorKey(r.Err)]++
	}
	if r.StatusCode > 0 {
		a.statusCodes[r.StatusCode]++
	}
}

func (a *Aggregator) recordLatency(d time.Duration) {
	ms := d.Milliseconds()
	if ms < lowestTrackableMs {
		ms = lowestTrackableMs
	}
	if ms > highestTrackableMs {
		ms = highestTrackableMs
	}
	// Cannot fail: the value is clamped into the trackable range.
	_ = a.hist.RecordValue(ms)
}

func (a *Aggregator) snapshot() Progress {
	elapsed := time.Since(a.start)
	total := a.successes + a.failures
	p := Progress{
		Total:     total,
		Successes: a.successes,
		Failures:  a.failures,
		Elapsed:   elapsed,
	}
	if elapsed > 0 {
		p.RequestsPerSec = float64(total) / elapsed.Seconds()
	}
	return p
}
