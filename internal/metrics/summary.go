package metrics

import (
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
)

// Latency holds histogram-derived latency statistics in whole milliseconds.
type Latency struct {
	Min  time.Duration `json:"-" yaml:"-"`
	Max  time.Duration `json:"-" yaml:"-"`
	Mean time.Duration `json:"-" yaml:"-"`
	P50  time.Duration `json:"-" yaml:"-"`
	P90  time.Duration `json:"-" yaml:"-"`
	P95  time.Duration `json:"-" yaml:"-"`
	P99  time.Duration `json:"-" yaml:"-"`

	// Serialization-friendly millisecond fields.
	MinMs  float64 `json:"min_ms" yaml:"min_ms"`
	MaxMs  float64 `json:"max_ms" yaml:"max_ms"`
	MeanMs float64 `json:"mean_ms" yaml:"mean_ms"`
	P50Ms  float64 `json:"p50_ms" yaml:"p50_ms"`
	P90Ms  float64 `json:"p90_ms" yaml:"p90_ms"`
	P95Ms  float64 `json:"p95_ms" yaml:"p95_ms"`
	P99Ms  float64 `json:"p99_ms" yaml:"p99_ms"`
}

// StatusCount is one row of the status-code distribution.
type StatusCount struct {
	Code  int   `json:"code" yaml:"code"`
	Count int64 `json:"count" yaml:"count"`
}

// Summary is the final, read-only outcome of a run. Latency is nil when no
// work unit succeeded; RPSAvailable is false when the elapsed wall time was
// too short to measure.
type Summary struct {
	RunID          string           `json:"run_id" yaml:"run_id"`
	Total          int64            `json:"total" yaml:"total"`
	Successes      int64            `json:"successes" yaml:"successes"`
	Failures       int64            `json:"failures" yaml:"failures"`
	Duration       time.Duration    `json:"-" yaml:"-"`
	DurationMs     float64          `json:"duration_ms" yaml:"duration_ms"`
	RequestsPerSec float64          `json:"requests_per_sec" yaml:"requests_per_sec"`
	RPSAvailable   bool             `json:"rps_available" yaml:"rps_available"`
	Latency        *Latency         `json:"latency,omitempty" yaml:"latency,omitempty"`
	StatusCodes    []StatusCount    `json:"status_codes,omitempty" yaml:"status_codes,omitempty"`
	Errors         map[string]int64 `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Summarize computes the derived metrics from the aggregator's final state.
// Call it only after Consume has returned and the workers have been joined.
func (a *Aggregator) Summarize(elapsed time.Duration) Summary {
	s := Summary{
		RunID:      ulid.Make().String(),
		Total:      a.successes + a.failures,
		Successes:  a.successes,
		Failures:   a.failures,
		Duration:   elapsed,
		DurationMs: float64(elapsed) / float64(time.Millisecond),
	}

	if elapsed > 0 {
		s.RequestsPerSec = float64(s.Total) / elapsed.Seconds()
		s.RPSAvailable = true
	}

	if a.successes > 0 {
		lat := &Latency{
			Min:  time.Duration(a.hist.Min()) * time.Millisecond,
			Max:  time.Duration(a.hist.Max()) * time.Millisecond,
			Mean: time.Duration(a.hist.Mean() * float64(time.Millisecond)),
			P50:  time.Duration(a.hist.ValueAtQuantile(50)) * time.Millisecond,
			P90:  time.Duration(a.hist.ValueAtQuantile(90)) * time.Millisecond,
			P95:  time.Duration(a.hist.ValueAtQuantile(95)) * time.Millisecond,
			P99:  time.Duration(a.hist.ValueAtQuantile(99)) * time.Millisecond,
		}
		lat.MinMs = float64(lat.Min) / float64(time.Millisecond)
		lat.MaxMs = float64(lat.Max) / float64(time.Millisecond)
		lat.MeanMs = float64(lat.Mean) / float64(time.Millisecond)
		lat.P50Ms = float64(lat.P50) / float64(time.Millisecond)
		lat.P90Ms = float64(lat.P90) / float64(time.Millisecond)
		lat.P95Ms = float64(lat.P95) / float64(time.Millisecond)
		lat.P99Ms = float64(lat.P99) / float64(time.Millisecond)
		s.Latency = lat
	}

	if len(a.statusCodes) > 0 {
		s.StatusCodes = make([]StatusCount, 0, len(a.statusCodes))
		for code, count := range a.statusCodes {
			s.StatusCodes = append(s.StatusCodes, StatusCount{Code: code, Count: count})
		}
		sort.Slice(s.StatusCodes, func(i, j int) bool {
			return s.StatusCodes[i].Code < s.StatusCodes[j].Code
		})
	}

	if len(a.errors) > 0 {
		s.Errors = make(map[string]int64, len(a.errors))
		for msg, count := range a.errors {
			s.Errors[msg] = count
		}
	}

	return s
}
