package metrics_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/pummelapp/pummel/internal/metrics"
)

func summarize(elapsed time.Duration, results ...metrics.Result) metrics.Summary {
	agg := metrics.NewAggregator()
	ch := make(chan metrics.Result, len(results))
	for _, r := range results {
		ch <- r
	}
	close(ch)
	agg.Consume(ch)
	return agg.Summarize(elapsed)
}

func TestSummaryPercentilesMonotonic(t *testing.T) {
	results := make([]metrics.Result, 0, 100)
	for i := 1; i <= 100; i++ {
		results = append(results, metrics.Result{
			Duration:   time.Duration(i) * time.Millisecond,
			OK:         true,
			StatusCode: 200,
		})
	}
	s := summarize(time.Second, results...)

	if s.Latency == nil {
		t.Fatal("expected latency stats")
	}
	l := s.Latency
	if l.P50 > l.P90 || l.P90 > l.P95 || l.P95 > l.P99 {
		t.Errorf("percentiles not monotonic: p50=%s p90=%s p95=%s p99=%s", l.P50, l.P90, l.P95, l.P99)
	}
	if l.Min > l.P50 || l.P99 > l.Max {
		t.Errorf("percentiles outside [min, max]: min=%s p50=%s p99=%s max=%s", l.Min, l.P50, l.P99, l.Max)
	}
}

func TestSummaryRPS(t *testing.T) {
	s := summarize(2*time.Second,
		metrics.Result{Duration: time.Millisecond, OK: true},
		metrics.Result{Duration: time.Millisecond, OK: true},
		metrics.Result{Duration: time.Millisecond, OK: true},
		metrics.Result{Duration: time.Millisecond, OK: true},
	)

	if !s.RPSAvailable {
		t.Fatal("expected RPS to be available")
	}
	if s.RequestsPerSec != 2 {
		t.Errorf("expected 2 req/s, got %f", s.RequestsPerSec)
	}
}

func TestSummaryRPSUnavailableWhenInstant(t *testing.T) {
	s := summarize(0, metrics.Result{Duration: time.Millisecond, OK: true})

	if s.RPSAvailable {
		t.Error("zero elapsed time must not produce a throughput figure")
	}
	if s.RequestsPerSec != 0 {
		t.Errorf("expected zero RPS, got %f", s.RequestsPerSec)
	}
}

func TestSummaryNoSuccesses(t *testing.T) {
	s := summarize(time.Second, metrics.Result{Duration: time.Millisecond})

	if s.Latency != nil {
		t.Error("latency stats must be absent without successes")
	}
	if s.Total != 1 || s.Failures != 1 {
		t.Errorf("unexpected counts: %+v", s)
	}
}

func TestSummaryStatusCodesSorted(t *testing.T) {
	s := summarize(time.Second,
		metrics.Result{Duration: time.Millisecond, OK: true, StatusCode: 503},
		metrics.Result{Duration: time.Millisecond, OK: true, StatusCode: 200},
		metrics.Result{Duration: time.Millisecond, OK: true, StatusCode: 301},
	)

	codes := make([]int, 0, len(s.StatusCodes))
	for _, sc := range s.StatusCodes {
		codes = append(codes, sc.Code)
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("status codes not in ascending order: %v", codes)
		}
	}
}

func TestSummaryRunIDUnique(t *testing.T) {
	a := summarize(time.Second, metrics.Result{Duration: time.Millisecond, OK: true})
	b := summarize(time.Second, metrics.Result{Duration: time.Millisecond, OK: true})

	if a.RunID == "" || a.RunID == b.RunID {
		t.Errorf("expected distinct non-empty run IDs, got %q and %q", a.RunID, b.RunID)
	}
}

func TestSummaryJSONShape(t *testing.T) {
	s := summarize(time.Second, metrics.Result{Duration: 10 * time.Millisecond, OK: true, StatusCode: 200})

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"run_id", "total", "successes", "failures", "duration_ms", "requests_per_sec", "latency", "status_codes"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing %q in JSON summary", key)
		}
	}
	if _, ok := decoded["errors"]; ok {
		t.Error("errors must be omitted when empty")
	}
}
