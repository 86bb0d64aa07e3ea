package output_test

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pummelapp/pummel/internal/metrics"
	"github.com/pummelapp/pummel/internal/output"
)

func sampleSummary() metrics.Summary {
	return metrics.Summary{
		RunID:          "01JX3ZK8E3TESTRUN0000000000",
		Total:          10,
		Successes:      8,
		Failures:       2,
		Duration:       2 * time.Second,
		DurationMs:     2000,
		RequestsPerSec: 5,
		RPSAvailable:   true,
		Latency: &metrics.Latency{
			Min: 2 * time.Millisecond, Max: 90 * time.Millisecond,
			Mean: 30 * time.Millisecond, P50: 25 * time.Millisecond,
			P90: 70 * time.Millisecond, P95: 80 * time.Millisecond,
			P99: 90 * time.Millisecond,
			MinMs: 2, MaxMs: 90, MeanMs: 30, P50Ms: 25, P90Ms: 70, P95Ms: 80, P99Ms: 90,
		},
		StatusCodes: []metrics.StatusCount{{Code: 200, Count: 8}, {Code: 503, Count: 2}},
		Errors:      map[string]int64{"HTTP status: 503 Service Unavailable": 2},
	}
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	output.PrintReport(&buf, sampleSummary())
	got := buf.String()

	for _, want := range []string{
		"Total Work Units:  10",
		"Successful:        8",
		"Failed:            2",
		"Requests/sec:      5.00",
		"P99:",
		"- 200: 8",
		"- 503: 2",
		"HTTP status: 503 Service Unavailable: 2",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}
}

func TestPrintReportNoSuccesses(t *testing.T) {
	s := metrics.Summary{Total: 3, Failures: 3, Duration: time.Second}

	var buf bytes.Buffer
	output.PrintReport(&buf, s)
	got := buf.String()

	if !strings.Contains(got, "latency statistics unavailable") {
		t.Errorf("expected the latency placeholder:\n%s", got)
	}
	if !strings.Contains(got, "N/A (duration too short)") {
		t.Errorf("expected the throughput placeholder:\n%s", got)
	}
	if strings.Contains(got, "Status Codes:") {
		t.Errorf("empty status distribution must be omitted:\n%s", got)
	}
}

func TestPrintJSONReportRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	if err := output.PrintJSONReport(&buf, sampleSummary()); err != nil {
		t.Fatal(err)
	}

	var decoded metrics.Summary
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Total != 10 || decoded.Latency == nil || decoded.Latency.P99Ms != 90 {
		t.Errorf("unexpected decoded summary: %+v", decoded)
	}
}

func TestPrintYAMLReport(t *testing.T) {
	var buf bytes.Buffer
	if err := output.PrintYAMLReport(&buf, sampleSummary()); err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["total"] != 10 {
		t.Errorf("unexpected YAML total: %v", decoded["total"])
	}
	if _, ok := decoded["latency"]; !ok {
		t.Errorf("expected latency block in YAML:\n%s", buf.String())
	}
}

func TestWriteReportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")

	err := output.WriteReportFile(path, func(w io.Writer) error {
		return output.PrintJSONReport(w, sampleSummary())
	})
	if err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded metrics.Summary
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Successes != 8 {
		t.Errorf("unexpected persisted summary: %+v", decoded)
	}
}

func TestWriteReportFileRenderFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")

	renderErr := io.ErrUnexpectedEOF
	err := output.WriteReportFile(path, func(io.Writer) error { return renderErr })
	if err != renderErr {
		t.Errorf("expected the render error back, got %v", err)
	}
}
