// Package output renders run summaries and in-flight progress.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/pummelapp/pummel/internal/metrics"
)

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, s metrics.Summary) {
	fmt.Fprintln(w, "\n--- Load Test Results ---")
	fmt.Fprintf(w, "Run ID:            %s\n", s.RunID)
	fmt.Fprintf(w, "Total Work Units:  %d\n", s.Total)
	fmt.Fprintf(w, "Successful:        %d\n", s.Successes)
	fmt.Fprintf(w, "Failed:            %d\n", s.Failures)
	fmt.Fprintf(w, "Duration:          %s\n", s.Duration)
	if s.RPSAvailable {
		fmt.Fprintf(w, "Requests/sec:      %.2f\n", s.RequestsPerSec)
	} else {
		fmt.Fprintf(w, "Requests/sec:      N/A (duration too short)\n")
	}

	if s.Latency != nil {
		fmt.Fprintln(w, "\nLatency:")
		fmt.Fprintf(w, "  Min:             %s\n", s.Latency.Min)
		fmt.Fprintf(w, "  Max:             %s\n", s.Latency.Max)
		fmt.Fprintf(w, "  Mean:            %s\n", s.Latency.Mean)
		fmt.Fprintf(w, "  P50:             %s\n", s.Latency.P50)
		fmt.Fprintf(w, "  P90:             %s\n", s.Latency.P90)
		fmt.Fprintf(w, "  P95:             %s\n", s.Latency.P95)
		fmt.Fprintf(w, "  P99:             %s\n", s.Latency.P99)
	} else {
		fmt.Fprintln(w, "\nNo successful work units; latency statistics unavailable.")
	}

	if len(s.StatusCodes) > 0 {
		fmt.Fprintln(w, "\nStatus Codes:")
		for _, row := range s.StatusCodes {
			fmt.Fprintf(w, "  - %d: %d\n", row.Code, row.Count)
		}
	}

	if len(s.Errors) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		msgs := make([]string, 0, len(s.Errors))
		for msg := range s.Errors {
			msgs = append(msgs, msg)
		}
		sort.Strings(msgs)
		for _, msg := range msgs {
			fmt.Fprintf(w, "  - %s: %d\n", msg, s.Errors[msg])
		}
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, s metrics.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// PrintYAMLReport outputs a YAML-formatted report.
func PrintYAMLReport(w io.Writer, s metrics.Summary) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(s); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

// WriteReportFile renders a report into path under an advisory file lock, so
// concurrent runs sharing a report path do not interleave their writes.
func WriteReportFile(path string, render func(io.Writer) error) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock report file: %w", err)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	if err := render(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
