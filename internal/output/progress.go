package output

import (
	"fmt"
	"io"

	"github.com/pummelapp/pummel/internal/metrics"
)

// ProgressReporter renders aggregator snapshots as a single updating line.
// The aggregator owns the snapshot channel and closes it when the run ends.
type ProgressReporter struct {
	writer   io.Writer
	finished chan struct{}
}

// NewProgressReporter creates a reporter writing to w.
func NewProgressReporter(w io.Writer) *ProgressReporter {
	if w == nil {
		w = io.Discard
	}
	return &ProgressReporter{
		writer:   w,
		finished: make(chan struct{}),
	}
}

// Run consumes snapshots until the channel closes. Call it in its own
// goroutine and Wait for it after the run.
func (p *ProgressReporter) Run(updates <-chan metrics.Progress) {
	defer close(p.finished)
	for u := range updates {
		fmt.Fprintf(p.writer, "\rWork Units: %d | Successes: %d | Failures: %d | RPS: %.1f",
			u.Total, u.Successes, u.Failures, u.RequestsPerSec)
	}
}

// Wait blocks until Run has finished rendering.
func (p *ProgressReporter) Wait() {
	<-p.finished
}
