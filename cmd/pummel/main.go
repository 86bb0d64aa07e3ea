package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pummelapp/pummel/internal/config"
	"github.com/pummelapp/pummel/internal/httpclient"
	"github.com/pummelapp/pummel/internal/metrics"
	"github.com/pummelapp/pummel/internal/output"
	"github.com/pummelapp/pummel/internal/runner"
	"github.com/pummelapp/pummel/internal/tracing"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second
)

// stderrFailureLogger serializes per-unit failure lines from all workers.
type stderrFailureLogger struct {
	mu sync.Mutex
}

func (l *stderrFailureLogger) LogFailure(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err == nil {
		fmt.Fprintln(os.Stderr, "request failed")
		return
	}
	fmt.Fprintf(os.Stderr, "request failed: %v\n", err)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()

	tp, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	requester, err := buildRequester(cfg, tp)
	if err != nil {
		return err
	}
	if cfg.LogErrors {
		requester = runner.WithLogging(requester, &stderrFailureLogger{})
	}

	opts := runner.Options{
		Concurrency:   cfg.Concurrency,
		TotalUnits:    cfg.Total,
		RatePerSecond: cfg.Rate,
		Requester:     requester,
	}

	quiet := cfg.JSONOutput || cfg.YAMLOutput

	var progress *output.ProgressReporter
	if !quiet {
		printBanner(os.Stdout, cfg)
		updates := make(chan metrics.Progress, 1)
		opts.Progress = updates
		opts.ProgressInterval = progressInterval
		progress = output.NewProgressReporter(os.Stdout)
		go progress.Run(updates)
	}

	summary, err := runner.New(opts).Run(ctx)
	if progress != nil {
		progress.Wait()
		fmt.Fprintln(os.Stdout)
	}
	if err != nil {
		return err
	}

	if err := renderSummary(os.Stdout, cfg, summary); err != nil {
		return err
	}

	if cfg.OutputFile != "" {
		err := output.WriteReportFile(cfg.OutputFile, func(w io.Writer) error {
			return renderSummary(w, cfg, summary)
		})
		if err != nil {
			return err
		}
	}

	if summary.Failures > 0 {
		return fmt.Errorf("%d of %d work units failed", summary.Failures, summary.Total)
	}
	return nil
}

func buildRequester(cfg *config.Config, tp *tracing.Provider) (runner.Requester, error) {
	switch cfg.Protocol {
	case config.ProtocolWebSocket:
		return runner.NewWebSocketRequester(cfg, tp.Tracer()), nil
	default:
		client := httpclient.NewClient(cfg.Timeout)
		return runner.NewHTTPRequester(cfg, client, tp.Tracer())
	}
}

func printBanner(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "--- Load Test ---")
	fmt.Fprintf(w, "Target:      %s\n", cfg.TargetURL)
	if cfg.Protocol == config.ProtocolWebSocket {
		fmt.Fprintf(w, "Protocol:    websocket\n")
		if cfg.WSHold > 0 {
			fmt.Fprintf(w, "Hold:        %s\n", cfg.WSHold)
		}
	} else {
		fmt.Fprintf(w, "Protocol:    http (%s)\n", cfg.Method)
	}
	fmt.Fprintf(w, "Concurrency: %d\n", cfg.Concurrency)
	fmt.Fprintf(w, "Work Units:  %d\n", cfg.Total)
	if cfg.Rate > 0 {
		fmt.Fprintf(w, "Rate:        %d/s\n", cfg.Rate)
	}
}

func renderSummary(w io.Writer, cfg *config.Config, s metrics.Summary) error {
	switch {
	case cfg.JSONOutput:
		return output.PrintJSONReport(w, s)
	case cfg.YAMLOutput:
		return output.PrintYAMLReport(w, s)
	default:
		output.PrintReport(w, s)
		return nil
	}
}
