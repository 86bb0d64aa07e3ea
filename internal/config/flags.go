package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pummel",
		Short:         "Fixed-count HTTP/WebSocket load generator",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Target and request shape
	flags.StringP("url", "u", "", "Target URL (http(s):// or ws(s)://)")
	flags.StringP("method", "m", "GET", "HTTP method to use")
	flags.String("protocol", "", "Protocol mode: 'http' or 'websocket' (default inferred from URL scheme)")
	flags.StringArrayP("header", "H", nil, "Request header in \"Key:Value\" form (repeatable; later duplicates win)")
	flags.StringP("data", "d", "", "Inline request body payload")

	// Work distribution
	flags.IntP("concurrency", "c", 1, "Number of concurrent workers")
	flags.IntP("requests", "n", 1, "Total work units: HTTP requests or WebSocket sessions")
	flags.IntP("rate", "r", 0, "Work units per second across all workers (0 means unlimited)")
	flags.DurationP("timeout", "t", 30*time.Second, "Per-call timeout (also the WebSocket handshake timeout)")

	// WebSocket session shape
	flags.String("ws-message", "", "Single text frame to send after the WebSocket handshake")
	flags.Duration("ws-hold", 0, "How long each WebSocket session stays open before a graceful close")

	// Response checks
	flags.String("assert-jsonpath", "", "Fail 2xx responses unless 'path=value' holds in the JSON body")

	// Output
	flags.Bool("json-output", false, "Emit JSON formatted summary")
	flags.Bool("yaml-output", false, "Emit YAML formatted summary")
	flags.StringP("output", "o", "", "Also write the summary to the given file path")
	flags.Bool("log-errors", false, "Log each failed work unit to stderr")
	flags.String("config", "", "Path to configuration file (JSON, YAML, or TOML)")

	// Tracing
	flags.String("trace-endpoint", "", "OTLP/HTTP endpoint for per-unit trace export")
	flags.String("trace-service-name", "", "Service name reported on exported spans")
	flags.Float64("trace-sample-rate", 1.0, "Fraction of work units to sample for tracing")
	flags.Bool("trace-insecure", false, "Export traces without TLS")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}
