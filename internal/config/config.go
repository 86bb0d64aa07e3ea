package config

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Protocol selects which executor drives a work unit. It is resolved once at
// configuration time; the HTTP method never doubles as a protocol selector.
type Protocol string

const (
	ProtocolHTTP      Protocol = "http"
	ProtocolWebSocket Protocol = "websocket"
)

// Method is a validated HTTP method. Use ParseMethod to obtain one.
type Method string

const (
	MethodGet     Method = http.MethodGet
	MethodPost    Method = http.MethodPost
	MethodPut     Method = http.MethodPut
	MethodDelete  Method = http.MethodDelete
	MethodPatch   Method = http.MethodPatch
	MethodHead    Method = http.MethodHead
	MethodOptions Method = http.MethodOptions
)

// UnsupportedMethodError reports a method string that is not part of the
// supported set. It is resolved once up front and replayed as a per-unit
// failure result, never as a fatal configuration error.
type UnsupportedMethodError struct {
	Method string
}

func (e *UnsupportedMethodError) Error() string {
	return fmt.Sprintf("unsupported HTTP method %q", e.Method)
}

// ParseMethod resolves a raw method string into the Method enumeration.
func ParseMethod(raw string) (Method, error) {
	switch m := Method(strings.ToUpper(strings.TrimSpace(raw))); m {
	case MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch, MethodHead, MethodOptions:
		return m, nil
	default:
		return "", &UnsupportedMethodError{Method: raw}
	}
}

// Config carries everything a run needs. It is built once by the Loader,
// validated, and shared read-only by all workers afterwards.
type Config struct {
	TargetURL   string            `mapstructure:"target"`
	Protocol    Protocol          `mapstructure:"protocol"`
	Method      string            `mapstructure:"method"`
	Headers     map[string]string `mapstructure:"headers"`
	Body        string            `mapstructure:"body"`
	Concurrency int               `mapstructure:"concurrency"`
	Total       int               `mapstructure:"total"`
	Rate        int               `mapstructure:"rate"`
	Timeout     time.Duration     `mapstructure:"timeout"`

	WSMessage string        `mapstructure:"ws_message"`
	WSHold    time.Duration `mapstructure:"ws_hold"`

	AssertJSONPath string `mapstructure:"assert_jsonpath"`

	JSONOutput bool   `mapstructure:"json_output"`
	YAMLOutput bool   `mapstructure:"yaml_output"`
	OutputFile string `mapstructure:"output_file"`
	LogErrors  bool   `mapstructure:"log_errors"`

	Tracing TracingConfig `mapstructure:"tracing"`

	ConfigFile string `mapstructure:"-"`
}

// TracingConfig controls the optional OTLP trace export for per-unit spans.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
}

// Enabled reports whether an exporter endpoint was configured.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != ""
}

// ValidationError aggregates every configuration issue found in one pass.
type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

// Issues returns a copy of the individual validation messages.
func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// Validate checks the resolved configuration. A zero worker count or zero work
// units is fatal here, before any worker is spawned or network call is made.
func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.TargetURL) == "" {
		issues = append(issues, "target is required (use --help for usage information)")
	}
	if c.Concurrency < 1 {
		issues = append(issues, "concurrency must be >= 1")
	}
	if c.Total < 1 {
		issues = append(issues, "total work units must be >= 1")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	if c.WSHold < 0 {
		issues = append(issues, "ws-hold must be >= 0")
	}

	switch c.Protocol {
	case ProtocolHTTP, ProtocolWebSocket:
	default:
		issues = append(issues, fmt.Sprintf("protocol must be %q or %q, got %q", ProtocolHTTP, ProtocolWebSocket, c.Protocol))
	}

	if c.JSONOutput && c.YAMLOutput {
		issues = append(issues, "json-output and yaml-output are mutually exclusive")
	}

	if c.Tracing.Enabled() {
		if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
			issues = append(issues, fmt.Sprintf("tracing sample_rate must be between 0.0 and 1.0, got %g", c.Tracing.SampleRate))
		}
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}
