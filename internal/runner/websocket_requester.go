package runner

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/pummelapp/pummel/internal/config"
	"github.com/pummelapp/pummel/internal/metrics"
	"github.com/pummelapp/pummel/internal/tracing"
	ws "github.com/pummelapp/pummel/internal/websocket"
)

// WebSocketRequester runs one WebSocket session per work unit: handshake,
// at most one outbound text frame, an optional fixed hold, then a graceful
// close. Results never carry HTTP status codes on this path.
type WebSocketRequester struct {
	target           string
	headers          http.Header
	message          string
	hold             time.Duration
	handshakeTimeout time.Duration
	tracer           trace.Tracer
}

// NewWebSocketRequester builds the session template shared by all workers.
// The global per-call timeout doubles as the handshake timeout.
func NewWebSocketRequester(cfg *config.Config, tracer trace.Tracer) *WebSocketRequester {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("pummel")
	}

	headers := make(http.Header, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers.Set(k, v)
	}

	return &WebSocketRequester{
		target:           cfg.TargetURL,
		headers:          headers,
		message:          cfg.WSMessage,
		hold:             cfg.WSHold,
		handshakeTimeout: cfg.Timeout,
		tracer:           tracer,
	}
}

// Do drives one session. A held session sleeps for the full hold duration
// (not cancellable mid-sleep) and still counts as a single success.
func (w *WebSocketRequester) Do(ctx context.Context) metrics.Result {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	if _, err := url.Parse(w.target); err != nil {
		return metrics.Result{Duration: time.Since(start), Err: fmt.Errorf("parse target URL: %w", err)}
	}

	ctx, span := tracing.StartUnitSpan(ctx, w.tracer, "websocket")

	sess := ws.NewSession(ws.Config{
		URL:              w.target,
		Headers:          w.headers,
		HandshakeTimeout: w.handshakeTimeout,
	})

	if err := sess.Connect(ctx); err != nil {
		tracing.EndSpan(span, err)
		return metrics.Result{Duration: time.Since(start), Err: err}
	}

	if w.message != "" {
		if err := sess.SendText(w.message); err != nil {
			latency := time.Since(start)
			_ = sess.Close()
			tracing.EndSpan(span, err)
			return metrics.Result{Duration: latency, Err: err}
		}
	}

	if w.hold > 0 {
		time.Sleep(w.hold)
	}

	_ = sess.Close()
	tracing.EndSpan(span, nil)
	return metrics.Result{Duration: time.Since(start), OK: true}
}
