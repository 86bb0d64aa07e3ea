package runner

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/pummelapp/pummel/internal/check"
	"github.com/pummelapp/pummel/internal/config"
	"github.com/pummelapp/pummel/internal/httpclient"
	"github.com/pummelapp/pummel/internal/metrics"
	"github.com/pummelapp/pummel/internal/tracing"
)

// maxBodyReadSize caps how much of a response body is buffered for
// assertions; the remainder is still drained before the timer stops.
const maxBodyReadSize = 1024 * 1024

// HTTPStatusError reports a response outside the 2xx class.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP status: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// HTTPRequester executes one HTTP request per work unit against the shared
// pooled client.
type HTTPRequester struct {
	client    *http.Client
	builder   *httpclient.RequestBuilder
	methodErr error
	assert    *check.Assertion
	tracer    trace.Tracer
}

// NewHTTPRequester resolves the configured method once. An unrecognized
// method is not fatal: every unit of the run then fails immediately without
// any network call.
func NewHTTPRequester(cfg *config.Config, client *http.Client, tracer trace.Tracer) (*HTTPRequester, error) {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("pummel")
	}
	r := &HTTPRequester{client: client, tracer: tracer}

	method, err := config.ParseMethod(cfg.Method)
	if err != nil {
		r.methodErr = err
		return r, nil
	}

	builder, err := httpclient.NewRequestBuilder(cfg, method)
	if err != nil {
		return nil, err
	}
	r.builder = builder

	assert, err := check.Parse(cfg.AssertJSONPath)
	if err != nil {
		return nil, err
	}
	r.assert = assert

	return r, nil
}

// Do performs one request. The timer stops only after the response body is
// fully drained so the pooled connection is cleanly completed before reuse.
func (r *HTTPRequester) Do(ctx context.Context) metrics.Result {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	if r.methodErr != nil {
		return metrics.Result{Duration: time.Since(start), Err: r.methodErr}
	}

	ctx, span := tracing.StartUnitSpan(ctx, r.tracer, "http")

	req, err := r.builder.Build(ctx)
	if err != nil {
		tracing.EndSpan(span, err)
		return metrics.Result{Duration: time.Since(start), Err: err}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		// Transport-level failure: no status code was ever observed.
		tracing.EndSpan(span, err)
		return metrics.Result{Duration: time.Since(start), Err: err}
	}

	body, bodyErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyReadSize))
	if bodyErr != nil {
		body = nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	latency := time.Since(start)

	res := metrics.Result{Duration: latency, StatusCode: resp.StatusCode}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		res.Err = &HTTPStatusError{StatusCode: resp.StatusCode}
	} else if r.assert != nil {
		if err := r.assert.Evaluate(body); err != nil {
			res.Err = err
		}
	}
	res.OK = res.Err == nil

	tracing.EndSpan(span, res.Err, attribute.Int("http.response.status_code", resp.StatusCode))
	return res
}
