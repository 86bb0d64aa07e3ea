package runner_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"

	"github.com/pummelapp/pummel/internal/config"
	"github.com/pummelapp/pummel/internal/runner"
)

var upgrader = gws.Upgrader{}

// newEchoServer accepts WebSocket upgrades and counts received text frames.
func newEchoServer(t *testing.T, received *int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			msgType, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType == gws.TextMessage && received != nil {
				atomic.AddInt64(received, 1)
			}
		}
	}))
}

func wsConfig(target string) *config.Config {
	return &config.Config{
		TargetURL:   target,
		Protocol:    config.ProtocolWebSocket,
		Headers:     map[string]string{},
		Concurrency: 1,
		Total:       1,
		Timeout:     5 * time.Second,
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketRequesterConnectAndSend(t *testing.T) {
	var received int64
	srv := newEchoServer(t, &received)
	defer srv.Close()

	cfg := wsConfig(wsURL(srv))
	cfg.WSMessage = "hello"

	req := runner.NewWebSocketRequester(cfg, nil)
	res := req.Do(context.Background())

	if !res.OK {
		t.Fatalf("expected success, got %v", res.Err)
	}
	if res.StatusCode != 0 {
		t.Errorf("websocket results must not carry status codes, got %d", res.StatusCode)
	}
	// The frame is sent before the close handshake, so it must have arrived.
	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt64(&received) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if atomic.LoadInt64(&received) != 1 {
		t.Errorf("expected exactly one text frame, got %d", received)
	}
}

func TestWebSocketRequesterHoldDuration(t *testing.T) {
	srv := newEchoServer(t, nil)
	defer srv.Close()

	cfg := wsConfig(wsURL(srv))
	cfg.WSHold = 150 * time.Millisecond

	req := runner.NewWebSocketRequester(cfg, nil)
	res := req.Do(context.Background())

	if !res.OK {
		t.Fatalf("expected success, got %v", res.Err)
	}
	if res.Duration < cfg.WSHold {
		t.Errorf("held session duration %s shorter than hold %s", res.Duration, cfg.WSHold)
	}
}

func TestWebSocketRequesterMalformedURL(t *testing.T) {
	cfg := wsConfig("://not-a-url")

	req := runner.NewWebSocketRequester(cfg, nil)
	res := req.Do(context.Background())

	if res.OK {
		t.Fatal("expected failure for malformed URL")
	}
	if res.StatusCode != 0 {
		t.Errorf("expected no status code, got %d", res.StatusCode)
	}
	if res.Err == nil {
		t.Fatal("expected an error message")
	}
}

func TestWebSocketRequesterConnectFailure(t *testing.T) {
	// Plain HTTP endpoint that never upgrades.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	req := runner.NewWebSocketRequester(wsConfig(wsURL(srv)), nil)
	res := req.Do(context.Background())

	if res.OK {
		t.Fatal("expected connect failure")
	}
	if res.StatusCode != 0 {
		t.Errorf("expected no status code on the websocket path, got %d", res.StatusCode)
	}
}

func TestWebSocketRequesterSingleHeldSession(t *testing.T) {
	srv := newEchoServer(t, nil)
	defer srv.Close()

	cfg := wsConfig(wsURL(srv))
	cfg.WSHold = 100 * time.Millisecond

	r := runner.New(runner.Options{
		Concurrency: 1,
		TotalUnits:  1,
		Requester:   runner.NewWebSocketRequester(cfg, nil),
	})

	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Successes != 1 || summary.Failures != 0 {
		t.Fatalf("expected exactly one success, got %d/%d", summary.Successes, summary.Failures)
	}
	if summary.Latency == nil || summary.Latency.Min < 100*time.Millisecond {
		t.Errorf("expected recorded duration >= hold, got %+v", summary.Latency)
	}
}
