// Package websocket wraps gorilla/websocket for the one-shot sessions this
// tool drives: dial, optionally send a single text frame, close.
package websocket

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const closeWriteWait = 5 * time.Second

// Config shapes a Session.
type Config struct {
	URL              string
	Headers          http.Header
	HandshakeTimeout time.Duration
}

// Session is a single WebSocket connection owned by one worker. It is used
// strictly sequentially and is not safe for concurrent use.
type Session struct {
	url    string
	dialer *websocket.Dialer
	header http.Header
	conn   *websocket.Conn
}

// NewSession creates an unconnected session.
func NewSession(cfg Config) *Session {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 30 * time.Second
	}

	return &Session{
		url: cfg.URL,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
			Proxy:            http.ProxyFromEnvironment,
		},
		header: cfg.Headers,
	}
}

// Connect performs the opening handshake.
func (s *Session) Connect(ctx context.Context) error {
	if s.conn != nil {
		return fmt.Errorf("already connected")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	conn, resp, err := s.dialer.DialContext(ctx, s.url, s.header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket dial failed with status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	s.conn = conn
	return nil
}

// SendText writes a single text frame.
func (s *Session) SendText(msg string) error {
	if s.conn == nil {
		return fmt.Errorf("not connected")
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Close performs a graceful close: a normal-closure control frame followed by
// tearing down the connection. Safe to call on an unconnected session.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}

	err := s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(closeWriteWait),
	)

	closeErr := s.conn.Close()
	s.conn = nil

	if err != nil {
		return err
	}
	return closeErr
}
