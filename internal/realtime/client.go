package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const defaultConnectTimeout = 15 * time.Second

// Client dials realtime sessions over websocket.
type Client struct {
	baseURL        string
	connectTimeout time.Duration
}

// NewClient creates a Client. baseURL is the provider's HTTP API root; the
// websocket endpoint is derived from it.
func NewClient(baseURL string, connectTimeout time.Duration) *Client {
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	return &Client{baseURL: baseURL, connectTimeout: connectTimeout}
}

// Dial opens a session authorized by an ephemeral secret, pushes the session
// configuration, and starts the read loop.
func (c *Client) Dial(ctx context.Context, secret string, cfg SessionConfig) (Transport, error) {
	wsURL, err := c.websocketURL(cfg.Model)
	if err != nil {
		return nil, err
	}

	headers := make(http.Header)
	headers.Set("Authorization", "Bearer "+secret)
	headers.Set("OpenAI-Beta", "realtime=v1")

	dialCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.connectTimeout)
		defer cancel()
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("realtime dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("realtime dial failed: %w", err)
	}

	s := &session{
		conn:   conn,
		events: make(chan Event, 64),
	}

	if err := s.writeJSON(buildSessionUpdate(cfg)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send session config: %w", err)
	}

	go s.readLoop()
	return s, nil
}

// websocketURL converts the HTTP API root into the realtime websocket endpoint.
func (c *Client) websocketURL(model string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse realtime base URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported realtime scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/realtime"
	q := u.Query()
	q.Set("model", model)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// session is one live websocket-backed Transport.
type session struct {
	conn   *websocket.Conn
	events chan Event

	writeMu   sync.Mutex // gorilla allows one concurrent writer
	closeOnce sync.Once
	closed    atomic.Bool // set before tearing the conn down locally
}

func (s *session) Events() <-chan Event { return s.events }

func (s *session) SendText(_ context.Context, text string) error {
	for _, frame := range textTurnFrames(text) {
		if err := s.writeJSON(frame); err != nil {
			return fmt.Errorf("send text turn: %w", err)
		}
	}
	return nil
}

func (s *session) SendToolResult(_ context.Context, callID, output string) error {
	for _, frame := range toolResultFrames(callID, output) {
		if err := s.writeJSON(frame); err != nil {
			return fmt.Errorf("send tool result: %w", err)
		}
	}
	return nil
}

func (s *session) Interrupt(_ context.Context) error {
	if err := s.writeJSON(interruptFrame()); err != nil {
		return fmt.Errorf("send interrupt: %w", err)
	}
	return nil
}

// Close tears the connection down. Safe to call more than once and after the
// read loop has already exited.
func (s *session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.writeMu.Unlock()
		err = s.conn.Close()
	})
	return err
}

func (s *session) writeJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

// readLoop pumps wire frames into the event channel until the connection
// ends. The channel close is the session-over signal for consumers.
func (s *session) readLoop() {
	defer close(s.events)

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			// A read failure after a local Close is just our own teardown
			// echoing back. Everything else that is not a clean remote
			// goodbye (TCP resets, timeouts, abnormal closes) is a session
			// failure and must surface.
			if s.closed.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			s.emit(ErrorEvent{Message: err.Error()})
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		event, err := decodeFrame(data)
		if err != nil {
			slog.Warn("skipping malformed realtime frame", "err", err)
			continue
		}
		if event != nil {
			s.emit(event)
		}
	}
}

func (s *session) emit(event Event) {
	select {
	case s.events <- event:
	default:
		// Avoid deadlocking the read loop if the consumer stops draining.
	}
}
