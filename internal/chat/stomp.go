package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-stomp/stomp/v3"
	"github.com/gorilla/websocket"

	"github.com/sudo-init-do/marketfront/internal/api"
)

// DefaultURL is the raw WebSocket endpoint of the backend's SockJS chat server.
const DefaultURL = "ws://localhost:8080/ws/chat/websocket"

const closeTimeout = 2 * time.Second

// StompTransport speaks STOMP 1.2 over a plain WebSocket.
type StompTransport struct {
	URL    string
	Dialer *websocket.Dialer
	// HeartBeat is offered for both directions. Zero disables heart-beating.
	HeartBeat time.Duration
}

func (t *StompTransport) Dial(ctx context.Context, auth api.Auth, chatID int64) (Conn, error) {
	if auth.IsZero() {
		return nil, api.ErrUnauthenticated
	}
	url := t.URL
	if url == "" {
		url = DefaultURL
	}
	dialer := t.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+auth.Token())
	ws, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("websocket dial %s: %d: %w", url, resp.StatusCode, api.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("websocket dial %s: %w", url, err)
	}

	stream := &wsStream{ws: ws}
	conn, err := stomp.Connect(stream,
		stomp.ConnOpt.Host("/"),
		stomp.ConnOpt.Header("Authorization", "Bearer "+auth.Token()),
		stomp.ConnOpt.HeartBeat(t.HeartBeat, t.HeartBeat),
	)
	if err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("stomp connect: %w", err)
	}
	sub, err := conn.Subscribe(RoomTopic(chatID), stomp.AckAuto)
	if err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("subscribe %s: %w", RoomTopic(chatID), err)
	}
	return &stompConn{chatID: chatID, conn: conn, sub: sub, ws: ws}, nil
}

type stompConn struct {
	chatID int64
	conn   *stomp.Conn
	sub    *stomp.Subscription
	ws     *websocket.Conn
	once   sync.Once
}

func (c *stompConn) Receive() (api.ChatMessage, error) {
	m, ok := <-c.sub.C
	if !ok {
		return api.ChatMessage{}, ErrConnLost
	}
	if m.Err != nil {
		return api.ChatMessage{}, m.Err
	}
	var msg api.ChatMessage
	if err := json.Unmarshal(m.Body, &msg); err != nil {
		return api.ChatMessage{}, &api.DecodeError{Type: "api.ChatMessage", Err: err}
	}
	if err := api.Validate(&msg); err != nil {
		return api.ChatMessage{}, &api.DecodeError{Type: "api.ChatMessage", Err: err}
	}
	return msg, nil
}

func (c *stompConn) Publish(content string) error {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return err
	}
	return c.conn.Send(PublishDestination(c.chatID), "application/json", body)
}

// Close disconnects politely but never waits on a dead peer for longer than
// closeTimeout.
func (c *stompConn) Close() error {
	var err error
	c.once.Do(func() {
		done := make(chan error, 1)
		go func() { done <- c.conn.Disconnect() }()
		select {
		case err = <-done:
		case <-time.After(closeTimeout):
		}
		if cerr := c.ws.Close(); err == nil {
			err = cerr
		}
	})
	return err
}

// wsStream adapts a WebSocket to the byte stream STOMP expects. Each write
// becomes one text message.
type wsStream struct {
	ws *websocket.Conn
	r  io.Reader
}

func (s *wsStream) Read(p []byte) (int, error) {
	for {
		if s.r == nil {
			_, r, err := s.ws.NextReader()
			if err != nil {
				return 0, err
			}
			s.r = r
		}
		n, err := s.r.Read(p)
		if err == io.EOF {
			s.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (s *wsStream) Write(p []byte) (int, error) {
	if err := s.ws.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *wsStream) Close() error {
	return s.ws.Close()
}
