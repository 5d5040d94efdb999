// Package chat runs one live chat room: REST history plus a STOMP
// subscription for new messages.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/sudo-init-do/marketfront/internal/api"
)

var (
	ErrNotConnected  = errors.New("chat: not connected")
	ErrEmptyMessage  = errors.New("chat: message is empty")
	ErrClosed        = errors.New("chat: session closed")
	ErrNoRoom        = errors.New("chat: no chat room selected")
	ErrConnLost      = errors.New("chat: connection lost")
	errBadTransition = errors.New("chat: invalid state transition")
)

const (
	DefaultReconnectAttempts = 5
	DefaultBackoffInitial    = 500 * time.Millisecond
	DefaultBackoffMax        = 10 * time.Second
)

// RoomTopic is where the server broadcasts a room's messages.
func RoomTopic(chatID int64) string { return fmt.Sprintf("/sub/chat/room/%d", chatID) }

// PublishDestination is where a message for a room is sent.
func PublishDestination(chatID int64) string { return fmt.Sprintf("/pub/chat/message/%d", chatID) }

// SortHistory returns msgs in display order: ascending createdAt, keeping
// the first copy of each messageId. msgs is not modified.
func SortHistory(msgs []api.ChatMessage) []api.ChatMessage {
	out := make([]api.ChatMessage, 0, len(msgs))
	seen := make(map[int64]struct{}, len(msgs))
	for _, m := range msgs {
		if _, dup := seen[m.MessageID]; dup {
			continue
		}
		seen[m.MessageID] = struct{}{}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt.Time)
	})
	return out
}

// Transport opens a subscription to one room.
type Transport interface {
	Dial(ctx context.Context, auth api.Auth, chatID int64) (Conn, error)
}

// Conn is a live room subscription. Receive blocks until the next message
// arrives; it fails once the connection is gone. A malformed frame is
// reported as *api.DecodeError and does not end the connection.
type Conn interface {
	Receive() (api.ChatMessage, error)
	Publish(content string) error
	Close() error
}

// HistoryLoader fetches the messages already in a room. *api.Client
// implements it.
type HistoryLoader interface {
	ChatMessages(ctx context.Context, auth api.Auth, chatID int64) ([]api.ChatMessage, error)
}

type Options struct {
	ChatID    int64
	Auth      api.Auth
	History   HistoryLoader
	Transport Transport

	// ReconnectAttempts caps dial attempts after a lost connection.
	ReconnectAttempts uint
	BackoffInitial    time.Duration
	BackoffMax        time.Duration

	Logger *slog.Logger
}

// Session is one open chat room. All methods are safe for concurrent use.
type Session struct {
	opts Options
	log  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	state    State
	err      error
	conn     Conn
	closed   bool
	messages []api.ChatMessage
	seen     map[int64]struct{}
	changed  chan struct{}
}

func NewSession(opts Options) *Session {
	if opts.ReconnectAttempts == 0 {
		opts.ReconnectAttempts = DefaultReconnectAttempts
	}
	if opts.BackoffInitial <= 0 {
		opts.BackoffInitial = DefaultBackoffInitial
	}
	if opts.BackoffMax <= 0 {
		opts.BackoffMax = DefaultBackoffMax
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		opts:    opts,
		log:     opts.Logger.With("chat_id", opts.ChatID),
		ctx:     ctx,
		cancel:  cancel,
		seen:    make(map[int64]struct{}),
		changed: make(chan struct{}, 1),
	}
}

// Open loads the room history, then connects and subscribes. A failed
// handshake leaves the session Disconnected with Err set.
func (s *Session) Open(ctx context.Context) error {
	if s.opts.ChatID <= 0 {
		return ErrNoRoom
	}
	if s.opts.Auth.IsZero() {
		return api.ErrUnauthenticated
	}
	if err := s.transition(Connecting, nil); err != nil {
		return err
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	unbind := context.AfterFunc(s.ctx, stop)
	defer unbind()

	history, err := s.opts.History.ChatMessages(ctx, s.opts.Auth, s.opts.ChatID)
	if err != nil {
		s.fail(fmt.Errorf("load history: %w", err))
		return err
	}
	for _, m := range SortHistory(history) {
		s.add(m)
	}

	conn, err := s.opts.Transport.Dial(ctx, s.opts.Auth, s.opts.ChatID)
	if err != nil {
		s.fail(fmt.Errorf("connect: %w", err))
		return err
	}
	if !s.attach(conn, true) {
		_ = conn.Close()
		return ErrClosed
	}
	s.log.Info("chat connected")
	go s.pump(conn)
	return nil
}

// Send publishes a message to the room. Delivery is not retried; the message
// shows up once the server broadcasts it back.
func (s *Session) Send(content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyMessage
	}
	s.mu.Lock()
	if s.state != Connected || s.conn == nil {
		s.mu.Unlock()
		return ErrNotConnected
	}
	conn := s.conn
	s.mu.Unlock()
	return conn.Publish(content)
}

// Close tears the session down. It is safe to call more than once; after it
// returns the session no longer changes.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.cancel()
	conn := s.conn
	s.conn = nil
	s.state = Disconnected
	s.mu.Unlock()

	var err error
	if conn != nil {
		err = conn.Close()
	}
	s.wg.Wait()
	close(s.changed)
	return err
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err is the error that last moved the session to Disconnected.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Messages returns a copy of the held messages in display order.
func (s *Session) Messages() []api.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Changed fires after messages or state change. It is closed by Close.
func (s *Session) Changed() <-chan struct{} {
	return s.changed
}

func (s *Session) pump(conn Conn) {
	defer s.wg.Done()
	for {
		msg, err := conn.Receive()
		if err == nil {
			s.add(msg)
			continue
		}
		var decErr *api.DecodeError
		if errors.As(err, &decErr) {
			s.log.Warn("dropping malformed chat frame", "error", err)
			continue
		}
		if s.ctx.Err() != nil {
			return
		}
		s.log.Warn("chat connection lost", "error", err)
		_ = conn.Close()
		if conn = s.reconnect(err); conn == nil {
			return
		}
	}
}

// reconnect redials with capped exponential backoff. It returns nil when the
// session was closed or the attempts ran out.
func (s *Session) reconnect(cause error) Conn {
	if err := s.transition(Reconnecting, nil); err != nil {
		return nil
	}
	s.mu.Lock()
	s.conn = nil
	s.mu.Unlock()

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.opts.BackoffInitial
	eb.MaxInterval = s.opts.BackoffMax

	attempt := 0
	conn, err := backoff.Retry(s.ctx, func() (Conn, error) {
		attempt++
		c, err := s.opts.Transport.Dial(s.ctx, s.opts.Auth, s.opts.ChatID)
		if errors.Is(err, api.ErrUnauthenticated) {
			return nil, backoff.Permanent(err)
		}
		return c, err
	},
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(s.opts.ReconnectAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.log.Info("chat reconnect scheduled", "attempt", attempt, "in", next, "error", err)
		}),
	)
	if err != nil {
		if s.ctx.Err() == nil {
			s.fail(fmt.Errorf("%w: %v (gave up after %d attempts: %v)", ErrConnLost, cause, attempt, err))
		}
		return nil
	}
	if !s.attach(conn, false) {
		_ = conn.Close()
		return nil
	}
	s.log.Info("chat reconnected", "attempts", attempt)
	return conn
}

// attach installs a live connection. With startPump it also accounts for the
// pump goroutine the caller is about to start.
func (s *Session) attach(conn Conn, startPump bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !CanTransition(s.state, Connected) {
		return false
	}
	if startPump {
		s.wg.Add(1)
	}
	s.state = Connected
	s.err = nil
	s.conn = conn
	s.notify()
	return true
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.state = Disconnected
	s.err = err
	s.notify()
}

func (s *Session) transition(to State, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if !CanTransition(s.state, to) {
		return fmt.Errorf("%w: %s -> %s", errBadTransition, s.state, to)
	}
	s.state = to
	s.err = err
	s.notify()
	return nil
}

// add appends a message unless one with the same id is already held.
func (s *Session) add(m api.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if _, dup := s.seen[m.MessageID]; dup {
		return
	}
	s.seen[m.MessageID] = struct{}{}
	s.messages = append(s.messages, m)
	s.notify()
}

// notify must be called with mu held.
func (s *Session) notify() {
	if s.closed {
		return
	}
	select {
	case s.changed <- struct{}{}:
	default:
	}
}
