package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/marketfront/internal/api"
)

type fakeConn struct {
	in   chan api.ChatMessage
	fail chan error
	done chan struct{}
	once sync.Once

	mu   sync.Mutex
	sent []string
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:   make(chan api.ChatMessage),
		fail: make(chan error),
		done: make(chan struct{}),
	}
}

func (c *fakeConn) Receive() (api.ChatMessage, error) {
	select {
	case m := <-c.in:
		return m, nil
	case err := <-c.fail:
		return api.ChatMessage{}, err
	case <-c.done:
		return api.ChatMessage{}, ErrConnLost
	}
}

func (c *fakeConn) Publish(content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, content)
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *fakeConn) published() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

type fakeTransport struct {
	mu sync.Mutex
	// dialErrs is consumed one entry per dial; a nil entry or an empty slice
	// means the dial succeeds.
	dialErrs []error
	conns    []*fakeConn
	dials    int
}

func (t *fakeTransport) Dial(_ context.Context, _ api.Auth, _ int64) (Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dials++
	if len(t.dialErrs) > 0 {
		err := t.dialErrs[0]
		t.dialErrs = t.dialErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	c := newFakeConn()
	t.conns = append(t.conns, c)
	return c, nil
}

func (t *fakeTransport) conn(i int) *fakeConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conns[i]
}

func (t *fakeTransport) dialCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dials
}

type historyFunc func(ctx context.Context) ([]api.ChatMessage, error)

func (f historyFunc) ChatMessages(ctx context.Context, _ api.Auth, _ int64) ([]api.ChatMessage, error) {
	return f(ctx)
}

func staticHistory(msgs ...api.ChatMessage) HistoryLoader {
	return historyFunc(func(context.Context) ([]api.ChatMessage, error) { return msgs, nil })
}

func at(minute int) api.Timestamp {
	return api.Timestamp{Time: time.Date(2024, 5, 1, 10, minute, 0, 0, time.UTC)}
}

func newTestSession(t *testing.T, h HistoryLoader, tr Transport) *Session {
	t.Helper()
	s := NewSession(Options{
		ChatID:            4,
		Auth:              api.Bearer("tok"),
		History:           h,
		Transport:         tr,
		ReconnectAttempts: 3,
		BackoffInitial:    time.Millisecond,
		BackoffMax:        5 * time.Millisecond,
	})
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func messageIDs(s *Session) []int64 {
	var ids []int64
	for _, m := range s.Messages() {
		ids = append(ids, m.MessageID)
	}
	return ids
}

func TestDuplicateMessageIDKeepsOneEntry(t *testing.T) {
	tr := &fakeTransport{}
	s := newTestSession(t, staticHistory(api.ChatMessage{MessageID: 1, SenderID: 1, Content: "hi", CreatedAt: at(0)}), tr)
	require.NoError(t, s.Open(context.Background()))

	c := tr.conn(0)
	c.in <- api.ChatMessage{MessageID: 2, SenderID: 2, Content: "hello"}
	c.in <- api.ChatMessage{MessageID: 2, SenderID: 2, Content: "hello"}
	c.in <- api.ChatMessage{MessageID: 1, SenderID: 1, Content: "hi"}
	c.in <- api.ChatMessage{MessageID: 3, SenderID: 1, Content: "still there?"}

	require.Eventually(t, func() bool { return len(s.Messages()) == 3 }, time.Second, time.Millisecond)
	assert.Equal(t, []int64{1, 2, 3}, messageIDs(s))
}

func TestHistoryIsShownOldestFirst(t *testing.T) {
	tr := &fakeTransport{}
	s := newTestSession(t, staticHistory(
		api.ChatMessage{MessageID: 9, SenderID: 1, CreatedAt: at(5)},
		api.ChatMessage{MessageID: 7, SenderID: 2, CreatedAt: at(1)},
	), tr)
	require.NoError(t, s.Open(context.Background()))
	assert.Equal(t, []int64{7, 9}, messageIDs(s))
	assert.Equal(t, Connected, s.State())
}

func TestSortHistoryOrdersAndDedups(t *testing.T) {
	in := []api.ChatMessage{
		{MessageID: 3, SenderID: 1, Content: "third", CreatedAt: at(3)},
		{MessageID: 1, SenderID: 2, Content: "first", CreatedAt: at(1)},
		{MessageID: 3, SenderID: 1, Content: "redelivered", CreatedAt: at(3)},
		{MessageID: 2, SenderID: 1, Content: "second", CreatedAt: at(2)},
	}
	out := SortHistory(in)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{out[0].Content, out[1].Content, out[2].Content})
	assert.Equal(t, int64(3), in[0].MessageID, "input is left as given")
}

func TestSendRequiresConnection(t *testing.T) {
	tr := &fakeTransport{}
	s := newTestSession(t, staticHistory(), tr)

	assert.ErrorIs(t, s.Send("hello"), ErrNotConnected)
	require.NoError(t, s.Open(context.Background()))
	assert.ErrorIs(t, s.Send("   "), ErrEmptyMessage)
	require.NoError(t, s.Send(" hello "))
	assert.Equal(t, []string{"hello"}, tr.conn(0).published())
}

func TestOpenPreconditions(t *testing.T) {
	s := NewSession(Options{ChatID: 1, History: staticHistory(), Transport: &fakeTransport{}})
	assert.ErrorIs(t, s.Open(context.Background()), api.ErrUnauthenticated)

	s = NewSession(Options{Auth: api.Bearer("t"), History: staticHistory(), Transport: &fakeTransport{}})
	assert.ErrorIs(t, s.Open(context.Background()), ErrNoRoom)
}

func TestHandshakeFailureLeavesSessionUsable(t *testing.T) {
	refused := errors.New("connection refused")
	tr := &fakeTransport{dialErrs: []error{refused}}
	s := newTestSession(t, staticHistory(api.ChatMessage{MessageID: 1, SenderID: 1}), tr)

	err := s.Open(context.Background())
	require.ErrorIs(t, err, refused)
	assert.Equal(t, Disconnected, s.State())
	assert.ErrorIs(t, s.Err(), refused)
	assert.Len(t, s.Messages(), 1)

	// a second attempt is allowed and history is not duplicated
	require.NoError(t, s.Open(context.Background()))
	assert.Equal(t, Connected, s.State())
	assert.Len(t, s.Messages(), 1)
}

func TestReconnectAfterConnectionLoss(t *testing.T) {
	tr := &fakeTransport{dialErrs: []error{nil, errors.New("still down")}}
	s := newTestSession(t, staticHistory(), tr)
	require.NoError(t, s.Open(context.Background()))

	tr.conn(0).fail <- errors.New("unexpected EOF")

	require.Eventually(t, func() bool {
		return tr.dialCount() == 3 && s.State() == Connected
	}, time.Second, time.Millisecond)
	assert.NoError(t, s.Err())

	require.NoError(t, s.Send("back"))
	assert.Equal(t, []string{"back"}, tr.conn(1).published())
}

func TestReconnectGivesUpAfterAttempts(t *testing.T) {
	down := errors.New("down")
	tr := &fakeTransport{dialErrs: []error{nil, down, down, down, down}}
	s := newTestSession(t, staticHistory(), tr)
	require.NoError(t, s.Open(context.Background()))

	tr.conn(0).fail <- errors.New("reset by peer")

	require.Eventually(t, func() bool { return s.State() == Disconnected }, time.Second, time.Millisecond)
	assert.ErrorIs(t, s.Err(), ErrConnLost)
	assert.Equal(t, 4, tr.dialCount())
	assert.ErrorIs(t, s.Send("hello?"), ErrNotConnected)
}

func TestReconnectStopsOnRejectedToken(t *testing.T) {
	tr := &fakeTransport{dialErrs: []error{nil, fmt.Errorf("websocket dial: 401: %w", api.ErrUnauthenticated), nil}}
	s := newTestSession(t, staticHistory(), tr)
	require.NoError(t, s.Open(context.Background()))

	tr.conn(0).fail <- errors.New("reset by peer")

	require.Eventually(t, func() bool { return s.State() == Disconnected }, time.Second, time.Millisecond)
	assert.ErrorIs(t, s.Err(), ErrConnLost)
	assert.Equal(t, 2, tr.dialCount())
}

func TestCloseStopsAllMutation(t *testing.T) {
	tr := &fakeTransport{}
	s := newTestSession(t, staticHistory(), tr)
	require.NoError(t, s.Open(context.Background()))

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.Equal(t, Disconnected, s.State())
	assert.ErrorIs(t, s.Open(context.Background()), ErrClosed)
	s.add(api.ChatMessage{MessageID: 5, SenderID: 1})
	assert.Empty(t, s.Messages())

	_, open := <-s.Changed()
	for open {
		_, open = <-s.Changed()
	}
}

func TestCloseCancelsHistoryFetch(t *testing.T) {
	started := make(chan struct{})
	h := historyFunc(func(ctx context.Context) ([]api.ChatMessage, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	tr := &fakeTransport{}
	s := newTestSession(t, h, tr)

	errc := make(chan error, 1)
	go func() { errc <- s.Open(context.Background()) }()
	<-started
	require.NoError(t, s.Close())

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("open did not return after close")
	}
	assert.Zero(t, tr.dialCount())
	assert.Nil(t, s.Err())
}

func TestTransitionTable(t *testing.T) {
	assert.True(t, CanTransition(Disconnected, Connecting))
	assert.True(t, CanTransition(Connected, Reconnecting))
	assert.True(t, CanTransition(Reconnecting, Connected))
	assert.False(t, CanTransition(Disconnected, Connected))
	assert.False(t, CanTransition(Connecting, Reconnecting))
	assert.Equal(t, "reconnecting", Reconnecting.String())
}
