package chat

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/marketfront/internal/api"
)

func TestWSStreamJoinsMessages(t *testing.T) {
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		_ = ws.WriteMessage(websocket.TextMessage, []byte("CONNECTED\n"))
		_ = ws.WriteMessage(websocket.TextMessage, []byte("\n\x00"))
		_, msg, err := ws.ReadMessage()
		if err == nil {
			_ = ws.WriteMessage(websocket.TextMessage, msg)
		}
	}))
	defer srv.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	stream := &wsStream{ws: ws}
	defer stream.Close()

	buf := make([]byte, len("CONNECTED\n\n\x00"))
	_, err = io.ReadFull(stream, buf)
	require.NoError(t, err)
	assert.Equal(t, "CONNECTED\n\n\x00", string(buf))

	n, err := stream.Write([]byte("SEND"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	echo := make([]byte, 4)
	_, err = io.ReadFull(stream, echo)
	require.NoError(t, err)
	assert.Equal(t, "SEND", string(echo))
}

func TestDestinations(t *testing.T) {
	assert.Equal(t, "/sub/chat/room/12", RoomTopic(12))
	assert.Equal(t, "/pub/chat/message/12", PublishDestination(12))
}

func TestDialRejectedHandshakeIsUnauthenticated(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		tr := &StompTransport{URL: "ws" + strings.TrimPrefix(srv.URL, "http")}
		_, err := tr.Dial(context.Background(), api.Bearer("stale"), 1)
		srv.Close()
		assert.ErrorIs(t, err, api.ErrUnauthenticated, "status %d", status)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	tr := &StompTransport{URL: "ws" + strings.TrimPrefix(srv.URL, "http")}
	_, err := tr.Dial(context.Background(), api.Bearer("t"), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, api.ErrUnauthenticated)
}
