package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/wolfpath/internal/server/hub"
)

func TestClient_SendAfterClose(t *testing.T) {
	t.Parallel()

	c := &Client{id: "c1", send: make(chan []byte, 1)}
	require.NoError(t, c.Send([]byte("a")))

	c.Close()
	c.Close()
	assert.ErrorIs(t, c.Send([]byte("b")), hub.ErrConnClosed)
}

func TestClient_SendBufferFullClosesConnection(t *testing.T) {
	t.Parallel()

	c := &Client{id: "c1", send: make(chan []byte, 1)}
	require.NoError(t, c.Send([]byte("a")))

	assert.ErrorIs(t, c.Send([]byte("b")), ErrSendBufferFull)
	assert.ErrorIs(t, c.Send([]byte("c")), hub.ErrConnClosed)
}

// echoServer upgrades and echoes every frame back through the client pumps.
func echoServer(t *testing.T, limiter *MessageRateLimiter, done chan<- error) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient(conn, "p1", "127.0.0.1", limiter)
		go c.WritePump()
		err = c.ReadPump(func(frame []byte) error {
			if string(frame) == "quit" {
				return errors.New("quit requested")
			}
			return c.Send(append([]byte("echo:"), frame...))
		})
		c.Close()
		done <- err
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestClient_PumpsPreserveOrder(t *testing.T) {
	t.Parallel()

	done := make(chan error, 1)
	ts := echoServer(t, nil, done)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	for _, m := range []string{"one", "two", "three"} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(m)))
	}
	for _, want := range []string{"echo:one", "echo:two", "echo:three"} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		mt, data, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, websocket.TextMessage, mt)
		assert.Equal(t, want, string(data))
	}

	// a handler error ends the read loop and is returned to the caller
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("quit")))
	select {
	case err := <-done:
		assert.ErrorContains(t, err, "quit requested")
	case <-time.After(2 * time.Second):
		t.Fatal("read loop did not stop")
	}
}

func TestClient_NormalCloseReturnsNil(t *testing.T) {
	t.Parallel()

	done := make(chan error, 1)
	ts := echoServer(t, nil, done)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
	require.NoError(t, conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("read loop did not stop")
	}
	_ = conn.Close()
}

func TestClient_FloodIsThrottled(t *testing.T) {
	t.Parallel()

	done := make(chan error, 1)
	ts := echoServer(t, NewMessageRateLimiter(2), done)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	for range 20 {
		if err := conn.WriteMessage(websocket.TextMessage, []byte("x")); err != nil {
			break
		}
	}

	select {
	case err := <-done:
		assert.ErrorContains(t, err, "message flood")
	case <-time.After(2 * time.Second):
		t.Fatal("flooding client was not dropped")
	}
}
