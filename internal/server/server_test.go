package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/wolfpath/internal/config"
	"github.com/palemoky/wolfpath/internal/game/board"
	"github.com/palemoky/wolfpath/internal/game/turn"
	"github.com/palemoky/wolfpath/internal/model"
	"github.com/palemoky/wolfpath/internal/protocol"
	"github.com/palemoky/wolfpath/internal/server/storage"
)

type testEnv struct {
	srv *Server
	ts  *httptest.Server
	mr  *miniredis.Miniredis
}

func newTestEnv(t *testing.T, dice ...int) *testEnv {
	t.Helper()
	return newTestEnvWith(t, nil, dice...)
}

// newTestEnvWith lets a test adjust the config before the server is built.
func newTestEnvWith(t *testing.T, tweak func(*config.Config), dice ...int) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := config.Default()
	cfg.Security.AllowedOrigins = []string{"*"}
	cfg.Security.RateLimit.MaxPerSecond = 1000
	cfg.Security.RateLimit.MaxPerMinute = 10000
	cfg.Security.ChatLimit.MaxPerSecond = 100
	cfg.Security.ChatLimit.MaxPerMinute = 1000
	if tweak != nil {
		tweak(cfg)
	}

	srv, err := New(cfg, storage.NewRedisStore(rdb), board.Default(), turn.NewFixedDice(dice...))
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.cancel()
		srv.rateLimiter.Stop()
		_ = rdb.Close()
	})
	return &testEnv{srv: srv, ts: ts, mr: mr}
}

func (e *testEnv) post(t *testing.T, path string, body any) (*http.Response, []byte) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(e.ts.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func (e *testEnv) createRoom(t *testing.T, code string) {
	t.Helper()
	resp, _ := e.post(t, "/sessions", map[string]any{"code": code})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func (e *testEnv) createPlayer(t *testing.T, nickname, code string) string {
	t.Helper()
	resp, body := e.post(t, "/players", map[string]any{"nickname": nickname, "game_code": code})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var p model.Player
	require.NoError(t, json.Unmarshal(body, &p))
	return p.ID
}

func (e *testEnv) wsURL(playerID string) string {
	return "ws" + strings.TrimPrefix(e.ts.URL, "http") + "/ws/" + playerID
}

func (e *testEnv) dial(t *testing.T, playerID string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(e.wsURL(playerID), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil skips messages until one of type want arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want protocol.MessageType) *protocol.Message {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", want)
		msg, err := protocol.Decode(data)
		require.NoError(t, err)
		if msg.Type == want {
			return msg
		}
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp, err := http.Get(env.ts.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestLobby_CreateRoom(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp, body := env.post(t, "/sessions", map[string]any{"code": "PACK1", "salary": "3000", "board_size": 24})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var room model.Room
	require.NoError(t, json.Unmarshal(body, &room))
	assert.Equal(t, "PACK1", room.Code)
	assert.Equal(t, "3000", room.Salary.String())
	assert.Equal(t, 24, room.BoardSize)
	assert.Equal(t, "1000000", room.WinningScore.String())

	tests := []struct {
		name string
		body any
	}{
		{"duplicate code", map[string]any{"code": "PACK1"}},
		{"short code", map[string]any{"code": "ab"}},
		{"long code", map[string]any{"code": strings.Repeat("x", 21)}},
		{"negative salary", map[string]any{"code": "PACK2", "salary": "-1"}},
		{"unknown field", map[string]any{"code": "PACK3", "owner": "me"}},
	}
	for _, tt := range tests {
		resp, _ := env.post(t, "/sessions", tt.body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, tt.name)
	}
}

func TestLobby_CreatePlayer(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.createRoom(t, "PACK1")

	resp, body := env.post(t, "/players", map[string]any{"nickname": "<b>Akela</b>", "game_code": "PACK1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var p model.Player
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, "Akela", p.Nickname)
	assert.Len(t, p.ID, 36)
	assert.True(t, p.Financials.Cash.IsZero())
	assert.Zero(t, p.Position)

	resp, _ = env.post(t, "/players", map[string]any{"nickname": "Akela", "game_code": "PACK1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.post(t, "/players", map[string]any{"nickname": "<i>ab</i>", "game_code": "PACK1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.post(t, "/players", map[string]any{"nickname": "Raksha", "game_code": "NOPE1"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebSocket_UnknownPlayerClosedWithPolicyViolation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	conn := env.dial(t, "does-not-exist")
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
	assert.Equal(t, 0, env.srv.registry.Total())
}

func TestWebSocket_PlaySession(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, 3)
	env.createRoom(t, "PACK1")
	akela := env.createPlayer(t, "Akela", "PACK1")
	raksha := env.createPlayer(t, "Raksha", "PACK1")

	a := env.dial(t, akela)
	readUntil(t, a, protocol.MsgLeaderboard)
	r := env.dial(t, raksha)
	lb := readUntil(t, r, protocol.MsgLeaderboard)
	entries, err := protocol.ParsePayload[[]protocol.LeaderboardEntry](lb)
	require.NoError(t, err)
	assert.Len(t, *entries, 2)

	// roll lands on the tile 3 expense; both players see it
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("ROLL")))
	for _, c := range []*websocket.Conn{a, r} {
		upd := readUntil(t, c, protocol.MsgUpdatePlayer)
		p, err := protocol.ParsePayload[protocol.PlayerUpdatePayload](upd)
		require.NoError(t, err)
		assert.Equal(t, akela, p.PlayerID)
		assert.Equal(t, 3, p.NewPosition)
		assert.Equal(t, "1200.00", p.NewDebt)
		require.Len(t, p.EventQueue, 1)
		assert.Equal(t, "EXPENSE", p.EventQueue[0].Kind)
		readUntil(t, c, protocol.MsgLeaderboard)
	}

	// a decision command without a pending investment only reaches the sender
	require.NoError(t, r.WriteMessage(websocket.TextMessage, []byte("BUY")))
	sys := readUntil(t, r, protocol.MsgSystem)
	ep, err := protocol.ParsePayload[protocol.ErrorPayload](sys)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeNoDecision, ep.Code)

	require.NoError(t, r.WriteMessage(websocket.TextMessage, []byte("good hunting")))
	chat := readUntil(t, a, protocol.MsgChat)
	assert.Equal(t, "💬 Raksha: good hunting", chat.Message)

	require.NoError(t, r.Close())
	left := readUntil(t, a, protocol.MsgSystem)
	assert.Contains(t, left.Message, "Raksha left")
}

func TestWebSocket_MaintenanceRefusesConnections(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.createRoom(t, "PACK1")
	id := env.createPlayer(t, "Akela", "PACK1")

	a := env.dial(t, id)
	readUntil(t, a, protocol.MsgLeaderboard)
	require.Eventually(t, func() bool { return env.srv.GetOnlineCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	env.srv.EnterMaintenanceMode()
	assert.True(t, env.srv.IsMaintenanceMode())
	notice := readUntil(t, a, protocol.MsgSystem)
	assert.Contains(t, notice.Message, "shutting down")

	_, resp, err := websocket.DefaultDialer.Dial(env.wsURL(id), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestLimitByIP_ConfiguredBlacklist(t *testing.T) {
	t.Parallel()
	env := newTestEnvWith(t, func(cfg *config.Config) {
		cfg.Security.Blacklist = []string{"127.0.0.0/8"}
	})

	resp, _ := env.post(t, "/sessions", map[string]any{"code": "PACK1"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, wsResp, err := websocket.DefaultDialer.Dial(env.wsURL("anyone"), nil)
	require.Error(t, err)
	require.NotNil(t, wsResp)
	assert.Equal(t, http.StatusForbidden, wsResp.StatusCode)

	// health is outside the limited group
	hresp, err := http.Get(env.ts.URL + "/health")
	require.NoError(t, err)
	_ = hresp.Body.Close()
	assert.Equal(t, http.StatusOK, hresp.StatusCode)
}

func TestLimitByIP_ConfiguredWhitelist(t *testing.T) {
	t.Parallel()

	// httptest clients connect from loopback
	admitted := newTestEnvWith(t, func(cfg *config.Config) {
		cfg.Security.Whitelist = []string{"127.0.0.1", "::1"}
	})
	resp, _ := admitted.post(t, "/sessions", map[string]any{"code": "PACK1"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	shut := newTestEnvWith(t, func(cfg *config.Config) {
		cfg.Security.Whitelist = []string{"10.0.0.0/8"}
	})
	resp, _ = shut.post(t, "/sessions", map[string]any{"code": "PACK1"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestNew_InvalidIPList(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Security.Blacklist = []string{"not-an-address"}

	srv, err := New(cfg, nil, nil, nil)
	assert.Nil(t, srv)
	assert.ErrorContains(t, err, "blacklist")
}

func (e *testEnv) delete(t *testing.T, path string) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodDelete, e.ts.URL+path, http.NoBody)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp.StatusCode
}

func TestLobby_ResetRoom(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.createRoom(t, "PACK1")
	env.createRoom(t, "PACK2")
	akela := env.createPlayer(t, "Akela", "PACK1")
	env.createPlayer(t, "Raksha", "PACK2")

	a := env.dial(t, akela)
	readUntil(t, a, protocol.MsgLeaderboard)

	assert.Equal(t, http.StatusNoContent, env.delete(t, "/sessions/PACK1"))

	notice := readUntil(t, a, protocol.MsgSystem)
	assert.Contains(t, notice.Message, "PACK1 was reset")
	require.NoError(t, a.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := a.ReadMessage()
	// the server closes with an empty close frame
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNoStatusReceived), "got %v", err)

	// the player is gone, so reconnecting is refused
	again := env.dial(t, akela)
	require.NoError(t, again.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err = again.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)

	// the code can be reused with the same nickname; other rooms are untouched
	env.createRoom(t, "PACK1")
	env.createPlayer(t, "Akela", "PACK1")
	resp, body := env.post(t, "/players", map[string]any{"nickname": "Raksha", "game_code": "PACK2"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))

	assert.Equal(t, http.StatusNotFound, env.delete(t, "/sessions/NOPE1"))
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Storage.Backend = "etcd"
	_, err := OpenStore(t.Context(), cfg)
	assert.ErrorContains(t, err, "unknown storage backend")
}

func TestRulesFromConfig(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Game.BoardSize = 40
	cfg.Game.Salary = "1000.50"

	r := RulesFromConfig(cfg)
	assert.Equal(t, 40, r.BoardSize)
	assert.Equal(t, "1000.5", r.Salary.String())
	assert.Equal(t, "10", r.AssetMultiplier.String())
}
