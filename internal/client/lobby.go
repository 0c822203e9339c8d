package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/palemoky/wolfpath/internal/model"
)

// Lobby calls the HTTP lobby API of a server.
type Lobby struct {
	BaseURL string
	HTTP    *http.Client
}

// NewLobby takes a host:port or a full http(s) URL.
func NewLobby(server string) *Lobby {
	base := server
	if u, err := url.Parse(server); err != nil || u.Scheme == "" || u.Host == "" {
		base = "http://" + server
	}
	return &Lobby{BaseURL: base, HTTP: &http.Client{Timeout: 10 * time.Second}}
}

// WebSocketURL returns the game endpoint for playerID.
func (l *Lobby) WebSocketURL(playerID string) string {
	u, err := url.Parse(l.BaseURL)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws/" + url.PathEscape(playerID)
	return u.String()
}

// APIError is a non-2xx lobby response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lobby: %d %s", e.Status, e.Message)
}

// CreateRoom opens a room with the server's default rules.
func (l *Lobby) CreateRoom(ctx context.Context, code string) (*model.Room, error) {
	var room model.Room
	if err := l.post(ctx, "/sessions", map[string]string{"code": code}, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// CreatePlayer registers nickname in the room with the given code.
func (l *Lobby) CreatePlayer(ctx context.Context, nickname, code string) (*model.Player, error) {
	var p model.Player
	body := map[string]string{"nickname": nickname, "game_code": code}
	if err := l.post(ctx, "/players", body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (l *Lobby) post(ctx context.Context, path string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode/100 != 2 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
