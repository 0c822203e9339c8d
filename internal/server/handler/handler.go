// Package handler routes inbound frames of an attached connection to the turn
// processor and fans the results out through the room registry.
package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/palemoky/wolfpath/internal/apperrors"
	"github.com/palemoky/wolfpath/internal/game/turn"
	"github.com/palemoky/wolfpath/internal/logger"
	"github.com/palemoky/wolfpath/internal/protocol"
	"github.com/palemoky/wolfpath/internal/protocol/codec"
	"github.com/palemoky/wolfpath/internal/server/hub"
	"github.com/palemoky/wolfpath/internal/server/storage"
	"github.com/palemoky/wolfpath/internal/types"
)

// DefaultLeaderboardLimit bounds the LEADERBOARD payload.
const DefaultLeaderboardLimit = 30

// ErrUnknownPlayer is returned by Attach when the path id has no player record.
var ErrUnknownPlayer = errors.New("unknown player")

// Deps are the collaborators of a Handler.
type Deps struct {
	Store            storage.Store
	Registry         *hub.Registry
	Processor        *turn.Processor
	Defaults         turn.Rules
	ChatLimiter      types.ChatLimiter
	LeaderboardLimit int
}

// Handler is shared by all connections. It holds no per-connection state.
type Handler struct {
	store       storage.Store
	registry    *hub.Registry
	processor   *turn.Processor
	defaults    turn.Rules
	chatLimiter types.ChatLimiter
	topN        int
}

func NewHandler(deps Deps) *Handler {
	limit := deps.LeaderboardLimit
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	defaults := deps.Defaults
	if defaults.BoardSize <= 0 {
		defaults = turn.DefaultRules()
	}
	return &Handler{
		store:       deps.Store,
		registry:    deps.Registry,
		processor:   deps.Processor,
		defaults:    defaults,
		chatLimiter: deps.ChatLimiter,
		topN:        limit,
	}
}

// Session binds one connection to a player and that player's room.
type Session struct {
	Conn     hub.Conn
	PlayerID string
	Nickname string
	Room     string
	Rules    turn.Rules
}

// Handle processes one inbound frame. Game-rule faults are reported to the
// sender and return nil; any returned error means the connection should end.
func (h *Handler) Handle(ctx context.Context, s *Session, frame []byte) error {
	cmd := protocol.ParseCommand(frame)
	if cmd.Kind == protocol.CmdChat {
		return h.handleChat(ctx, s, cmd.Text)
	}
	return h.handleTurn(ctx, s, cmd.Kind)
}

// sendTo writes a packet to the session's own connection only.
func (h *Handler) sendTo(s *Session, msg *protocol.Message) error {
	data, err := codec.Marshal(msg)
	if err != nil {
		return err
	}
	return s.Conn.Send(data)
}

func (h *Handler) broadcast(s *Session, msg *protocol.Message) error {
	res, err := h.registry.BroadcastMessage(s.Room, msg)
	if err != nil {
		return fmt.Errorf("broadcast %s: %w", msg.Type, err)
	}
	if len(res.Failed) > 0 {
		logger.Debug("🧹 pruned dead connections", "room", s.Room, "count", len(res.Failed))
	}
	return nil
}

// ReportError sends an error-tagged SYSTEM message to the acting connection
// when it is still writable. Failures are ignored.
func (h *Handler) ReportError(s *Session, err error) {
	if s == nil || err == nil {
		return
	}
	_ = h.sendTo(s, apperrors.FromError(err).ToMessage())
}
