package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/palemoky/wolfpath/internal/game/turn"
	"github.com/palemoky/wolfpath/internal/logger"
	"github.com/palemoky/wolfpath/internal/model"
	"github.com/palemoky/wolfpath/internal/protocol"
	"github.com/palemoky/wolfpath/internal/server/hub"
	"github.com/palemoky/wolfpath/internal/server/storage"
)

// Attach resolves playerID, registers conn under the player's room and sends
// the room an initial leaderboard. It returns ErrUnknownPlayer, and registers
// nothing, when the player does not exist.
func (h *Handler) Attach(ctx context.Context, conn hub.Conn, playerID string) (*Session, error) {
	player, err := h.store.GetPlayer(ctx, playerID)
	if err != nil {
		if errors.Is(err, storage.ErrPlayerNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
		}
		return nil, fmt.Errorf("load player: %w", err)
	}

	// A room missing from storage plays with default rules.
	var room *model.Room
	room, err = h.store.GetRoom(ctx, player.RoomCode)
	if err != nil && !errors.Is(err, storage.ErrRoomNotFound) {
		return nil, fmt.Errorf("load room: %w", err)
	}
	if room == nil {
		logger.Warn("🏠 room missing, using default rules", "room", player.RoomCode, "player", player.ID)
	}

	s := &Session{
		Conn:     conn,
		PlayerID: player.ID,
		Nickname: player.Nickname,
		Room:     player.RoomCode,
		Rules:    turn.ForRoom(room, h.defaults),
	}

	h.registry.Register(conn, s.Room)
	logger.Info("👤 player joined", "player", s.Nickname, "id", s.PlayerID, "room", s.Room)

	if err := h.broadcastLeaderboard(ctx, s); err != nil {
		logger.Warn("📊 initial leaderboard failed", "room", s.Room, "err", err)
	}
	return s, nil
}

// Detach unregisters the session and tells the rest of the room, best effort.
func (h *Handler) Detach(s *Session, cause error) {
	if s == nil {
		return
	}
	h.registry.Unregister(s.Conn, s.Room)
	if h.chatLimiter != nil {
		h.chatLimiter.RemoveClient(s.PlayerID)
	}

	if cause != nil {
		logger.Warn("👋 player disconnected", "player", s.Nickname, "room", s.Room, "err", cause)
	} else {
		logger.Info("👋 player disconnected", "player", s.Nickname, "room", s.Room)
	}

	notice := protocol.NewSystemMessage(fmt.Sprintf("🚪 %s left the room", s.Nickname))
	if _, err := h.registry.BroadcastMessage(s.Room, notice); err != nil {
		logger.Debug("leave notice not sent", "room", s.Room, "err", err)
	}
}
