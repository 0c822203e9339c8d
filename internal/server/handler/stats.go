package handler

import (
	"context"
	"fmt"

	"github.com/palemoky/wolfpath/internal/protocol"
	"github.com/palemoky/wolfpath/internal/protocol/convert"
)

// broadcastLeaderboard sends the room's top players to every connection in it.
// is_me marks the player behind s.
func (h *Handler) broadcastLeaderboard(ctx context.Context, s *Session) error {
	players, err := h.store.TopPlayers(ctx, s.Room, h.topN)
	if err != nil {
		return fmt.Errorf("load leaderboard: %w", err)
	}
	msg, err := protocol.NewMessage(protocol.MsgLeaderboard, convert.LeaderboardEntries(players, s.PlayerID))
	if err != nil {
		return err
	}
	return h.broadcast(s, msg)
}
