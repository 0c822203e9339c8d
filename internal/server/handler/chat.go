package handler

import (
	"context"
	"fmt"

	"github.com/palemoky/wolfpath/internal/protocol"
)

// handleChat relays a chat line to the room. Chat never touches player state.
func (h *Handler) handleChat(_ context.Context, s *Session, text string) error {
	if h.chatLimiter != nil {
		if allowed, reason := h.chatLimiter.AllowChat(s.PlayerID); !allowed {
			return h.sendTo(s, protocol.NewErrorMessage(protocol.ErrCodeRateLimit, reason))
		}
	}

	clean := SanitizeChat(text)
	if clean == "" {
		return nil
	}
	return h.broadcast(s, protocol.NewChatMessage(fmt.Sprintf("💬 %s: %s", s.Nickname, clean)))
}
