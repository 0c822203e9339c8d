package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/palemoky/wolfpath/internal/logger"
	"github.com/palemoky/wolfpath/internal/protocol"
	"github.com/palemoky/wolfpath/internal/server/storage"
)

// closer is implemented by connections that can be shut from the server side.
type closer interface {
	Close()
}

// ResetRoom deletes the room and all of its players, then notifies and closes
// every connection still attached to it. Connections are closed even when the
// room record was already gone, since their players no longer exist.
func (h *Handler) ResetRoom(ctx context.Context, code string) error {
	err := h.store.DeleteRoom(ctx, code)
	if err != nil && !errors.Is(err, storage.ErrRoomNotFound) {
		return fmt.Errorf("delete room: %w", err)
	}

	closed := h.closeRoom(code, protocol.NewSystemMessage(fmt.Sprintf("🧹 Room %s was reset", code)))
	logger.Info("🧹 room reset", "room", code, "closed", closed)
	return err
}

// closeRoom sends notice to the room, then unregisters and closes each member.
func (h *Handler) closeRoom(room string, notice *protocol.Message) int {
	if _, err := h.registry.BroadcastMessage(room, notice); err != nil {
		logger.Debug("reset notice not sent", "room", room, "err", err)
	}

	members := h.registry.Members(room)
	for _, c := range members {
		h.registry.Unregister(c, room)
		if cl, ok := c.(closer); ok {
			cl.Close()
		}
	}
	return len(members)
}
