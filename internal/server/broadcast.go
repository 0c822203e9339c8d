package server

import (
	"github.com/palemoky/wolfpath/internal/logger"
	"github.com/palemoky/wolfpath/internal/protocol"
	"github.com/palemoky/wolfpath/internal/protocol/codec"
)

// Broadcast sends msg to every attached connection in every room.
func (s *Server) Broadcast(msg *protocol.Message) {
	data, err := codec.Marshal(msg)
	if err != nil {
		logger.Error("encode broadcast failed", "type", msg.Type, "err", err)
		return
	}

	s.clientsMu.RLock()
	clients := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMu.RUnlock()

	for _, c := range clients {
		_ = c.Send(data)
	}
}
