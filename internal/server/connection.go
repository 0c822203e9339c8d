package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/palemoky/wolfpath/internal/apperrors"
	"github.com/palemoky/wolfpath/internal/logger"
	"github.com/palemoky/wolfpath/internal/server/handler"
)

// handleWebSocket serves GET /ws/{playerID}. The upgrade happens before the
// player is looked up, so an unknown id is answered with a close frame.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if s.IsMaintenanceMode() {
		logger.Info("🔧 maintenance mode, connection refused", "ip", ip)
		http.Error(w, "Server is shutting down, please try again later", http.StatusServiceUnavailable)
		return
	}

	select {
	case s.semaphore <- struct{}{}:
		defer func() { <-s.semaphore }()
	default:
		logger.Warn("🚫 connection limit reached", "max", s.maxConnections, "ip", ip)
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "ip", ip, "err", err)
		return
	}

	client := NewClient(conn, chi.URLParam(r, "playerID"), ip, s.messageLimiter)
	s.serveClient(s.ctx, client)
}

// serveClient runs the whole life of one connection on the calling goroutine.
func (s *Server) serveClient(ctx context.Context, c *Client) {
	sess, err := s.handler.Attach(ctx, c, c.PlayerID)
	if err != nil {
		if errors.Is(err, handler.ErrUnknownPlayer) {
			logger.Warn("🚫 unknown player", "player", c.PlayerID, "ip", c.IP)
			closeWithCode(c.conn, websocket.ClosePolicyViolation, "unknown player")
			return
		}
		logger.Error("attach failed", "player", c.PlayerID, "err", err)
		closeWithCode(c.conn, websocket.CloseTryAgainLater, apperrors.ErrUnavailable.Message)
		return
	}

	go c.WritePump()
	s.registerClient(c)
	logger.Info("✅ connected", "player", sess.Nickname, "room", sess.Room, "ip", c.IP)

	var cause error
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
			cause = fmt.Errorf("panic: %v", r)
		}
		if cause != nil {
			s.handler.ReportError(sess, cause)
		}
		s.handler.Detach(sess, cause)
		s.unregisterClient(c)
		c.Close()
	}()

	cause = c.ReadPump(func(frame []byte) error {
		return s.handler.Handle(ctx, sess, frame)
	})
}

// closeWithCode is only used before WritePump starts, when nothing else
// writes to conn.
func closeWithCode(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = conn.Close()
}

func (s *Server) registerClient(c *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[c.ID()] = c
}

func (s *Server) unregisterClient(c *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, c.ID())
}

// GetOnlineCount returns the number of attached connections.
func (s *Server) GetOnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}
