package server

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/palemoky/wolfpath/internal/logger"
	"github.com/palemoky/wolfpath/internal/protocol"
	"github.com/palemoky/wolfpath/internal/protocol/codec"
	"github.com/palemoky/wolfpath/internal/server/hub"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 256

	// connections that keep flooding after this many warnings are dropped
	maxFloodWarnings = 5
)

// ErrSendBufferFull is returned by Send when the peer is not draining frames.
// The connection is closed when it happens.
var ErrSendBufferFull = errors.New("send buffer full")

// FrameFunc handles one inbound text frame. A non-nil error ends the read loop.
type FrameFunc func(frame []byte) error

// Client is one websocket connection. ReadPump is the only reader and
// WritePump the only writer of the underlying socket.
type Client struct {
	id       string
	PlayerID string
	IP       string

	conn    *websocket.Conn
	send    chan []byte
	limiter *MessageRateLimiter

	mu     sync.RWMutex
	closed bool
}

// NewClient wraps an upgraded socket. limiter may be nil.
func NewClient(conn *websocket.Conn, playerID, ip string, limiter *MessageRateLimiter) *Client {
	return &Client{
		id:       uuid.New().String(),
		PlayerID: playerID,
		IP:       ip,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		limiter:  limiter,
	}
}

func (c *Client) ID() string { return c.id }

// Send queues a frame without blocking.
func (c *Client) Send(data []byte) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return hub.ErrConnClosed
	}
	select {
	case c.send <- data:
		c.mu.RUnlock()
		return nil
	default:
		c.mu.RUnlock()
	}

	logger.Warn("📪 send buffer full, closing", "conn", c.id, "player", c.PlayerID)
	c.Close()
	return ErrSendBufferFull
}

// SendMessage encodes and queues msg.
func (c *Client) SendMessage(msg *protocol.Message) error {
	data, err := codec.Marshal(msg)
	if err != nil {
		return err
	}
	return c.Send(data)
}

// Close stops WritePump, which then closes the socket. Safe to call repeatedly.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump reads frames in order and hands each one to fn before reading the
// next. It returns the error that ended the loop, nil on a normal close.
func (c *Client) ReadPump(fn FrameFunc) error {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				return err
			}
			return nil
		}

		if c.limiter != nil {
			allowed, warning := c.limiter.AllowMessage(c.id)
			if !allowed {
				logger.Warn("⚠️ client flooding", "player", c.PlayerID, "ip", c.IP)
				_ = c.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeRateLimit, ""))
				if c.limiter.GetWarningCount(c.id) > maxFloodWarnings {
					return errors.New("message flood")
				}
				continue
			}
			if warning {
				logger.Debug("client near message limit", "player", c.PlayerID)
			}
		}

		if err := fn(frame); err != nil {
			return err
		}
	}
}

// WritePump drains the send channel and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		ticker.Stop()
		_ = c.conn.Close()
		if c.limiter != nil {
			c.limiter.RemoveClient(c.id)
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
