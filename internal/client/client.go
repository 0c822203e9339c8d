// Package client is the websocket side of the terminal client.
package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/wolfpath/internal/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	handshakeTimeout = 10 * time.Second
	bufferSize       = 256
)

var (
	ErrClosed         = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Client holds one connection to /ws/{playerID}.
type Client struct {
	URL string

	conn    *websocket.Conn
	send    chan []byte
	receive chan *protocol.Message
	done    chan struct{}

	// OnClose runs once when the read loop ends.
	OnClose func(err error)

	mu     sync.RWMutex
	closed bool
	err    error
}

// New returns a client for a full websocket URL.
func New(url string) *Client {
	return &Client{
		URL:     url,
		send:    make(chan []byte, bufferSize),
		receive: make(chan *protocol.Message, bufferSize),
		done:    make(chan struct{}),
	}
}

// Connect dials the server and starts the pumps.
func (c *Client) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, c.URL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return err
	}
	c.conn = conn

	go c.readPump()
	go c.writePump()
	return nil
}

// Send queues a raw text frame: a command word or a chat line.
func (c *Client) Send(text string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- []byte(text):
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Receive blocks until a message arrives or the connection ends.
func (c *Client) Receive() (*protocol.Message, error) {
	select {
	case msg := <-c.receive:
		return msg, nil
	case <-c.done:
		// drain anything that arrived before the close
		select {
		case msg := <-c.receive:
			return msg, nil
		default:
		}
		return nil, c.Err()
	}
}

// Err reports why the connection ended, ErrClosed if it ended cleanly.
func (c *Client) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return c.err
	}
	return ErrClosed
}

// Close is safe to call more than once.
func (c *Client) Close() {
	c.closeWith(nil)
}

func (c *Client) closeWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.err = err
	close(c.done)
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.closed
}
