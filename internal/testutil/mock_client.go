//go:build !production

package testutil

import (
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/wolfpath/internal/protocol"
	"github.com/palemoky/wolfpath/internal/server/hub"
)

// MockConn is a testify mock of hub.Conn.
type MockConn struct {
	mock.Mock
}

func (m *MockConn) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConn) Send(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

// RecordingConn keeps every frame it is sent. Closing it makes Send fail.
type RecordingConn struct {
	ConnID string

	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func NewRecordingConn(id string) *RecordingConn {
	return &RecordingConn{ConnID: id}
}

func (c *RecordingConn) ID() string { return c.ConnID }

func (c *RecordingConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return hub.ErrConnClosed
	}
	c.frames = append(c.frames, append([]byte(nil), data...))
	return nil
}

func (c *RecordingConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// Messages decodes every recorded frame, skipping any that are not envelopes.
func (c *RecordingConn) Messages() []*protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*protocol.Message, 0, len(c.frames))
	for _, f := range c.frames {
		if msg, err := protocol.Decode(f); err == nil {
			out = append(out, msg)
		}
	}
	return out
}

// Types lists the envelope types received, in order.
func (c *RecordingConn) Types() []protocol.MessageType {
	msgs := c.Messages()
	out := make([]protocol.MessageType, len(msgs))
	for i, m := range msgs {
		out[i] = m.Type
	}
	return out
}

// Last returns the most recent message of type t, or nil.
func (c *RecordingConn) Last(t protocol.MessageType) *protocol.Message {
	msgs := c.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == t {
			return msgs[i]
		}
	}
	return nil
}

// Reset drops recorded frames.
func (c *RecordingConn) Reset() {
	c.mu.Lock()
	c.frames = nil
	c.mu.Unlock()
}
