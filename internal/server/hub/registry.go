// Package hub tracks which live connections belong to which room and fans
// packets out to them.
package hub

import (
	"errors"
	"sync"

	"github.com/palemoky/wolfpath/internal/logger"
	"github.com/palemoky/wolfpath/internal/protocol"
	"github.com/palemoky/wolfpath/internal/protocol/codec"
)

// ErrConnClosed is returned by Conn.Send once the connection is gone.
var ErrConnClosed = errors.New("connection closed")

// Conn is a registered connection. Identity is the interface value itself.
type Conn interface {
	ID() string
	Send(data []byte) error
}

// BroadcastResult reports one fan-out pass.
type BroadcastResult struct {
	Delivered int
	// Failed connections were unregistered after the pass.
	Failed []Conn
}

// Registry maps room codes to their live connections.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]map[Conn]struct{}
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]map[Conn]struct{})}
}

// Register adds conn to room. Registering the same conn twice is a no-op.
func (r *Registry) Register(conn Conn, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[Conn]struct{})
		r.rooms[room] = members
	}
	if _, dup := members[conn]; dup {
		logger.Debug("🔁 connection already registered", "room", room, "conn", conn.ID())
		return
	}
	members[conn] = struct{}{}
	logger.Info("🔌 connection registered", "room", room, "conn", conn.ID(), "members", len(members))
}

// Unregister removes conn from room and drops the room once it is empty.
func (r *Registry) Unregister(conn Conn, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unregisterLocked(conn, room)
}

func (r *Registry) unregisterLocked(conn Conn, room string) {
	members, ok := r.rooms[room]
	if !ok {
		return
	}
	if _, ok := members[conn]; !ok {
		return
	}
	delete(members, conn)
	logger.Info("🔌 connection unregistered", "room", room, "conn", conn.ID(), "members", len(members))
	if len(members) == 0 {
		delete(r.rooms, room)
		logger.Info("🏚️ room emptied", "room", room)
	}
}

// Broadcast sends data to every connection in room. Membership is copied under
// the lock and sends happen without it. A failed send does not stop the pass;
// failed connections are removed once every send has been attempted.
func (r *Registry) Broadcast(room string, data []byte) BroadcastResult {
	targets := r.snapshot(room)

	var res BroadcastResult
	for _, c := range targets {
		if err := c.Send(data); err != nil {
			logger.Warn("📭 send failed", "room", room, "conn", c.ID(), "err", err)
			res.Failed = append(res.Failed, c)
			continue
		}
		res.Delivered++
	}

	if len(res.Failed) > 0 {
		r.mu.Lock()
		for _, c := range res.Failed {
			r.unregisterLocked(c, room)
		}
		r.mu.Unlock()
	}
	return res
}

// BroadcastMessage encodes msg once and broadcasts it.
func (r *Registry) BroadcastMessage(room string, msg *protocol.Message) (BroadcastResult, error) {
	data, err := codec.Marshal(msg)
	if err != nil {
		return BroadcastResult{}, err
	}
	return r.Broadcast(room, data), nil
}

func (r *Registry) snapshot(room string) []Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.rooms[room]
	out := make([]Conn, 0, len(members))
	for c := range members {
		out = append(out, c)
	}
	return out
}

// Members returns a copy of the room's connections.
func (r *Registry) Members(room string) []Conn {
	return r.snapshot(room)
}

// Contains reports whether conn is registered under room.
func (r *Registry) Contains(conn Conn, room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rooms[room][conn]
	return ok
}

// Count is the number of connections in room.
func (r *Registry) Count(room string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms[room])
}

// Rooms is the number of rooms with at least one connection.
func (r *Registry) Rooms() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// Total is the number of registered connections across all rooms.
func (r *Registry) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, members := range r.rooms {
		n += len(members)
	}
	return n
}
