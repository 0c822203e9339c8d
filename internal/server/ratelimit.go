package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/palemoky/wolfpath/internal/logger"
)

const (
	idleForget      = 10 * time.Minute
	cleanupInterval = 5 * time.Minute
)

// window is a fixed-window counter. A fresh window rolls over on its first hit.
type window struct {
	span  time.Duration
	start time.Time
	n     int
}

func newWindow(span time.Duration) window { return window{span: span} }

func (w *window) roll(now time.Time) {
	if now.Sub(w.start) >= w.span {
		w.start = now
		w.n = 0
	}
}

// hit records one event and returns the count in the current window.
func (w *window) hit(now time.Time) int {
	w.roll(now)
	w.n++
	return w.n
}

// count returns the events seen in the current window without recording one.
func (w *window) count(now time.Time) int {
	w.roll(now)
	return w.n
}

// RateLimiter guards the lobby API and websocket upgrades per client IP.
// Crossing the per-second or per-minute limit bans the IP for a while; the
// counters start over once the ban ends.
type RateLimiter struct {
	perSecond int
	perMinute int
	ban       time.Duration

	mu  sync.Mutex
	ips map[string]*ipUsage

	stop     chan struct{}
	stopOnce sync.Once
}

type ipUsage struct {
	second      window
	minute      window
	bannedUntil time.Time
	seen        time.Time
}

func newIPUsage() *ipUsage {
	return &ipUsage{second: newWindow(time.Second), minute: newWindow(time.Minute)}
}

// NewRateLimiter starts a limiter and its cleanup loop; call Stop to end it.
func NewRateLimiter(perSecond, perMinute int, ban time.Duration) *RateLimiter {
	rl := &RateLimiter{
		perSecond: perSecond,
		perMinute: perMinute,
		ban:       ban,
		ips:       make(map[string]*ipUsage),
		stop:      make(chan struct{}),
	}
	go rl.forgetIdle(cleanupInterval)
	return rl
}

func (rl *RateLimiter) Allow(ip string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	u, ok := rl.ips[ip]
	if !ok {
		u = newIPUsage()
		rl.ips[ip] = u
	}
	u.seen = now
	if now.Before(u.bannedUntil) {
		return false
	}

	inSecond, inMinute := u.second.hit(now), u.minute.hit(now)
	if inSecond <= rl.perSecond && inMinute <= rl.perMinute {
		return true
	}

	fresh := newIPUsage()
	fresh.bannedUntil = now.Add(rl.ban)
	fresh.seen = now
	rl.ips[ip] = fresh
	logger.Warn("⛔ IP banned", "ip", ip, "for", rl.ban, "per_sec", inSecond, "per_min", inMinute)
	return false
}

// Stop ends the cleanup loop. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) forgetIdle(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for ip, u := range rl.ips {
				if now.Sub(u.seen) > idleForget && now.After(u.bannedUntil) {
					delete(rl.ips, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// MessageRateLimiter caps inbound frames per connection. Frames past the
// limit are refused and counted as warnings; ReadPump drops connections that
// collect too many.
type MessageRateLimiter struct {
	limit int
	// frames above soft within a second are allowed but flagged
	soft int

	mu    sync.Mutex
	conns map[string]*frameUsage
}

type frameUsage struct {
	second   window
	warnings int
}

func NewMessageRateLimiter(perSecond int) *MessageRateLimiter {
	return &MessageRateLimiter{
		limit: perSecond,
		soft:  perSecond / 2,
		conns: make(map[string]*frameUsage),
	}
}

// AllowMessage records one frame from connID. near is true once the sender
// has passed half the limit within the current second.
func (ml *MessageRateLimiter) AllowMessage(connID string) (allowed, near bool) {
	now := time.Now()

	ml.mu.Lock()
	defer ml.mu.Unlock()

	u, ok := ml.conns[connID]
	if !ok {
		u = &frameUsage{second: newWindow(time.Second)}
		ml.conns[connID] = u
	}

	n := u.second.hit(now)
	switch {
	case n > ml.limit:
		u.warnings++
		return false, true
	case n > ml.soft:
		return true, true
	default:
		return true, false
	}
}

// GetWarningCount is the number of refused frames since the connection began.
func (ml *MessageRateLimiter) GetWarningCount(connID string) int {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	if u, ok := ml.conns[connID]; ok {
		return u.warnings
	}
	return 0
}

func (ml *MessageRateLimiter) RemoveClient(connID string) {
	ml.mu.Lock()
	delete(ml.conns, connID)
	ml.mu.Unlock()
}

// ChatRateLimiter throttles chat per player. Going over the per-second limit
// mutes the player for the cooldown; the per-minute limit only refuses.
type ChatRateLimiter struct {
	perSecond int
	perMinute int
	cooldown  time.Duration

	mu      sync.Mutex
	players map[string]*chatUsage
}

type chatUsage struct {
	second     window
	minute     window
	mutedUntil time.Time
}

func NewChatRateLimiter(perSecond, perMinute int, cooldown time.Duration) *ChatRateLimiter {
	return &ChatRateLimiter{
		perSecond: perSecond,
		perMinute: perMinute,
		cooldown:  cooldown,
		players:   make(map[string]*chatUsage),
	}
}

// AllowChat reports whether playerID may post now, with a reason to show the
// player when not.
func (cl *ChatRateLimiter) AllowChat(playerID string) (bool, string) {
	now := time.Now()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	u, ok := cl.players[playerID]
	if !ok {
		u = &chatUsage{second: newWindow(time.Second), minute: newWindow(time.Minute)}
		cl.players[playerID] = u
	}

	if now.Before(u.mutedUntil) {
		left := u.mutedUntil.Sub(now).Round(time.Second)
		return false, fmt.Sprintf("Chat is cooling down, try again in %s", left)
	}
	if u.minute.count(now) >= cl.perMinute {
		return false, "Too many messages this minute, take a break"
	}
	if u.second.hit(now) > cl.perSecond {
		u.mutedUntil = now.Add(cl.cooldown)
		u.second = newWindow(time.Second)
		return false, fmt.Sprintf("Slow down! Chat muted for %s", cl.cooldown)
	}
	u.minute.hit(now)
	return true, ""
}

func (cl *ChatRateLimiter) RemoveClient(playerID string) {
	cl.mu.Lock()
	delete(cl.players, playerID)
	cl.mu.Unlock()
}
