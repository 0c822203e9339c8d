package server

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindow(t *testing.T) {
	t.Parallel()

	w := newWindow(time.Second)
	t0 := time.Unix(1_700_000_000, 0)

	assert.Equal(t, 0, w.count(t0))
	assert.Equal(t, 1, w.hit(t0))
	assert.Equal(t, 2, w.hit(t0.Add(900*time.Millisecond)))
	assert.Equal(t, 2, w.count(t0.Add(999*time.Millisecond)))

	// a full span after the first hit starts over
	assert.Equal(t, 1, w.hit(t0.Add(time.Second)))
}

func TestRateLimiter_SecondLimitBans(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(3, 100, 300*time.Millisecond)
	t.Cleanup(rl.Stop)

	for i := range 3 {
		assert.True(t, rl.Allow("198.51.100.1"), "request %d", i)
	}
	assert.False(t, rl.Allow("198.51.100.1"))
	assert.False(t, rl.Allow("198.51.100.1"), "still banned")
	assert.True(t, rl.Allow("198.51.100.2"), "other addresses are unaffected")

	// counters start over once the ban has run out
	time.Sleep(350 * time.Millisecond)
	for range 3 {
		assert.True(t, rl.Allow("198.51.100.1"))
	}
}

func TestRateLimiter_MinuteLimit(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1000, 4, time.Minute)
	t.Cleanup(rl.Stop)

	for range 4 {
		assert.True(t, rl.Allow("203.0.113.9"))
	}
	assert.False(t, rl.Allow("203.0.113.9"))
}

func TestRateLimiter_ConcurrentCallersNeverExceedLimit(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(20, 1000, time.Minute)
	t.Cleanup(rl.Stop)

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for range 60 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow("192.0.2.1") {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	// the burst all lands within one second unless the machine stalls
	assert.LessOrEqual(t, allowed.Load(), int32(20))
	assert.Positive(t, allowed.Load())
}

func TestRateLimiter_StopTwice(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, 1, time.Second)
	assert.NotPanics(t, func() {
		rl.Stop()
		rl.Stop()
	})
}

func TestMessageRateLimiter(t *testing.T) {
	t.Parallel()

	ml := NewMessageRateLimiter(4)

	type verdict struct{ allowed, near bool }
	var got []verdict
	for range 6 {
		a, n := ml.AllowMessage("conn-1")
		got = append(got, verdict{a, n})
	}
	assert.Equal(t, []verdict{
		{true, false},
		{true, false},
		{true, true},
		{true, true},
		{false, true},
		{false, true},
	}, got)
	assert.Equal(t, 2, ml.GetWarningCount("conn-1"))
	assert.Equal(t, 0, ml.GetWarningCount("conn-2"))

	ml.RemoveClient("conn-1")
	assert.Equal(t, 0, ml.GetWarningCount("conn-1"))
	allowed, near := ml.AllowMessage("conn-1")
	assert.True(t, allowed)
	assert.False(t, near)
}

func TestChatRateLimiter_MuteAndRecover(t *testing.T) {
	t.Parallel()

	cl := NewChatRateLimiter(2, 50, 400*time.Millisecond)

	for range 2 {
		ok, reason := cl.AllowChat("akela")
		assert.True(t, ok)
		assert.Empty(t, reason)
	}

	ok, reason := cl.AllowChat("akela")
	assert.False(t, ok)
	assert.Equal(t, "Slow down! Chat muted for 400ms", reason)

	ok, reason = cl.AllowChat("akela")
	assert.False(t, ok)
	assert.Contains(t, reason, "cooling down")

	ok, _ = cl.AllowChat("raksha")
	assert.True(t, ok, "mute is per player")

	time.Sleep(450 * time.Millisecond)
	ok, reason = cl.AllowChat("akela")
	assert.True(t, ok)
	assert.Empty(t, reason)
}

func TestChatRateLimiter_MinuteCapDoesNotMute(t *testing.T) {
	t.Parallel()

	cl := NewChatRateLimiter(100, 3, time.Hour)
	for range 3 {
		ok, _ := cl.AllowChat("bagheera")
		assert.True(t, ok)
	}

	for range 2 {
		ok, reason := cl.AllowChat("bagheera")
		assert.False(t, ok)
		assert.Equal(t, "Too many messages this minute, take a break", reason)
	}
}

func TestChatRateLimiter_RemoveClientForgetsMute(t *testing.T) {
	t.Parallel()

	cl := NewChatRateLimiter(1, 10, time.Hour)
	ok, _ := cl.AllowChat("baloo")
	assert.True(t, ok)
	ok, _ = cl.AllowChat("baloo")
	assert.False(t, ok)

	cl.RemoveClient("baloo")
	ok, reason := cl.AllowChat("baloo")
	assert.True(t, ok)
	assert.Empty(t, reason)
}
