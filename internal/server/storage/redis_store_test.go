package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/wolfpath/internal/model"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client), mr
}

func testRoom(code string) *model.Room {
	return &model.Room{
		Code:         code,
		Salary:       decimal.RequireFromString("2500.00"),
		WinningScore: decimal.RequireFromString("1000000.00"),
		BoardSize:    30,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
}

func withNetWorth(p *model.Player, nw string) *model.Player {
	p.Financials.Cash = decimal.RequireFromString(nw)
	p.Financials.Recalculate(decimal.NewFromInt(10))
	return p
}

func TestRedisStore_Rooms(t *testing.T) {
	t.Parallel()

	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	room := testRoom("WOLF1")
	require.NoError(t, store.CreateRoom(ctx, room))
	assert.ErrorIs(t, store.CreateRoom(ctx, testRoom("WOLF1")), ErrRoomExists)

	got, err := store.GetRoom(ctx, "WOLF1")
	require.NoError(t, err)
	assert.Equal(t, room.Code, got.Code)
	assert.True(t, room.Salary.Equal(got.Salary))
	assert.True(t, room.WinningScore.Equal(got.WinningScore))
	assert.Equal(t, 30, got.BoardSize)

	_, err = store.GetRoom(ctx, "NOPE")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRedisStore_Players(t *testing.T) {
	t.Parallel()

	store, mr := newTestRedisStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateRoom(ctx, testRoom("WOLF1")))

	p := model.NewPlayer("p1", "Lobo", "WOLF1")
	require.NoError(t, store.CreatePlayer(ctx, p))

	dup := model.NewPlayer("p2", "Lobo", "WOLF1")
	assert.ErrorIs(t, store.CreatePlayer(ctx, dup), ErrNicknameTaken)

	orphan := model.NewPlayer("p3", "Zorro", "NOPE")
	assert.ErrorIs(t, store.CreatePlayer(ctx, orphan), ErrRoomNotFound)

	_, err := store.GetPlayer(ctx, "p2")
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	// full-state upsert keeps exact decimals
	p.Position = 12
	p.LapsCompleted = 2
	p.AwaitingDecision = true
	p.Financials.Cash = decimal.RequireFromString("1234.56")
	p.Financials.ToxicDebt = decimal.RequireFromString("0.01")
	p.Financials.PassiveIncome = decimal.RequireFromString("350")
	p.Financials.Recalculate(decimal.NewFromInt(10))
	require.NoError(t, store.SavePlayer(ctx, p))

	got, err := store.GetPlayer(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 12, got.Position)
	assert.Equal(t, 2, got.LapsCompleted)
	assert.True(t, got.AwaitingDecision)
	assert.Equal(t, "1234.56", got.Financials.Cash.StringFixed(2))
	assert.Equal(t, "0.01", got.Financials.ToxicDebt.StringFixed(2))
	assert.Equal(t, "4734.55", got.Financials.NetWorth.StringFixed(2))

	score, err := mr.ZScore(leaderboardKey("WOLF1"), "p1")
	require.NoError(t, err)
	assert.InDelta(t, 4734.55, score, 0.001)
}

func TestRedisStore_TopPlayers(t *testing.T) {
	t.Parallel()

	store, _ := newTestRedisStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateRoom(ctx, testRoom("WOLF1")))
	require.NoError(t, store.CreateRoom(ctx, testRoom("WOLF2")))

	worths := []string{"100", "2500.50", "0", "999999.99", "42"}
	for i, nw := range worths {
		p := model.NewPlayer(fmt.Sprintf("p%d", i), fmt.Sprintf("player%d", i), "WOLF1")
		require.NoError(t, store.CreatePlayer(ctx, p))
		require.NoError(t, store.SavePlayer(ctx, withNetWorth(p, nw)))
	}
	other := model.NewPlayer("x", "outsider", "WOLF2")
	require.NoError(t, store.CreatePlayer(ctx, other))
	require.NoError(t, store.SavePlayer(ctx, withNetWorth(other, "5000000")))

	top, err := store.TopPlayers(ctx, "WOLF1", 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "p3", top[0].ID)
	assert.Equal(t, "p1", top[1].ID)
	assert.Equal(t, "p0", top[2].ID)

	all, err := store.TopPlayers(ctx, "WOLF1", 30)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i-1].Financials.NetWorth.GreaterThanOrEqual(all[i].Financials.NetWorth))
	}

	empty, err := store.TopPlayers(ctx, "EMPTY", 30)
	require.NoError(t, err)
	assert.Empty(t, empty)

	none, err := store.TopPlayers(ctx, "WOLF1", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRedisStore_SaveMovesScore(t *testing.T) {
	t.Parallel()

	store, _ := newTestRedisStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateRoom(ctx, testRoom("WOLF1")))

	a := model.NewPlayer("a", "alpha", "WOLF1")
	b := model.NewPlayer("b", "bravo", "WOLF1")
	require.NoError(t, store.CreatePlayer(ctx, withNetWorth(a, "10")))
	require.NoError(t, store.CreatePlayer(ctx, withNetWorth(b, "20")))

	top, err := store.TopPlayers(ctx, "WOLF1", 1)
	require.NoError(t, err)
	assert.Equal(t, "b", top[0].ID)

	require.NoError(t, store.SavePlayer(ctx, withNetWorth(a, "30")))
	top, err = store.TopPlayers(ctx, "WOLF1", 1)
	require.NoError(t, err)
	assert.Equal(t, "a", top[0].ID)
}

func TestRedisStore_ServerDown(t *testing.T) {
	t.Parallel()

	store, mr := newTestRedisStore(t)
	ctx := context.Background()
	require.NoError(t, store.Ping(ctx))

	mr.Close()
	assert.Error(t, store.Ping(ctx))

	_, err := store.GetPlayer(ctx, "p1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrPlayerNotFound)
}

func TestRedisStore_DeleteRoom(t *testing.T) {
	t.Parallel()

	store, mr := newTestRedisStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateRoom(ctx, testRoom("WOLF1")))
	require.NoError(t, store.CreateRoom(ctx, testRoom("WOLF2")))
	for _, id := range []string{"a", "b"} {
		require.NoError(t, store.CreatePlayer(ctx, model.NewPlayer(id, "name-"+id, "WOLF1")))
	}
	require.NoError(t, store.CreatePlayer(ctx, model.NewPlayer("x", "outsider", "WOLF2")))

	require.NoError(t, store.DeleteRoom(ctx, "WOLF1"))

	for _, key := range []string{roomKey("WOLF1"), nicknamesKey("WOLF1"), leaderboardKey("WOLF1"), playerKey("a"), playerKey("b")} {
		assert.False(t, mr.Exists(key), key)
	}
	_, err := store.GetRoom(ctx, "WOLF1")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = store.GetPlayer(ctx, "a")
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	// the other room is untouched
	top, err := store.TopPlayers(ctx, "WOLF2", 30)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "x", top[0].ID)

	// code and nicknames are free again
	require.NoError(t, store.CreateRoom(ctx, testRoom("WOLF1")))
	require.NoError(t, store.CreatePlayer(ctx, model.NewPlayer("c", "name-a", "WOLF1")))

	assert.ErrorIs(t, store.DeleteRoom(ctx, "NOPE"), ErrRoomNotFound)
}
