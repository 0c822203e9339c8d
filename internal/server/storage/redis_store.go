package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/wolfpath/internal/model"
)

const (
	roomKeyPrefix   = "room:"
	playerKeyPrefix = "player:"
	nicknamesSuffix = ":nicknames"
	boardSuffix     = ":leaderboard"

	maxTxRetries = 3
)

func roomKey(code string) string        { return roomKeyPrefix + code }
func playerKey(id string) string        { return playerKeyPrefix + id }
func nicknamesKey(code string) string   { return roomKeyPrefix + code + nicknamesSuffix }
func leaderboardKey(code string) string { return roomKeyPrefix + code + boardSuffix }

// RedisStore keeps rooms and players as JSON blobs and ranks each room in a
// sorted set scored by net worth.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// CreateRoom stores a new room; the code must be unused.
func (rs *RedisStore) CreateRoom(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to marshal room: %w", err)
	}
	ok, err := rs.client.SetNX(ctx, roomKey(room.Code), data, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrRoomExists
	}
	return nil
}

func (rs *RedisStore) GetRoom(ctx context.Context, code string) (*model.Room, error) {
	data, err := rs.client.Get(ctx, roomKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}
	return &room, nil
}

// CreatePlayer reserves the nickname within the room, then stores the player.
func (rs *RedisStore) CreatePlayer(ctx context.Context, player *model.Player) error {
	exists, err := rs.client.Exists(ctx, roomKey(player.RoomCode)).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return ErrRoomNotFound
	}

	added, err := rs.client.SAdd(ctx, nicknamesKey(player.RoomCode), player.Nickname).Result()
	if err != nil {
		return err
	}
	if added == 0 {
		return ErrNicknameTaken
	}

	if err := rs.SavePlayer(ctx, player); err != nil {
		_ = rs.client.SRem(ctx, nicknamesKey(player.RoomCode), player.Nickname).Err()
		return err
	}
	return nil
}

func (rs *RedisStore) GetPlayer(ctx context.Context, id string) (*model.Player, error) {
	data, err := rs.client.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return decodePlayer(data)
}

// SavePlayer overwrites the player blob and its leaderboard score atomically.
func (rs *RedisStore) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return fmt.Errorf("failed to marshal player: %w", err)
	}

	_, err = rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, playerKey(player.ID), data, 0)
		pipe.ZAdd(ctx, leaderboardKey(player.RoomCode), redis.Z{
			Score:  player.Financials.NetWorth.InexactFloat64(),
			Member: player.ID,
		})
		return nil
	})
	return err
}

// TopPlayers reads ids from the room's sorted set, loads them, and re-sorts on
// the exact decimal value since scores are floats.
func (rs *RedisStore) TopPlayers(ctx context.Context, roomCode string, limit int) ([]*model.Player, error) {
	if limit <= 0 {
		return []*model.Player{}, nil
	}

	ids, err := rs.client.ZRevRange(ctx, leaderboardKey(roomCode), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Player{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = playerKey(id)
	}
	values, err := rs.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	players := make([]*model.Player, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		p, err := decodePlayer([]byte(s))
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	sortByNetWorth(players)
	return players, nil
}

// DeleteRoom drops the room, its nickname set, its leaderboard and every
// player ranked on it. The leaderboard and nickname set are watched so a
// player joining mid-delete makes the transaction retry instead of leaking.
func (rs *RedisStore) DeleteRoom(ctx context.Context, code string) error {
	var removed int64
	txf := func(tx *redis.Tx) error {
		ids, err := tx.ZRange(ctx, leaderboardKey(code), 0, -1).Result()
		if err != nil {
			return err
		}
		keys := []string{nicknamesKey(code), leaderboardKey(code)}
		for _, id := range ids {
			keys = append(keys, playerKey(id))
		}

		var roomDel *redis.IntCmd
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			roomDel = pipe.Del(ctx, roomKey(code))
			pipe.Del(ctx, keys...)
			return nil
		})
		if err != nil {
			return err
		}
		removed = roomDel.Val()
		return nil
	}

	for range maxTxRetries {
		err := rs.client.Watch(ctx, txf, leaderboardKey(code), nicknamesKey(code))
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return err
		}
		if removed == 0 {
			return ErrRoomNotFound
		}
		return nil
	}
	return fmt.Errorf("delete room %s: %w", code, redis.TxFailedErr)
}

func (rs *RedisStore) Ping(ctx context.Context) error {
	return rs.client.Ping(ctx).Err()
}

func (rs *RedisStore) Close() error {
	return rs.client.Close()
}

func decodePlayer(data []byte) (*model.Player, error) {
	var p model.Player
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player: %w", err)
	}
	return &p, nil
}
