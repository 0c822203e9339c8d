// Package storage persists rooms and players.
package storage

import (
	"context"
	"errors"
	"sort"

	"github.com/palemoky/wolfpath/internal/model"
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrRoomExists     = errors.New("room code already in use")
	ErrNicknameTaken  = errors.New("nickname already taken in this room")
)

// Store is the room and player repository used by the gateway and lobby API.
type Store interface {
	CreateRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, code string) (*model.Room, error)

	// CreatePlayer fails with ErrRoomNotFound or ErrNicknameTaken.
	CreatePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id string) (*model.Player, error)
	// SavePlayer writes the full player state.
	SavePlayer(ctx context.Context, player *model.Player) error
	// TopPlayers returns up to limit players of a room by descending net worth.
	TopPlayers(ctx context.Context, roomCode string, limit int) ([]*model.Player, error)
	// DeleteRoom removes the room and every player in it. Players are removed
	// even when the room record is already gone, in which case ErrRoomNotFound
	// is returned.
	DeleteRoom(ctx context.Context, code string) error

	Ping(ctx context.Context) error
	Close() error
}

// sortByNetWorth orders players by exact net worth, highest first. Ties keep
// their incoming order.
func sortByNetWorth(players []*model.Player) {
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Financials.NetWorth.GreaterThan(players[j].Financials.NetWorth)
	})
}
