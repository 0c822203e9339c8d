package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Room is a game instance created by the lobby API before anyone connects.
type Room struct {
	Code         string          `json:"code"`
	Salary       decimal.Decimal `json:"salary"`
	WinningScore decimal.Decimal `json:"winning_score"`
	BoardSize    int             `json:"board_size"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Player is the persisted state of one participant.
type Player struct {
	ID               string         `json:"id"`
	Nickname         string         `json:"nickname"`
	RoomCode         string         `json:"room_code"`
	Position         int            `json:"position"`
	LapsCompleted    int            `json:"laps_completed"`
	AwaitingDecision bool           `json:"awaiting_decision"`
	Financials       FinancialState `json:"financials"`
	CreatedAt        time.Time      `json:"created_at"`
}

// NewPlayer returns a player at the start tile with an empty balance sheet.
func NewPlayer(id, nickname, roomCode string) *Player {
	return &Player{
		ID:       id,
		Nickname: nickname,
		RoomCode: roomCode,
		Financials: FinancialState{
			Cash:          decimal.Zero,
			ToxicDebt:     decimal.Zero,
			PassiveIncome: decimal.Zero,
			NetWorth:      decimal.Zero,
		},
		CreatedAt: time.Now(),
	}
}

// Clone returns a copy safe to mutate independently.
func (p *Player) Clone() *Player {
	c := *p
	return &c
}
