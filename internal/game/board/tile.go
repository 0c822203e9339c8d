// Package board resolves board positions to tile events.
package board

import "github.com/shopspring/decimal"

// Kind tags a tile event variant.
type Kind string

const (
	KindExpense    Kind = "EXPENSE"
	KindInvestment Kind = "INVESTMENT"
	KindNeutral    Kind = "NEUTRAL"
	KindPayday     Kind = "PAYDAY"
)

// TileEvent is the effect bound to a board position. The set of variants is
// closed: Expense, Investment, Neutral and Payday.
type TileEvent interface {
	Kind() Kind
	tileEvent()
}

// Expense is charged as soon as a player lands on it.
type Expense struct {
	Title       string
	Cost        decimal.Decimal
	Description string
}

// Investment waits for the player to buy or pass.
type Investment struct {
	Title       string
	Cost        decimal.Decimal
	IncomeDelta decimal.Decimal
	Description string
}

// Neutral has no financial effect.
type Neutral struct {
	Title       string
	Description string
}

// Payday credits a fixed amount.
type Payday struct {
	Amount decimal.Decimal
}

func (Expense) Kind() Kind    { return KindExpense }
func (Investment) Kind() Kind { return KindInvestment }
func (Neutral) Kind() Kind    { return KindNeutral }
func (Payday) Kind() Kind     { return KindPayday }

func (Expense) tileEvent()    {}
func (Investment) tileEvent() {}
func (Neutral) tileEvent()    {}
func (Payday) tileEvent()     {}

// Resolver looks up the tile at a position. It may return nil for an empty tile.
type Resolver interface {
	Resolve(position int) TileEvent
}

// ResolverFunc adapts a plain function to Resolver.
type ResolverFunc func(position int) TileEvent

func (f ResolverFunc) Resolve(position int) TileEvent { return f(position) }
