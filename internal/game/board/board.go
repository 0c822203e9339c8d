package board

import (
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Board holds fixed tiles by position. Positions without a fixed tile resolve
// to a neutral event picked at random from the flavour pool.
type Board struct {
	tiles   map[int]TileEvent
	neutral []Neutral

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Board.
type Option func(*Board)

// WithRand replaces the source used to pick neutral flavour texts.
func WithRand(r *rand.Rand) Option {
	return func(b *Board) { b.rng = r }
}

// New builds a board from fixed tiles and a neutral pool.
func New(tiles map[int]TileEvent, neutral []Neutral, opts ...Option) *Board {
	b := &Board{
		tiles:   make(map[int]TileEvent, len(tiles)),
		neutral: append([]Neutral(nil), neutral...),
	}
	for pos, t := range tiles {
		b.tiles[pos] = t
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.rng == nil {
		seed := uint64(time.Now().UnixNano())
		b.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return b
}

// Resolve returns the tile at position, or a random neutral one.
func (b *Board) Resolve(position int) TileEvent {
	if t, ok := b.tiles[position]; ok {
		return t
	}
	if len(b.neutral) == 0 {
		return nil
	}

	b.mu.Lock()
	n := b.neutral[b.rng.IntN(len(b.neutral))]
	b.mu.Unlock()
	return n
}

// Len is the number of fixed tiles.
func (b *Board) Len() int { return len(b.tiles) }

func money(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// Default returns the stock layout: four expenses and five investments.
func Default(opts ...Option) *Board {
	tiles := map[int]TileEvent{
		3:  Expense{Title: "iPhone 15 Pro", Cost: money(1200), Description: "Bought on impulse over 24 installments. Ouch!"},
		7:  Expense{Title: "Luxury dinner", Cost: money(300), Description: "You treated everyone and paid by card."},
		12: Expense{Title: "Car repair", Cost: money(800), Description: "The radiator blew up. Emergency expense."},
		18: Expense{Title: "Ex's wedding", Cost: money(500), Description: "Expensive gift and a brand-new suit."},

		5:  Investment{Title: "Dropshipping store", Cost: money(500), IncomeDelta: money(100), Description: "Automated sales. Small but steady income."},
		8:  Investment{Title: "Food Truck", Cost: money(1500), IncomeDelta: money(350), Description: "A taco truck on a busy corner."},
		10: Investment{Title: "Rental apartment", Cost: money(2000), IncomeDelta: money(400), Description: "You bought a studio and listed it for short stays."},
		14: Investment{Title: "YouTube channel", Cost: money(800), IncomeDelta: money(150), Description: "Monetized educational content."},
		15: Investment{Title: "Tech startup shares", Cost: money(5000), IncomeDelta: money(1200), Description: "You got in early on the next unicorn."},
	}
	return New(tiles, DefaultNeutral(), opts...)
}

// DefaultNeutral is the stock flavour pool for empty tiles.
func DefaultNeutral() []Neutral {
	return []Neutral{
		{Title: "Quiet day", Description: "You cooked at home instead of ordering in. Invisible savings."},
		{Title: "Financial reading", Description: "You read a chapter on compound interest. Your mind expands."},
		{Title: "Willpower", Description: "You walked past the sale without going in. Nerves of steel!"},
		{Title: "Market check", Description: "You reviewed your investments. Everything looks stable for now."},
		{Title: "Networking", Description: "Coffee with a mentor. You learned about good debt versus bad debt."},
		{Title: "Planning", Description: "You went over your monthly budget. Order brings wealth."},
	}
}

// layoutFile is the YAML shape read by Load.
type layoutFile struct {
	Tiles []struct {
		Position    int    `yaml:"position"`
		Kind        string `yaml:"kind"`
		Title       string `yaml:"title"`
		Cost        string `yaml:"cost"`
		Income      string `yaml:"income"`
		Amount      string `yaml:"amount"`
		Description string `yaml:"description"`
	} `yaml:"tiles"`
	Neutral []struct {
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
	} `yaml:"neutral"`
}

// Load reads a board layout from a YAML file. An empty neutral list falls
// back to the stock pool.
func Load(path string, opts ...Option) (*Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read board file: %w", err)
	}
	return Parse(data, opts...)
}

// Parse decodes a YAML board layout.
func Parse(data []byte, opts ...Option) (*Board, error) {
	var lf layoutFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("failed to parse board file: %w", err)
	}

	tiles := make(map[int]TileEvent, len(lf.Tiles))
	for _, t := range lf.Tiles {
		if t.Position < 0 {
			return nil, fmt.Errorf("tile %q: negative position %d", t.Title, t.Position)
		}
		if _, dup := tiles[t.Position]; dup {
			return nil, fmt.Errorf("duplicate tile at position %d", t.Position)
		}

		var (
			ev  TileEvent
			err error
		)
		switch Kind(strings.ToUpper(t.Kind)) {
		case KindExpense:
			var cost decimal.Decimal
			cost, err = parseAmount(t.Cost, "cost")
			ev = Expense{Title: t.Title, Cost: cost, Description: t.Description}
		case KindInvestment:
			var cost, income decimal.Decimal
			if cost, err = parseAmount(t.Cost, "cost"); err == nil {
				income, err = parseAmount(t.Income, "income")
			}
			ev = Investment{Title: t.Title, Cost: cost, IncomeDelta: income, Description: t.Description}
		case KindNeutral:
			ev = Neutral{Title: t.Title, Description: t.Description}
		case KindPayday:
			var amount decimal.Decimal
			amount, err = parseAmount(t.Amount, "amount")
			ev = Payday{Amount: amount}
		default:
			return nil, fmt.Errorf("tile at position %d: unknown kind %q", t.Position, t.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("tile at position %d: %w", t.Position, err)
		}
		tiles[t.Position] = ev
	}

	neutral := make([]Neutral, 0, len(lf.Neutral))
	for _, n := range lf.Neutral {
		neutral = append(neutral, Neutral{Title: n.Title, Description: n.Description})
	}
	if len(neutral) == 0 {
		neutral = DefaultNeutral()
	}

	return New(tiles, neutral, opts...), nil
}

func parseAmount(s, field string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("missing %s", field)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", field, s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative %s %q", field, s)
	}
	return d, nil
}
