// Package turn applies dice rolls, paydays and tile events to a player's state.
package turn

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/palemoky/wolfpath/internal/game/board"
	"github.com/palemoky/wolfpath/internal/model"
)

var (
	// ErrDecisionPending is returned by Roll while an investment awaits BUY or PASS.
	ErrDecisionPending = errors.New("an investment decision is pending")
	// ErrNoPendingDecision is returned by Buy and Pass when nothing is pending.
	ErrNoPendingDecision = errors.New("no investment decision is pending")
	// ErrInvalidBoard is returned when the rules carry a non-positive board size.
	ErrInvalidBoard = errors.New("board size must be positive")
)

// Outcome tells the caller which packet to broadcast.
type Outcome int

const (
	OutcomeUpdated Outcome = iota
	OutcomeVictory
	OutcomeDecisionRequired
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUpdated:
		return "updated"
	case OutcomeVictory:
		return "victory"
	case OutcomeDecisionRequired:
		return "decision_required"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// EventPass marks the entry appended when a player declines an investment.
const EventPass = "PASS"

// Event is one entry of a turn's event queue.
type Event struct {
	Kind        string
	Title       string
	Description string
	Amount      string // signed label such as "-$1200.00"; empty when there is none
}

// Result is the outcome of one command.
type Result struct {
	Player  *model.Player
	Events  []Event
	Log     string
	Outcome Outcome
	Die     int
	// Tile is the landed tile when Outcome is OutcomeDecisionRequired.
	Tile board.TileEvent
}

// HasPayday reports whether the queue holds a payday entry.
func (r *Result) HasPayday() bool {
	for _, e := range r.Events {
		if e.Kind == string(board.KindPayday) {
			return true
		}
	}
	return false
}

// Processor is a pure state transition apart from the die draw.
type Processor struct {
	tiles board.Resolver
	dice  Dice
}

func NewProcessor(tiles board.Resolver, dice Dice) *Processor {
	if dice == nil {
		dice = RandomDice{}
	}
	return &Processor{tiles: tiles, dice: dice}
}

// Roll moves the player, applies payday on each lap and resolves the landed tile.
func (p *Processor) Roll(player *model.Player, rules Rules) (*Result, error) {
	if rules.BoardSize <= 0 {
		return nil, ErrInvalidBoard
	}
	if player.AwaitingDecision {
		return nil, ErrDecisionPending
	}

	next := player.Clone()
	fin := &next.Financials
	die := p.dice.Roll()
	res := &Result{Player: next, Die: die}

	next.Position += die
	paid := false
	for next.Position >= rules.BoardSize {
		next.Position -= rules.BoardSize
		next.LapsCompleted++

		gained, interest := fin.ApplyPayday(rules.Salary, rules.InterestRate)
		desc := "Salary + passive income"
		if interest.IsPositive() {
			desc = fmt.Sprintf("Salary + passive income, debt interest +$%s", model.FormatMoney(interest))
		}
		res.Events = append(res.Events, Event{
			Kind:        string(board.KindPayday),
			Title:       "PAYDAY!",
			Description: desc,
			Amount:      credit(gained),
		})
		paid = true
	}
	fin.Recalculate(rules.AssetMultiplier)

	res.Log = fmt.Sprintf("🎲 %s rolled %d -> tile %d", next.Nickname, die, next.Position)
	if paid {
		res.Log += " 💰 PAYDAY!"
	}

	switch tile := p.resolve(next.Position).(type) {
	case board.Expense:
		fin.PayCost(tile.Cost)
		res.Events = append(res.Events, Event{
			Kind:        string(board.KindExpense),
			Title:       tile.Title,
			Description: tile.Description,
			Amount:      debit(tile.Cost),
		})
	case board.Investment:
		next.AwaitingDecision = true
		res.Tile = tile
		res.Outcome = OutcomeDecisionRequired
		return res, nil
	case board.Neutral:
		res.Events = append(res.Events, Event{
			Kind:        string(board.KindNeutral),
			Title:       tile.Title,
			Description: tile.Description,
			Amount:      "$" + model.FormatMoney(decimal.Zero),
		})
	case board.Payday:
		fin.Cash = fin.Cash.Add(tile.Amount)
		res.Events = append(res.Events, Event{
			Kind:        string(board.KindPayday),
			Title:       "Bonus",
			Description: "Payday tile",
			Amount:      credit(tile.Amount),
		})
	case nil:
	}

	p.finish(res, rules)
	return res, nil
}

// Buy commits the pending investment on the player's current tile.
func (p *Processor) Buy(player *model.Player, rules Rules) (*Result, error) {
	if !player.AwaitingDecision {
		return nil, ErrNoPendingDecision
	}

	next := player.Clone()
	next.AwaitingDecision = false
	fin := &next.Financials
	res := &Result{Player: next}

	inv, ok := p.resolve(next.Position).(board.Investment)
	if !ok {
		res.Log = fmt.Sprintf("🤷 %s has nothing to buy here", next.Nickname)
		p.finish(res, rules)
		return res, nil
	}

	if fin.Cash.GreaterThanOrEqual(inv.Cost) {
		fin.Cash = fin.Cash.Sub(inv.Cost)
		fin.PassiveIncome = fin.PassiveIncome.Add(inv.IncomeDelta)
		res.Events = append(res.Events, Event{
			Kind:        string(board.KindInvestment),
			Title:       inv.Title,
			Description: "Investment successful",
			Amount:      debit(inv.Cost),
		})
		res.Log = fmt.Sprintf("📈 %s bought %s", next.Nickname, inv.Title)
	} else {
		res.Events = append(res.Events, Event{
			Kind:        string(board.KindInvestment),
			Title:       inv.Title,
			Description: "Insufficient funds",
		})
		res.Log = fmt.Sprintf("🚫 %s could not afford %s", next.Nickname, inv.Title)
	}

	p.finish(res, rules)
	return res, nil
}

// Pass declines the pending investment. Finances are untouched.
func (p *Processor) Pass(player *model.Player, rules Rules) (*Result, error) {
	if !player.AwaitingDecision {
		return nil, ErrNoPendingDecision
	}

	next := player.Clone()
	next.AwaitingDecision = false
	res := &Result{Player: next}

	title := "the opportunity"
	if inv, ok := p.resolve(next.Position).(board.Investment); ok {
		title = inv.Title
	}
	res.Events = append(res.Events, Event{
		Kind:        EventPass,
		Title:       title,
		Description: "Opportunity declined",
	})
	res.Log = fmt.Sprintf("⏭️ %s passed on %s", next.Nickname, title)

	p.finish(res, rules)
	return res, nil
}

func (p *Processor) resolve(position int) board.TileEvent {
	if p.tiles == nil {
		return nil
	}
	return p.tiles.Resolve(position)
}

func (p *Processor) finish(res *Result, rules Rules) {
	nw := res.Player.Financials.Recalculate(rules.AssetMultiplier)
	if nw.GreaterThanOrEqual(rules.WinningScore) {
		res.Outcome = OutcomeVictory
	} else {
		res.Outcome = OutcomeUpdated
	}
}

func credit(d decimal.Decimal) string { return "+$" + model.FormatMoney(d) }

func debit(d decimal.Decimal) string { return "-$" + model.FormatMoney(d) }
