// Package convert maps game values onto wire payloads.
package convert

import (
	"fmt"

	"github.com/palemoky/wolfpath/internal/game/board"
	"github.com/palemoky/wolfpath/internal/game/turn"
	"github.com/palemoky/wolfpath/internal/model"
	"github.com/palemoky/wolfpath/internal/protocol"
)

// TileToData serializes a tile event. Every variant is handled explicitly.
func TileToData(t board.TileEvent) protocol.TileData {
	switch v := t.(type) {
	case board.Expense:
		return protocol.TileData{
			Kind:        string(board.KindExpense),
			Title:       v.Title,
			Description: v.Description,
			Cost:        model.FormatMoney(v.Cost),
		}
	case board.Investment:
		return protocol.TileData{
			Kind:        string(board.KindInvestment),
			Title:       v.Title,
			Description: v.Description,
			Cost:        model.FormatMoney(v.Cost),
			IncomeDelta: model.FormatMoney(v.IncomeDelta),
		}
	case board.Neutral:
		return protocol.TileData{
			Kind:        string(board.KindNeutral),
			Title:       v.Title,
			Description: v.Description,
		}
	case board.Payday:
		return protocol.TileData{
			Kind:   string(board.KindPayday),
			Amount: model.FormatMoney(v.Amount),
		}
	case nil:
		return protocol.TileData{}
	default:
		panic(fmt.Sprintf("convert: unhandled tile event %T", t))
	}
}

// DataToTile parses a serialized tile event back into its variant.
func DataToTile(d protocol.TileData) (board.TileEvent, error) {
	switch board.Kind(d.Kind) {
	case board.KindExpense:
		cost, err := model.ParseMoney(d.Cost)
		if err != nil {
			return nil, fmt.Errorf("expense cost: %w", err)
		}
		return board.Expense{Title: d.Title, Cost: cost, Description: d.Description}, nil
	case board.KindInvestment:
		cost, err := model.ParseMoney(d.Cost)
		if err != nil {
			return nil, fmt.Errorf("investment cost: %w", err)
		}
		income, err := model.ParseMoney(d.IncomeDelta)
		if err != nil {
			return nil, fmt.Errorf("investment income: %w", err)
		}
		return board.Investment{Title: d.Title, Cost: cost, IncomeDelta: income, Description: d.Description}, nil
	case board.KindNeutral:
		return board.Neutral{Title: d.Title, Description: d.Description}, nil
	case board.KindPayday:
		amount, err := model.ParseMoney(d.Amount)
		if err != nil {
			return nil, fmt.Errorf("payday amount: %w", err)
		}
		return board.Payday{Amount: amount}, nil
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown tile kind %q", d.Kind)
	}
}

// EventsToEntries converts a turn's event queue. The result is never nil so it
// encodes as [] rather than null.
func EventsToEntries(events []turn.Event) []protocol.EventEntry {
	entries := make([]protocol.EventEntry, len(events))
	for i, e := range events {
		entries[i] = protocol.EventEntry{
			Kind:        e.Kind,
			Title:       e.Title,
			Description: e.Description,
			Amount:      e.Amount,
		}
	}
	return entries
}

// PlayerUpdate builds the UPDATE_PLAYER / VICTORY payload.
func PlayerUpdate(p *model.Player, events []turn.Event, rules turn.Rules) protocol.PlayerUpdatePayload {
	f := p.Financials
	return protocol.PlayerUpdatePayload{
		PlayerID:         p.ID,
		Nickname:         p.Nickname,
		NewPosition:      p.Position,
		LapsCompleted:    p.LapsCompleted,
		NewCash:          model.FormatMoney(f.Cash),
		NewDebt:          model.FormatMoney(f.ToxicDebt),
		NewNetWorth:      model.FormatMoney(f.NetWorth),
		NewPassiveIncome: model.FormatMoney(f.PassiveIncome),
		EventQueue:       EventsToEntries(events),
		GameTarget:       model.FormatMoney(rules.WinningScore),
	}
}

// ResultMessage builds the UPDATE_PLAYER packet for a turn, or VICTORY once the
// player's net worth reaches the target.
func ResultMessage(res *turn.Result, rules turn.Rules) (*protocol.Message, error) {
	msgType := protocol.MsgUpdatePlayer
	if res.Outcome == turn.OutcomeVictory || res.Player.Financials.NetWorth.GreaterThanOrEqual(rules.WinningScore) {
		msgType = protocol.MsgVictory
	}
	msg, err := protocol.NewMessage(msgType, PlayerUpdate(res.Player, res.Events, rules))
	if err != nil {
		return nil, err
	}
	return msg.WithText(res.Log), nil
}

// DecisionMessage builds the DECISION_NEEDED packet for a pending investment.
func DecisionMessage(res *turn.Result) (*protocol.Message, error) {
	msg, err := protocol.NewMessage(protocol.MsgDecisionNeeded, protocol.DecisionPayload{
		PlayerID:  res.Player.ID,
		EventData: TileToData(res.Tile),
		DiceValue: res.Die,
	})
	if err != nil {
		return nil, err
	}
	return msg.WithText(fmt.Sprintf("🤔 %s is weighing an investment...", res.Player.Nickname)), nil
}

// LeaderboardEntries ranks players as given and marks viewerID.
func LeaderboardEntries(players []*model.Player, viewerID string) []protocol.LeaderboardEntry {
	entries := make([]protocol.LeaderboardEntry, len(players))
	for i, p := range players {
		entries[i] = protocol.LeaderboardEntry{
			ID:       p.ID,
			Nickname: p.Nickname,
			NetWorth: model.FormatMoney(p.Financials.NetWorth),
			Position: p.Position,
			IsMe:     p.ID == viewerID,
		}
	}
	return entries
}
