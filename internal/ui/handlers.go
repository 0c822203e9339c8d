package ui

import (
	"fmt"

	"github.com/palemoky/wolfpath/internal/game/board"
	"github.com/palemoky/wolfpath/internal/logger"
	"github.com/palemoky/wolfpath/internal/protocol"
	"github.com/palemoky/wolfpath/internal/protocol/convert"
)

type messageHandler func(m *Model, msg *protocol.Message)

var messageHandlers = map[protocol.MessageType]messageHandler{
	protocol.MsgLeaderboard:    handleLeaderboard,
	protocol.MsgUpdatePlayer:   handlePlayerUpdate,
	protocol.MsgVictory:        handleVictory,
	protocol.MsgDecisionNeeded: handleDecision,
	protocol.MsgChat:           handleChat,
	protocol.MsgSystem:         handleSystem,
}

func (m *Model) handleServerMessage(msg *protocol.Message) {
	if h, ok := messageHandlers[msg.Type]; ok {
		h(m, msg)
		return
	}
	logger.Debug("unhandled message", "type", msg.Type)
}

// handleLeaderboard re-derives is_me: the flag on a broadcast refers to the
// connection that triggered it.
func handleLeaderboard(m *Model, msg *protocol.Message) {
	entries, err := protocol.ParsePayload[[]protocol.LeaderboardEntry](msg)
	if err != nil {
		logger.Debug("bad leaderboard payload", "err", err)
		return
	}
	rows := *entries
	for i := range rows {
		rows[i].IsMe = rows[i].ID == m.playerID
		if rows[i].IsMe {
			m.nickname = rows[i].Nickname
		}
	}
	m.leaderboard = rows
}

func handlePlayerUpdate(m *Model, msg *protocol.Message) {
	p, err := protocol.ParsePayload[protocol.PlayerUpdatePayload](msg)
	if err != nil {
		logger.Debug("bad update payload", "err", err)
		return
	}

	if msg.Message != "" {
		m.pushEvent(msg.Message)
	}
	for _, e := range p.EventQueue {
		m.pushEvent(formatEvent(p.Nickname, e))
	}

	if p.GameTarget != "" {
		m.target = p.GameTarget
	}
	if p.PlayerID == m.playerID {
		m.me = p
		m.nickname = p.Nickname
		m.clearDecision()
	}
}

func handleVictory(m *Model, msg *protocol.Message) {
	handlePlayerUpdate(m, msg)
	p, err := protocol.ParsePayload[protocol.PlayerUpdatePayload](msg)
	if err != nil {
		return
	}
	m.winner = p.Nickname
	m.pushFeed(fmt.Sprintf("🏆 %s reached $%s and wins!", p.Nickname, p.NewNetWorth))
}

func handleDecision(m *Model, msg *protocol.Message) {
	d, err := protocol.ParsePayload[protocol.DecisionPayload](msg)
	if err != nil {
		logger.Debug("bad decision payload", "err", err)
		return
	}
	if d.PlayerID == m.playerID {
		tile, err := convert.DataToTile(d.EventData)
		if err != nil {
			logger.Debug("bad decision tile", "err", err)
			return
		}
		offer, ok := tile.(board.Investment)
		if !ok {
			logger.Debug("decision on a non-investment tile", "kind", d.EventData.Kind)
			return
		}
		m.decision, m.offer = d, &offer
		return
	}
	if msg.Message != "" {
		m.pushEvent(msg.Message)
	}
}

func handleChat(m *Model, msg *protocol.Message) {
	m.pushFeed(msg.Message)
}

func handleSystem(m *Model, msg *protocol.Message) {
	// error notices carry a payload and go to the status line
	if len(msg.Payload) > 0 {
		m.status = errorStyle.Render(msg.Message)
		return
	}
	m.pushFeed(dimStyle.Render(msg.Message))
}

func formatEvent(nickname string, e protocol.EventEntry) string {
	line := fmt.Sprintf("  %s · %s", nickname, e.Title)
	switch {
	case e.Amount == "":
	case e.Amount[0] == '-':
		line += " " + lossStyle.Render(e.Amount)
	case e.Amount[0] == '+':
		line += " " + gainStyle.Render(e.Amount)
	default:
		line += " " + dimStyle.Render(e.Amount)
	}
	return line
}
