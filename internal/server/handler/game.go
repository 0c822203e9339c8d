package handler

import (
	"context"
	"fmt"

	"github.com/palemoky/wolfpath/internal/apperrors"
	"github.com/palemoky/wolfpath/internal/game/turn"
	"github.com/palemoky/wolfpath/internal/logger"
	"github.com/palemoky/wolfpath/internal/protocol"
	"github.com/palemoky/wolfpath/internal/protocol/convert"
)

// handleTurn runs ROLL, BUY or PASS against freshly loaded player state,
// writes the full state back and broadcasts the outcome.
func (h *Handler) handleTurn(ctx context.Context, s *Session, kind protocol.CommandKind) error {
	player, err := h.store.GetPlayer(ctx, s.PlayerID)
	if err != nil {
		return fmt.Errorf("load player: %w", err)
	}

	var res *turn.Result
	switch kind {
	case protocol.CmdRoll:
		res, err = h.processor.Roll(player, s.Rules)
	case protocol.CmdBuy:
		res, err = h.processor.Buy(player, s.Rules)
	case protocol.CmdPass:
		res, err = h.processor.Pass(player, s.Rules)
	default:
		return fmt.Errorf("unexpected command %s", kind)
	}
	if err != nil {
		if apperrors.IsDomain(err) {
			logger.Debug("🚫 command rejected", "player", s.Nickname, "cmd", kind.String(), "err", err)
			return h.sendTo(s, apperrors.FromError(err).ToMessage())
		}
		return fmt.Errorf("%s: %w", kind, err)
	}

	if err := h.store.SavePlayer(ctx, res.Player); err != nil {
		return fmt.Errorf("save player: %w", err)
	}
	logger.Info(res.Log, "room", s.Room, "outcome", res.Outcome.String())

	if res.Outcome == turn.OutcomeDecisionRequired {
		return h.announceDecision(ctx, s, res)
	}
	return h.announceResult(ctx, s, res)
}

func (h *Handler) announceResult(ctx context.Context, s *Session, res *turn.Result) error {
	msg, err := convert.ResultMessage(res, s.Rules)
	if err != nil {
		return err
	}
	if err := h.broadcast(s, msg); err != nil {
		return err
	}
	if res.Outcome == turn.OutcomeVictory {
		logger.Info("🏆 victory", "player", s.Nickname, "room", s.Room, "net_worth", res.Player.Financials.NetWorth.String())
	}
	return h.broadcastLeaderboard(ctx, s)
}

// announceDecision shows any payday money first, then prompts for BUY or PASS.
func (h *Handler) announceDecision(ctx context.Context, s *Session, res *turn.Result) error {
	if res.HasPayday() {
		if err := h.announceResult(ctx, s, res); err != nil {
			return err
		}
	}
	msg, err := convert.DecisionMessage(res)
	if err != nil {
		return err
	}
	return h.broadcast(s, msg)
}
