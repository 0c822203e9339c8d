package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/palemoky/wolfpath/internal/game/board"
	"github.com/palemoky/wolfpath/internal/model"
)

func (m Model) View() string {
	var sb strings.Builder

	title := "🐺 Wolfpath"
	if m.nickname != "" {
		title += " · " + m.nickname
	}
	sb.WriteString(titleStyle(title))
	sb.WriteString("\n")

	if m.winner != "" {
		sb.WriteString(winnerStyle.Render(fmt.Sprintf("🏆 %s wins the game!", m.winner)))
		sb.WriteString("\n")
	}

	left := lipgloss.JoinVertical(lipgloss.Left,
		boxStyle.Width(sectionWidth).Render(m.leaderboardView()),
		boxStyle.Width(sectionWidth).Render(m.financesView()),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		boxStyle.Render(m.eventsView()),
		boxStyle.Render(m.viewport.View()),
	)
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	sb.WriteString("\n")

	if m.decision != nil && m.offer != nil {
		sb.WriteString(decideStyle.Render(decisionView(*m.offer, m.decision.DiceValue)))
		sb.WriteString("\n")
	}

	sb.WriteString(promptStyle.Render(m.input.View()))
	sb.WriteString("\n")
	if m.err != nil {
		sb.WriteString(errorStyle.Render("disconnected: " + m.err.Error()))
	} else {
		sb.WriteString(dimStyle.Render(m.status))
	}

	return docStyle.Render(sb.String())
}

func (m Model) leaderboardView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle("📊 Leaderboard"))
	if len(m.leaderboard) == 0 {
		sb.WriteString("\n" + dimStyle.Render("waiting for players..."))
		return sb.String()
	}
	for i, e := range m.leaderboard {
		if i == maxBoardRows {
			break
		}
		line := fmt.Sprintf("%2d. %-16s $%s", i+1, truncateName(e.Nickname, 16), e.NetWorth)
		if e.IsMe {
			line = meStyle.Render(line + " ◀")
		}
		sb.WriteString("\n" + line)
	}
	return sb.String()
}

func (m Model) financesView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle("💼 Balance sheet"))
	if m.me == nil {
		sb.WriteString("\n" + dimStyle.Render("roll to start (/roll)"))
		return sb.String()
	}
	rows := [][2]string{
		{"Cash", "$" + m.me.NewCash},
		{"Toxic debt", "$" + m.me.NewDebt},
		{"Passive income", "$" + m.me.NewPassiveIncome},
		{"Net worth", "$" + m.me.NewNetWorth},
		{"Tile", fmt.Sprintf("%d (lap %d)", m.me.NewPosition, m.me.LapsCompleted)},
	}
	if m.target != "" {
		rows = append(rows, [2]string{"Target", "$" + m.target})
	}
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("\n%-15s %s", r[0], r[1]))
	}
	return sb.String()
}

func (m Model) eventsView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle("🎲 Last moves"))
	if len(m.events) == 0 {
		sb.WriteString("\n" + dimStyle.Render("nothing yet"))
	}
	for _, e := range m.events {
		sb.WriteString("\n" + e)
	}
	return sb.String()
}

func decisionView(offer board.Investment, dice int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📈 %s (rolled %d)\n", offer.Title, dice))
	if offer.Description != "" {
		sb.WriteString(offer.Description + "\n")
	}
	sb.WriteString(fmt.Sprintf("Cost $%s · income +$%s per payday\n",
		model.FormatMoney(offer.Cost), model.FormatMoney(offer.IncomeDelta)))
	sb.WriteString("/buy to invest or /pass to skip")
	return sb.String()
}
