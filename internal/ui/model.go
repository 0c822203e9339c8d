// Package ui is the bubbletea front end of the terminal client.
package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/wolfpath/internal/game/board"
	"github.com/palemoky/wolfpath/internal/protocol"
)

const (
	maxEvents    = 8
	maxFeed      = 200
	feedHeight   = 10
	inputLimit   = 280
	inputWidth   = 60
	maxBoardRows = 10
)

// Conn is the part of the websocket client the UI needs.
type Conn interface {
	Send(text string) error
	Receive() (*protocol.Message, error)
	Close()
}

// ServerMessage carries one inbound message into Update.
type ServerMessage struct {
	Msg *protocol.Message
}

// DisconnectedMsg ends the receive loop.
type DisconnectedMsg struct {
	Err error
}

// Model is the whole client screen.
type Model struct {
	conn     Conn
	playerID string
	nickname string

	leaderboard []protocol.LeaderboardEntry
	me          *protocol.PlayerUpdatePayload
	target      string
	decision    *protocol.DecisionPayload
	offer       *board.Investment
	winner      string

	events []string
	feed   []string
	status string
	err    error

	input    textinput.Model
	viewport viewport.Model
	width    int
	height   int
}

func New(conn Conn, playerID string) Model {
	ti := textinput.New()
	ti.Placeholder = "/roll, /buy, /pass or say something"
	ti.CharLimit = inputLimit
	ti.Width = inputWidth
	ti.Focus()

	vp := viewport.New(inputWidth, feedHeight)

	return Model{
		conn:     conn,
		playerID: playerID,
		input:    ti,
		viewport: vp,
		status:   helpText,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, listen(m.conn))
}

// listen waits for the next server message.
func listen(conn Conn) tea.Cmd {
	return func() tea.Msg {
		msg, err := conn.Receive()
		if err != nil {
			return DisconnectedMsg{Err: err}
		}
		return ServerMessage{Msg: msg}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		w := max(msg.Width-sectionWidth-10, 30)
		m.viewport.Width = w
		m.input.Width = w
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.conn.Close()
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case ServerMessage:
		m.handleServerMessage(msg.Msg)
		return m, listen(m.conn)

	case DisconnectedMsg:
		m.err = msg.Err
		m.status = "disconnected"
		m.clearDecision()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	in := ParseInput(m.input.Value())
	m.input.Reset()

	switch in.Kind {
	case InputNone:
		return m, nil
	case InputQuit:
		m.conn.Close()
		return m, tea.Quit
	case InputHelp:
		m.status = helpText
		return m, nil
	case InputUnknown:
		m.status = errorStyle.Render("unknown command " + in.Frame)
		return m, nil
	}

	if m.err != nil {
		m.status = errorStyle.Render("not connected")
		return m, nil
	}
	if err := m.conn.Send(in.Frame); err != nil {
		m.status = errorStyle.Render("send failed: " + err.Error())
		return m, nil
	}
	m.status = ""
	return m, nil
}

func (m *Model) pushEvent(line string) {
	m.events = append(m.events, line)
	if len(m.events) > maxEvents {
		m.events = m.events[len(m.events)-maxEvents:]
	}
}

func (m *Model) pushFeed(line string) {
	m.feed = append(m.feed, line)
	if len(m.feed) > maxFeed {
		m.feed = m.feed[len(m.feed)-maxFeed:]
	}
	m.viewport.SetContent(strings.Join(m.feed, "\n"))
	m.viewport.GotoBottom()
}

// Accessors used by tests and the client command.

func (m Model) Nickname() string                           { return m.nickname }
func (m Model) Leaderboard() []protocol.LeaderboardEntry   { return m.leaderboard }
func (m Model) Me() *protocol.PlayerUpdatePayload          { return m.me }
func (m Model) PendingDecision() *protocol.DecisionPayload { return m.decision }

func (m *Model) clearDecision() {
	m.decision, m.offer = nil, nil
}
func (m Model) Feed() []string                             { return m.feed }
func (m Model) Events() []string                           { return m.events }
func (m Model) Err() error                                 { return m.err }
