package protocol

import (
	"encoding/json"
	"strings"
)

// CommandKind is what an inbound frame asks the server to do.
type CommandKind int

const (
	CmdChat CommandKind = iota
	CmdRoll
	CmdBuy
	CmdPass
)

func (k CommandKind) String() string {
	switch k {
	case CmdRoll:
		return "roll"
	case CmdBuy:
		return "buy"
	case CmdPass:
		return "pass"
	default:
		return "chat"
	}
}

// Command is a parsed inbound frame. Text is set for chat.
type Command struct {
	Kind CommandKind
	Text string
}

// RollTriggers are phrases that count as a roll when they appear anywhere in
// a text frame.
var RollTriggers = []string{"lanzado los dados", "rolled the dice"}

// ParseCommand interprets an inbound frame. Literal "ROLL", "BUY" and "PASS"
// are commands, as is any text containing a roll trigger. A JSON envelope whose
// type is ROLL, BUY, PASS or CHAT is accepted too. Everything else is chat.
func ParseCommand(frame []byte) Command {
	text := string(frame)

	switch text {
	case string(MsgRoll):
		return Command{Kind: CmdRoll}
	case string(MsgBuy):
		return Command{Kind: CmdBuy}
	case string(MsgPass):
		return Command{Kind: CmdPass}
	}
	for _, trigger := range RollTriggers {
		if strings.Contains(text, trigger) {
			return Command{Kind: CmdRoll}
		}
	}

	if cmd, ok := parseEnvelope(frame); ok {
		return cmd
	}
	return Command{Kind: CmdChat, Text: text}
}

func parseEnvelope(frame []byte) (Command, bool) {
	trimmed := strings.TrimSpace(string(frame))
	if !strings.HasPrefix(trimmed, "{") {
		return Command{}, false
	}
	var msg Message
	if err := json.Unmarshal([]byte(trimmed), &msg); err != nil {
		return Command{}, false
	}
	switch msg.Type {
	case MsgRoll:
		return Command{Kind: CmdRoll}, true
	case MsgBuy:
		return Command{Kind: CmdBuy}, true
	case MsgPass:
		return Command{Kind: CmdPass}, true
	case MsgChat:
		return Command{Kind: CmdChat, Text: msg.Message}, true
	}
	return Command{}, false
}
