package ui

import "strings"

// InputKind says what a line typed by the player turns into.
type InputKind int

const (
	InputNone InputKind = iota
	InputSend
	InputQuit
	InputHelp
	InputUnknown
)

// Input is a parsed input line. Frame is set for InputSend.
type Input struct {
	Kind  InputKind
	Frame string
}

var slashCommands = map[string]Input{
	"/roll": {Kind: InputSend, Frame: "ROLL"},
	"/r":    {Kind: InputSend, Frame: "ROLL"},
	"/buy":  {Kind: InputSend, Frame: "BUY"},
	"/b":    {Kind: InputSend, Frame: "BUY"},
	"/pass": {Kind: InputSend, Frame: "PASS"},
	"/p":    {Kind: InputSend, Frame: "PASS"},
	"/quit": {Kind: InputQuit},
	"/exit": {Kind: InputQuit},
	"/help": {Kind: InputHelp},
}

const helpText = "/roll (/r) roll the die · /buy (/b) invest · /pass (/p) skip · /quit · anything else is chat"

// ParseInput maps slash commands to protocol frames. Plain text is chat.
func ParseInput(line string) Input {
	line = strings.TrimSpace(line)
	if line == "" {
		return Input{Kind: InputNone}
	}
	if strings.HasPrefix(line, "/") {
		if in, ok := slashCommands[strings.ToLower(strings.Fields(line)[0])]; ok {
			return in
		}
		return Input{Kind: InputUnknown, Frame: line}
	}
	return Input{Kind: InputSend, Frame: line}
}
