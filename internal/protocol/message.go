// Package protocol defines the JSON text frames exchanged over the game socket.
package protocol

import "encoding/json"

// Message is the wire envelope: {type, payload?, message?}.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Message string          `json:"message,omitempty"`
}

// MessageType tags an envelope.
type MessageType string

// Server -> client
const (
	MsgLeaderboard    MessageType = "LEADERBOARD"
	MsgUpdatePlayer   MessageType = "UPDATE_PLAYER"
	MsgVictory        MessageType = "VICTORY"
	MsgDecisionNeeded MessageType = "DECISION_NEEDED"
	MsgChat           MessageType = "CHAT"
	MsgSystem         MessageType = "SYSTEM"
)

// Client -> server, when the client sends an envelope instead of raw text.
const (
	MsgRoll MessageType = "ROLL"
	MsgBuy  MessageType = "BUY"
	MsgPass MessageType = "PASS"
)

// NewMessage builds an envelope with a JSON payload.
func NewMessage(msgType MessageType, payload any) (*Message, error) {
	var data json.RawMessage
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return &Message{
		Type:    msgType,
		Payload: data,
	}, nil
}

// MustNewMessage panics if the payload cannot be encoded.
func MustNewMessage(msgType MessageType, payload any) *Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// WithText sets the human-readable message field.
func (m *Message) WithText(text string) *Message {
	m.Message = text
	return m
}

// Encode marshals the envelope.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode unmarshals an envelope.
func Decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ParsePayload decodes the payload into T.
func ParsePayload[T any](msg *Message) (*T, error) {
	var payload T
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// NewSystemMessage is a SYSTEM notice carrying only text.
func NewSystemMessage(text string) *Message {
	return &Message{Type: MsgSystem, Message: text}
}

// NewChatMessage is a CHAT line carrying only text.
func NewChatMessage(text string) *Message {
	return &Message{Type: MsgChat, Message: text}
}

// NewErrorMessage is a SYSTEM notice tagged with an error code.
func NewErrorMessage(code int, text string) *Message {
	if text == "" {
		text = ErrorMessages[code]
	}
	msg, _ := NewMessage(MsgSystem, ErrorPayload{Code: code, Message: text})
	msg.Message = "⚠️ " + text
	return msg
}
