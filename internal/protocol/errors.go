package protocol

// Error codes carried by error-tagged SYSTEM messages.
const (
	ErrCodeUnknown           = 1000
	ErrCodeInvalidMsg        = 1001
	ErrCodeRateLimit         = 1002
	ErrCodePlayerNotFound    = 2001
	ErrCodeRoomNotFound      = 2002
	ErrCodeDecisionPending   = 3001
	ErrCodeNoDecision        = 3002
	ErrCodeServerUnavailable = 5003
)

// ErrorMessages maps codes to default texts.
var ErrorMessages = map[int]string{
	ErrCodeUnknown:           "Unexpected error",
	ErrCodeInvalidMsg:        "Invalid message",
	ErrCodeRateLimit:         "Slow down, you are sending too fast",
	ErrCodePlayerNotFound:    "Player not found",
	ErrCodeRoomNotFound:      "Room not found",
	ErrCodeDecisionPending:   "Decide on the investment first: BUY or PASS",
	ErrCodeNoDecision:        "There is no investment to decide on",
	ErrCodeServerUnavailable: "Server temporarily unavailable",
}

// ErrorPayload is the payload of an error-tagged SYSTEM message.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
