// Package apperrors holds errors that are shown to the acting player.
package apperrors

import (
	"errors"

	"github.com/palemoky/wolfpath/internal/game/turn"
	"github.com/palemoky/wolfpath/internal/protocol"
	"github.com/palemoky/wolfpath/internal/server/storage"
)

// GameError is a user-visible error with a protocol code.
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

var (
	ErrDecisionPending = &GameError{Code: protocol.ErrCodeDecisionPending, Message: protocol.ErrorMessages[protocol.ErrCodeDecisionPending]}
	ErrNoDecision      = &GameError{Code: protocol.ErrCodeNoDecision, Message: protocol.ErrorMessages[protocol.ErrCodeNoDecision]}
	ErrPlayerNotFound  = &GameError{Code: protocol.ErrCodePlayerNotFound, Message: protocol.ErrorMessages[protocol.ErrCodePlayerNotFound]}
	ErrRoomNotFound    = &GameError{Code: protocol.ErrCodeRoomNotFound, Message: protocol.ErrorMessages[protocol.ErrCodeRoomNotFound]}
	ErrRateLimited     = &GameError{Code: protocol.ErrCodeRateLimit, Message: protocol.ErrorMessages[protocol.ErrCodeRateLimit]}
	ErrUnavailable     = &GameError{Code: protocol.ErrCodeServerUnavailable, Message: protocol.ErrorMessages[protocol.ErrCodeServerUnavailable]}
)

// FromError maps a domain or storage error onto a GameError. Unknown errors map
// to a generic code so internals are not leaked to clients.
func FromError(err error) *GameError {
	var ge *GameError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ge):
		return ge
	case errors.Is(err, turn.ErrDecisionPending):
		return ErrDecisionPending
	case errors.Is(err, turn.ErrNoPendingDecision):
		return ErrNoDecision
	case errors.Is(err, storage.ErrPlayerNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, storage.ErrRoomNotFound):
		return ErrRoomNotFound
	default:
		return &GameError{Code: protocol.ErrCodeUnknown, Message: protocol.ErrorMessages[protocol.ErrCodeUnknown]}
	}
}

// IsDomain reports whether err is an expected game-rule fault that leaves the
// connection usable.
func IsDomain(err error) bool {
	return errors.Is(err, turn.ErrDecisionPending) || errors.Is(err, turn.ErrNoPendingDecision)
}

// ToMessage renders the error as an error-tagged SYSTEM packet.
func (e *GameError) ToMessage() *protocol.Message {
	return protocol.NewErrorMessage(e.Code, e.Message)
}
