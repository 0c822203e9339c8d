package types

// ChatLimiter throttles chat per player. It lives here so the handler and the
// server can share it without importing each other.
type ChatLimiter interface {
	AllowChat(clientID string) (allowed bool, reason string)
	RemoveClient(clientID string)
}
