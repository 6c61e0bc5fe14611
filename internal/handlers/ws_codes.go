// internal/handlers/ws_codes.go
package handlers

import "github.com/jason-s-yu/ciziko/internal/game"

// Custom WebSocket close codes.
const (
	RateLimitedError = 3004 // Client kept flooding after being throttled.
)

// Subprotocol is negotiated when the client offers it; plain connections are accepted too.
const Subprotocol = "ciziko"

// EventError is sent back for frames that cannot be decoded. Game-rule violations never
// produce it.
const EventError game.EventType = "error"

// ErrorPayload explains why an inbound frame was rejected.
type ErrorPayload struct {
	Message string `json:"message"`
}
