package model

import "time"

type SessionState string

const (
	StateDisconnected    SessionState = "disconnected"
	StateConnecting      SessionState = "connecting"
	StateAwaitingPairing SessionState = "awaiting_pairing"
	StateConnected       SessionState = "connected"
)

// Status is the snapshot of the session lifecycle exposed to the request
// surface. Exactly one instance exists per process; it is written only by
// the lifecycle manager.
type Status struct {
	State          SessionState `json:"state"`
	LastError      string       `json:"lastError,omitempty"`
	ConnectedAt    *time.Time   `json:"connectedAt,omitempty"`
	PairingPending bool         `json:"pairingPending"`
}
