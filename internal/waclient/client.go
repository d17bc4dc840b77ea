// Package waclient defines the contract between the gateway and the remote
// messaging network transport. The wire protocol itself lives behind the
// Client interface; implementations register a Dialer at init time, the same
// way database/sql drivers do.
package waclient

import (
	"context"
	"fmt"
	"sync"
)

// DisconnectReason classifies why a session closed.
type DisconnectReason int

const (
	ReasonUnknown DisconnectReason = iota
	ReasonLoggedOut
	ReasonRestartRequired
	ReasonConnectionLost
	ReasonConnectionClosed
	ReasonTimedOut
)

func (r DisconnectReason) String() string {
	switch r {
	case ReasonLoggedOut:
		return "logged_out"
	case ReasonRestartRequired:
		return "restart_required"
	case ReasonConnectionLost:
		return "connection_lost"
	case ReasonConnectionClosed:
		return "connection_closed"
	case ReasonTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

type EventKind int

const (
	EventPairing EventKind = iota + 1
	EventOpen
	EventClosed
	EventCredentials
	EventMessages
)

// Credential is one opaque blob of session credential material. The
// transport decides the names; the gateway only persists them.
type Credential struct {
	Name string
	Data []byte
}

// Event is a tagged variant emitted on the client's event channel. Exactly
// the fields for its Kind are set.
type Event struct {
	Kind       EventKind
	Challenge  string           // EventPairing: opaque QR payload
	Reason     DisconnectReason // EventClosed
	Credential Credential       // EventCredentials
	Messages   []RawMessage     // EventMessages
}

// Client is one live session to the remote network. A client is single-use:
// once closed it cannot be reconnected, a new one must be dialed.
type Client interface {
	// Connect starts the session. Lifecycle progress (pairing challenge,
	// open, close) is reported on Events, not returned here.
	Connect(ctx context.Context) error

	// Events returns the client's event stream. The channel is closed when
	// the client terminates.
	Events() <-chan Event

	// Send delivers a text payload to a fully-qualified JID and returns the
	// remote-assigned message id.
	Send(ctx context.Context, jid, text string) (string, error)

	// Logout revokes the session on the remote side.
	Logout(ctx context.Context) error

	// Terminate releases the connection without touching remote state.
	// Safe to call more than once.
	Terminate()
}

// Dialer constructs a Client bound to the credential material persisted
// under dir. An empty or missing directory yields an unpaired client that
// will emit a pairing challenge on Connect.
type Dialer interface {
	Dial(credentialDir string) (Client, error)
}

var (
	dialerMu      sync.RWMutex
	defaultDialer Dialer
)

// RegisterDialer installs the transport implementation. Exactly one
// transport is expected per binary; a second registration panics.
func RegisterDialer(d Dialer) {
	dialerMu.Lock()
	defer dialerMu.Unlock()
	if defaultDialer != nil {
		panic("waclient: dialer already registered")
	}
	defaultDialer = d
}

// DefaultDialer returns the registered transport.
func DefaultDialer() (Dialer, error) {
	dialerMu.RLock()
	defer dialerMu.RUnlock()
	if defaultDialer == nil {
		return nil, fmt.Errorf("waclient: no transport registered")
	}
	return defaultDialer, nil
}
