// Package session implements the lifecycle manager that owns the single
// session client: connect, pairing, disconnect classification, reconnect
// scheduling, and routing of inbound events into the message buffer and
// media store.
package session

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"

	"github.com/waforge/gateway-go/internal/credentials"
	apperrors "github.com/waforge/gateway-go/internal/errors"
	"github.com/waforge/gateway-go/internal/media"
	"github.com/waforge/gateway-go/internal/metrics"
	"github.com/waforge/gateway-go/internal/model"
	"github.com/waforge/gateway-go/internal/ring"
	"github.com/waforge/gateway-go/internal/waclient"
)

const loggedOutMessage = "logged out: re-pairing required"

// Config carries the manager's tunables. Delay tiers are policy, not
// protocol: any positive values work.
type Config struct {
	UserDomain   string
	IgnoreGroups bool

	RestartDelay   time.Duration // close with restart-required reason
	TransientDelay time.Duration // recoverable transient close
	FailureDelay   time.Duration // dial/connect failure, avoids a crash loop

	LogoutTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.UserDomain == "" {
		c.UserDomain = "s.whatsapp.net"
	}
	if c.RestartDelay <= 0 {
		c.RestartDelay = time.Second
	}
	if c.TransientDelay <= 0 {
		c.TransientDelay = 4 * time.Second
	}
	if c.FailureDelay <= 0 {
		c.FailureDelay = 10 * time.Second
	}
	if c.LogoutTimeout <= 0 {
		c.LogoutTimeout = 5 * time.Second
	}
}

type clientHandle struct {
	waclient.Client
}

// Manager is a single-owner actor: one run-loop goroutine executes every
// state mutation, fed by a command channel and the active client's event
// channel. Request-surface reads go through the status mutex; Send reads
// the active client from an atomically-swapped handle.
type Manager struct {
	cfg      Config
	dialer   waclient.Dialer
	creds    *credentials.Store
	media    *media.Store
	messages *ring.Buffer

	ctx     context.Context
	cancel  context.CancelFunc
	cmds    chan func()
	stopped chan struct{}

	client atomic.Pointer[clientHandle]

	mu        sync.RWMutex
	status    model.Status
	challenge string

	// Owned by the run loop.
	events <-chan waclient.Event
	gen    uint64
}

func NewManager(
	cfg Config,
	dialer waclient.Dialer,
	creds *credentials.Store,
	mediaStore *media.Store,
	messages *ring.Buffer,
) *Manager {
	cfg.applyDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		cfg:      cfg,
		dialer:   dialer,
		creds:    creds,
		media:    mediaStore,
		messages: messages,
		ctx:      ctx,
		cancel:   cancel,
		cmds:     make(chan func(), 16),
		stopped:  make(chan struct{}),
		status:   model.Status{State: model.StateDisconnected},
	}
	metrics.SetSessionState(model.StateDisconnected)
	go m.run()
	return m
}

func (m *Manager) run() {
	defer close(m.stopped)
	for {
		select {
		case <-m.ctx.Done():
			return
		case cmd := <-m.cmds:
			cmd()
		case ev, ok := <-m.events:
			if !ok {
				m.events = nil
				if m.client.Load() != nil {
					log.Warn().Msg("event stream ended without close event")
					m.handleClosed(waclient.ReasonUnknown)
				}
				continue
			}
			m.handleEvent(ev)
		}
	}
}

// do hands a command to the run loop. Dropped silently after Stop.
func (m *Manager) do(cmd func()) {
	select {
	case m.cmds <- cmd:
	case <-m.ctx.Done():
	}
}

// Start begins a connect attempt. A no-op while an attempt is already in
// flight or the session is connected; this guard is also what makes stale
// reconnect timers harmless.
func (m *Manager) Start() {
	m.do(m.connect)
}

// Stop tears the manager down. Teardown of the active client is
// best-effort: the remote side sees a plain disconnect.
func (m *Manager) Stop() {
	m.cancel()
	if handle := m.client.Swap(nil); handle != nil {
		handle.Terminate()
	}
	select {
	case <-m.stopped:
	case <-time.After(time.Second):
	}
}

// connect runs inside the loop.
func (m *Manager) connect() {
	if state := m.currentState(); state != model.StateDisconnected {
		log.Debug().Str("state", string(state)).Msg("start ignored: session not disconnected")
		return
	}
	m.gen++ // pending reconnect timers are now stale

	if err := m.creds.EnsureDir(); err != nil {
		m.connectFailed(err)
		return
	}

	m.setStatus(model.StateConnecting, "")
	log.Info().Bool("hasCredentials", m.creds.Exists()).Msg("connecting session")

	client, err := m.dialer.Dial(m.creds.Dir())
	if err != nil {
		m.connectFailed(err)
		return
	}

	m.events = client.Events()
	m.client.Store(&clientHandle{client})

	if err := client.Connect(m.ctx); err != nil {
		client.Terminate()
		m.client.Store(nil)
		m.events = nil
		m.connectFailed(err)
	}
}

func (m *Manager) connectFailed(err error) {
	log.Error().Err(err).Msg("session connect failed")
	m.setStatus(model.StateDisconnected, err.Error())
	m.scheduleReconnect(m.cfg.FailureDelay)
}

// scheduleReconnect runs inside the loop. Only the most recently scheduled
// attempt is honored: each schedule bumps the generation and the timer
// re-checks it before acting.
func (m *Manager) scheduleReconnect(delay time.Duration) {
	m.gen++
	gen := m.gen
	metrics.Reconnects.Inc()
	log.Info().Dur("delay", delay).Msg("reconnect scheduled")

	time.AfterFunc(delay, func() {
		m.do(func() {
			if gen != m.gen {
				return
			}
			m.connect()
		})
	})
}

func (m *Manager) handleEvent(ev waclient.Event) {
	switch ev.Kind {
	case waclient.EventPairing:
		m.handlePairing(ev.Challenge)
	case waclient.EventOpen:
		m.handleOpen()
	case waclient.EventClosed:
		m.handleClosed(ev.Reason)
	case waclient.EventCredentials:
		if err := m.creds.Save(ev.Credential.Name, ev.Credential.Data); err != nil {
			log.Error().Err(err).Str("name", ev.Credential.Name).Msg("failed to persist credential update")
		}
	case waclient.EventMessages:
		m.handleInbound(ev.Messages)
	default:
		log.Warn().Int("kind", int(ev.Kind)).Msg("unknown session event")
	}
}

func (m *Manager) handlePairing(challenge string) {
	m.mu.Lock()
	m.challenge = challenge
	m.status.State = model.StateAwaitingPairing
	m.status.PairingPending = true
	m.mu.Unlock()
	metrics.SetSessionState(model.StateAwaitingPairing)
	log.Info().Msg("pairing challenge received; scan to pair")
}

func (m *Manager) handleOpen() {
	now := time.Now()
	m.mu.Lock()
	m.challenge = ""
	m.status = model.Status{
		State:       model.StateConnected,
		ConnectedAt: &now,
	}
	m.mu.Unlock()
	metrics.SetSessionState(model.StateConnected)
	log.Info().Msg("session connected")
}

func (m *Manager) handleClosed(reason waclient.DisconnectReason) {
	if handle := m.client.Swap(nil); handle != nil {
		handle.Terminate()
	}
	m.events = nil
	m.clearChallenge()

	log.Warn().Str("reason", reason.String()).Msg("session closed")

	switch reason {
	case waclient.ReasonLoggedOut:
		m.gen++ // no timer may resurrect a revoked session
		if err := m.creds.Clear(); err != nil {
			log.Error().Err(err).Msg("failed to clear credentials after logout")
		}
		m.setStatus(model.StateDisconnected, loggedOutMessage)
	case waclient.ReasonRestartRequired:
		m.setStatus(model.StateDisconnected, "restart required")
		m.scheduleReconnect(m.cfg.RestartDelay)
	default:
		m.setStatus(model.StateDisconnected, "connection closed: "+reason.String())
		m.scheduleReconnect(m.cfg.TransientDelay)
	}
}

func (m *Manager) handleInbound(batch []waclient.RawMessage) {
	for _, raw := range batch {
		if raw.FromMe {
			continue
		}
		if waclient.IsBroadcastJID(raw.ChatJID) {
			log.Debug().Str("chat", raw.ChatJID).Msg("broadcast message ignored")
			continue
		}
		if m.cfg.IgnoreGroups && waclient.IsGroupJID(raw.ChatJID) {
			log.Debug().Str("chat", raw.ChatJID).Msg("group message ignored")
			continue
		}

		text := waclient.ExtractText(raw)
		contentType := "text/plain"
		var mediaID string
		if raw.Attachment != nil {
			record, err := m.media.Persist(raw.Attachment.Data, raw.Attachment.MimeType, text)
			if err != nil {
				// One bad attachment must not abort the batch.
				log.Warn().Err(err).Str("messageId", raw.ID).Msg("attachment skipped")
			} else {
				mediaID = record.ID
				contentType = record.ContentType
				metrics.MediaPersisted.Inc()
			}
		}
		if text == "" && mediaID == "" {
			log.Debug().Str("messageId", raw.ID).Msg("message without text or media skipped")
			continue
		}

		id := raw.ID
		if id == "" {
			id = ulid.Make().String()
		}
		ts := raw.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}

		m.messages.Append(model.MessageRecord{
			ID:              id,
			ConversationID:  raw.ChatJID,
			Direction:       model.DirectionInbound,
			Text:            text,
			SenderName:      raw.SenderName,
			TimestampMillis: ts.UnixMilli(),
			ContentType:     contentType,
			MediaID:         mediaID,
		})
		metrics.MessagesInbound.Inc()
	}
}

// Send forwards a text payload to the normalized target. Runs on the
// caller's goroutine so a slow transport never blocks event handling.
func (m *Manager) Send(ctx context.Context, target, text string) (string, error) {
	handle := m.client.Load()
	if handle == nil || m.currentState() != model.StateConnected {
		return "", apperrors.NotConnected()
	}

	jid, err := m.NormalizeTarget(target)
	if err != nil {
		return "", err
	}

	remoteID, err := handle.Send(ctx, jid, text)
	if err != nil {
		return "", apperrors.SendFailed(err)
	}
	if remoteID == "" {
		remoteID = ulid.Make().String()
	}

	m.messages.Append(model.MessageRecord{
		ID:              remoteID,
		ConversationID:  jid,
		Direction:       model.DirectionOutbound,
		Text:            text,
		TimestampMillis: time.Now().UnixMilli(),
		ContentType:     "text/plain",
	})
	metrics.MessagesOutbound.Inc()

	log.Info().Str("to", jid).Str("messageId", remoteID).Msg("message sent")
	return remoteID, nil
}

// NormalizeTarget resolves a send target to a routable JID. Already
// qualified addresses pass through; bare inputs are stripped to digits and
// suffixed with the user domain.
func (m *Manager) NormalizeTarget(target string) (string, error) {
	target = strings.TrimSpace(target)
	if strings.ContainsRune(target, '@') {
		return target, nil
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, target)
	if digits == "" {
		return "", apperrors.InvalidTarget(target)
	}
	return digits + "@" + m.cfg.UserDomain, nil
}

// Logout revokes the remote session, wipes credentials, and restarts the
// connect cycle so a fresh pairing challenge is produced. Fire-and-forget;
// progress is observed through GetStatus.
func (m *Manager) Logout() {
	m.do(func() {
		m.gen++
		if handle := m.client.Swap(nil); handle != nil {
			ctx, cancel := context.WithTimeout(m.ctx, m.cfg.LogoutTimeout)
			if err := handle.Logout(ctx); err != nil {
				log.Warn().Err(err).Msg("remote logout failed")
			}
			cancel()
			handle.Terminate()
		}
		m.events = nil
		m.clearChallenge()
		if err := m.creds.Clear(); err != nil {
			log.Error().Err(err).Msg("failed to clear credentials on logout")
		}
		m.setStatus(model.StateDisconnected, "")
		log.Info().Msg("logged out; restarting for fresh pairing")
		m.connect()
	})
}

// ForceReconnect tears down the current client, keeping credentials, and
// schedules a fresh connect. Fire-and-forget.
func (m *Manager) ForceReconnect() {
	m.do(func() {
		if handle := m.client.Swap(nil); handle != nil {
			handle.Terminate()
		}
		m.events = nil
		m.clearChallenge()
		m.setStatus(model.StateDisconnected, "")
		log.Info().Msg("forced reconnect requested")
		m.scheduleReconnect(m.cfg.RestartDelay)
	})
}

// GetStatus returns a consistent snapshot of the session status.
func (m *Manager) GetStatus() model.Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// GetPairingChallenge returns the live challenge, if any. A challenge is
// only present while the session awaits pairing.
func (m *Manager) GetPairingChallenge() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.challenge, m.challenge != ""
}

// RecentMessages returns up to limit records, newest first.
func (m *Manager) RecentMessages(limit int) []model.MessageRecord {
	return m.messages.Recent(limit)
}

// ResolveMedia returns a reader over a stored attachment body together
// with its record.
func (m *Manager) ResolveMedia(id string) (io.ReadCloser, *model.MediaRecord, error) {
	return m.media.Open(id)
}

func (m *Manager) currentState() model.SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.State
}

func (m *Manager) setStatus(state model.SessionState, errMsg string) {
	m.mu.Lock()
	m.status.State = state
	m.status.LastError = errMsg
	m.status.PairingPending = m.challenge != ""
	m.mu.Unlock()
	metrics.SetSessionState(state)
}

func (m *Manager) clearChallenge() {
	m.mu.Lock()
	m.challenge = ""
	m.status.PairingPending = false
	m.mu.Unlock()
}
