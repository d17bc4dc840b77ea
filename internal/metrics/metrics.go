// Package metrics exposes the gateway's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/waforge/gateway-go/internal/model"
)

var (
	MessagesInbound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_messages_inbound_total",
		Help: "Inbound messages accepted into the message buffer.",
	})

	MessagesOutbound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_messages_outbound_total",
		Help: "Outbound messages successfully sent.",
	})

	Reconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_reconnects_total",
		Help: "Reconnect attempts scheduled by the lifecycle manager.",
	})

	MediaPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_media_persisted_total",
		Help: "Attachments written to the media store.",
	})

	MediaSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_media_swept_total",
		Help: "Media files removed by the retention sweep.",
	})

	sessionState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gateway_session_state",
		Help: "Current session state (1 for the active state, 0 otherwise).",
	}, []string{"state"})
)

var allStates = []model.SessionState{
	model.StateDisconnected,
	model.StateConnecting,
	model.StateAwaitingPairing,
	model.StateConnected,
}

// SetSessionState marks the given state active on the state gauge.
func SetSessionState(state model.SessionState) {
	for _, s := range allStates {
		v := 0.0
		if s == state {
			v = 1.0
		}
		sessionState.WithLabelValues(string(s)).Set(v)
	}
}
