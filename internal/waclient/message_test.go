package waclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name     string
		message  RawMessage
		expected string
	}{
		{"plain body wins", RawMessage{Conversation: "hello", ExtendedText: "ignored"}, "hello"},
		{"extended text when no body", RawMessage{ExtendedText: "linked text"}, "linked text"},
		{"image caption", RawMessage{ImageCaption: "look at this"}, "look at this"},
		{"video caption", RawMessage{VideoCaption: "clip"}, "clip"},
		{"document caption", RawMessage{DocumentCaption: "report.pdf"}, "report.pdf"},
		{"priority order skips empty fields", RawMessage{Conversation: "  ", ImageCaption: "caption"}, "caption"},
		{"whitespace trimmed", RawMessage{Conversation: "  hi  "}, "hi"},
		{"no text", RawMessage{}, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ExtractText(tc.message))
		})
	}
}

func TestJIDHelpers(t *testing.T) {
	t.Run("group jid", func(t *testing.T) {
		assert.True(t, IsGroupJID("123456789-987654@g.us"))
		assert.False(t, IsGroupJID("5511999999999@s.whatsapp.net"))
		assert.False(t, IsGroupJID("no-domain"))
	})

	t.Run("broadcast jid", func(t *testing.T) {
		assert.True(t, IsBroadcastJID("status@broadcast"))
		assert.True(t, IsBroadcastJID("123@broadcast"))
		assert.False(t, IsBroadcastJID("5511999999999@s.whatsapp.net"))
	})
}

func TestDisconnectReasonString(t *testing.T) {
	assert.Equal(t, "logged_out", ReasonLoggedOut.String())
	assert.Equal(t, "restart_required", ReasonRestartRequired.String())
	assert.Equal(t, "connection_lost", ReasonConnectionLost.String())
	assert.Equal(t, "unknown", ReasonUnknown.String())
	assert.Equal(t, "unknown", DisconnectReason(99).String())
}
