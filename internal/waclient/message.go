package waclient

import (
	"strings"
	"time"
)

// RawAttachment is an already-downloaded attachment body.
type RawAttachment struct {
	Data     []byte
	MimeType string
}

// RawMessage is one inbound message as delivered by the transport, before
// normalization. Optional text carriers are flattened into named fields so
// extraction is a priority list rather than nested probing.
type RawMessage struct {
	ID         string
	ChatJID    string
	SenderName string
	Timestamp  time.Time
	FromMe     bool

	Conversation    string
	ExtendedText    string
	ImageCaption    string
	VideoCaption    string
	DocumentCaption string

	Attachment *RawAttachment
}

// textExtractors are tried in priority order; the first rule returning a
// non-empty string wins.
var textExtractors = []struct {
	name string
	fn   func(RawMessage) string
}{
	{"conversation", func(m RawMessage) string { return m.Conversation }},
	{"extended_text", func(m RawMessage) string { return m.ExtendedText }},
	{"image_caption", func(m RawMessage) string { return m.ImageCaption }},
	{"video_caption", func(m RawMessage) string { return m.VideoCaption }},
	{"document_caption", func(m RawMessage) string { return m.DocumentCaption }},
}

// ExtractText returns the best-effort text body of a raw message, or ""
// when the message carries no text.
func ExtractText(m RawMessage) string {
	for _, ex := range textExtractors {
		if text := strings.TrimSpace(ex.fn(m)); text != "" {
			return text
		}
	}
	return ""
}

const (
	groupDomain     = "g.us"
	broadcastDomain = "broadcast"
)

func jidDomain(jid string) string {
	if i := strings.LastIndexByte(jid, '@'); i >= 0 {
		return jid[i+1:]
	}
	return ""
}

// IsGroupJID reports whether jid addresses a group chat.
func IsGroupJID(jid string) bool {
	return jidDomain(jid) == groupDomain
}

// IsBroadcastJID reports whether jid addresses a broadcast or status
// channel.
func IsBroadcastJID(jid string) bool {
	return jidDomain(jid) == broadcastDomain
}
