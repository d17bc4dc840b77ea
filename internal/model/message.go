package model

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// MessageRecord is a normalized message held by the in-memory buffer.
// Immutable once created.
type MessageRecord struct {
	ID              string    `json:"id"`
	ConversationID  string    `json:"conversationId"`
	Direction       Direction `json:"direction"`
	Text            string    `json:"text,omitempty"`
	SenderName      string    `json:"senderName,omitempty"`
	TimestampMillis int64     `json:"timestamp"`
	ContentType     string    `json:"contentType"`
	MediaID         string    `json:"mediaId,omitempty"`
}
