package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is one directed unit of text. Rows are immutable once created;
// ID is assigned by the store and increases with insertion order.
type Message struct {
	ID         int64     `json:"message_id"`
	SenderID   uuid.UUID `json:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	Body       string    `json:"message_text"`
	SentAt     time.Time `json:"sent_at"`
}

// ChatMessage is a stored message decorated with the sender's display
// fields, as delivered over the relay and the history endpoint.
type ChatMessage struct {
	Message
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

// Conversation is the derived per-counterparty rollup: the counterparty's
// profile plus the most recent message exchanged with them.
type Conversation struct {
	UserID          uuid.UUID `json:"user_id"`
	Username        string    `json:"username"`
	AvatarURL       string    `json:"avatar_url"`
	LastMessage     string    `json:"last_message"`
	LastMessageTime time.Time `json:"last_message_time"`
}
