package relay

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nwatts/liftlog/internal/models"
)

// MessageSender is the slice of the message service the relay needs.
type MessageSender interface {
	Send(ctx context.Context, sender, receiver uuid.UUID, body string) (*models.Message, error)
	SenderProfile(ctx context.Context, id uuid.UUID) (models.Profile, error)
}

// Event is the inbound frame on the chat socket.
type Event struct {
	Type       string    `json:"type"`
	ReceiverID uuid.UUID `json:"receiver_id,omitempty"`
	Message    string    `json:"message,omitempty"`
}

// Relay wires the hub to the message service: it persists an outbound event
// and fans the stored record out to both parties' live connections.
type Relay struct {
	Hub    *Hub
	sender MessageSender
	logger *logrus.Logger
}

func NewRelay(sender MessageSender, logger *logrus.Logger) *Relay {
	return &Relay{
		Hub:    NewHub(),
		sender: sender,
		logger: logger,
	}
}

// HandleEvent dispatches one decoded frame from an authenticated connection.
func (r *Relay) HandleEvent(ctx context.Context, conn *Conn, raw []byte) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		r.logger.Warnf("relay: invalid json from user %s: %v", conn.UserID, err)
		conn.WriteError("invalid JSON")
		return
	}

	switch ev.Type {
	case "send_message":
		r.handleSendMessage(ctx, conn, ev)
	default:
		r.logger.Warnf("relay: unknown event type %q from user %s", ev.Type, conn.UserID)
		conn.WriteError("unknown event type: " + ev.Type)
	}
}

// handleSendMessage persists the message with the connection's identity as
// sender and broadcasts the stored record to every connection of the
// receiver and the sender. A persistence failure is acked back to the
// originating connection instead of being silently dropped.
func (r *Relay) handleSendMessage(ctx context.Context, conn *Conn, ev Event) {
	m, err := r.sender.Send(ctx, conn.UserID, ev.ReceiverID, ev.Message)
	if err != nil {
		r.logger.Warnf("relay: send from %s to %s failed: %v", conn.UserID, ev.ReceiverID, err)
		conn.WriteError("failed to send message")
		return
	}

	profile, err := r.sender.SenderProfile(ctx, conn.UserID)
	if err != nil {
		// Delivery still proceeds; the client just misses display fields.
		r.logger.Warnf("relay: profile lookup for %s failed: %v", conn.UserID, err)
	}

	payload := map[string]interface{}{
		"type":         "receive_message",
		"message_id":   m.ID,
		"sender_id":    m.SenderID.String(),
		"receiver_id":  m.ReceiverID.String(),
		"message_text": m.Body,
		"sent_at":      m.SentAt,
		"username":     profile.Username,
		"avatar_url":   profile.AvatarURL,
	}

	delivered := r.Hub.Broadcast(m.ReceiverID, payload)
	if m.ReceiverID != m.SenderID {
		delivered += r.Hub.Broadcast(m.SenderID, payload)
	}
	r.logger.Debugf("relay: message %d delivered to %d connection(s)", m.ID, delivered)
}
