package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nwatts/liftlog/internal/apperr"
	"github.com/nwatts/liftlog/internal/models"
)

// MessageStore is an append-only log of direct messages. Rows are never
// updated or deleted.
type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

// Insert appends a message and fills in the server-assigned id and timestamp.
func (s *MessageStore) Insert(ctx context.Context, m *models.Message) error {
	q := `
		INSERT INTO messages (sender_id, receiver_id, message_text)
		VALUES ($1, $2, $3)
		RETURNING message_id, sent_at
	`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	err := s.pool.QueryRow(ctx, q, m.SenderID, m.ReceiverID, m.Body).Scan(&m.ID, &m.SentAt)
	if err != nil {
		return apperr.Store(err)
	}
	return nil
}

// ListBetween returns every message exchanged between the two users,
// ascending by insertion order, each decorated with the sender's display
// fields.
func (s *MessageStore) ListBetween(ctx context.Context, user, counterparty uuid.UUID) ([]models.ChatMessage, error) {
	q := `
		SELECT m.message_id, m.sender_id, m.receiver_id, m.message_text, m.sent_at,
		       u.username, u.avatar_url
		FROM messages m
		JOIN users u ON u.user_id = m.sender_id
		WHERE (m.sender_id=$1 AND m.receiver_id=$2)
		   OR (m.sender_id=$2 AND m.receiver_id=$1)
		ORDER BY m.sent_at ASC, m.message_id ASC
	`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	rows, err := s.pool.Query(ctx, q, user, counterparty)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()
	return scanChatMessages(rows)
}

// ListInvolving returns every message the user sent or received, ascending
// by insertion order. Feeds the conversation-summary grouping pass.
func (s *MessageStore) ListInvolving(ctx context.Context, user uuid.UUID) ([]models.Message, error) {
	q := `
		SELECT message_id, sender_id, receiver_id, message_text, sent_at
		FROM messages
		WHERE sender_id=$1 OR receiver_id=$1
		ORDER BY sent_at ASC, message_id ASC
	`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	rows, err := s.pool.Query(ctx, q, user)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Body, &m.SentAt); err != nil {
			return nil, apperr.Store(err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(err)
	}
	return msgs, nil
}

func scanChatMessages(rows pgx.Rows) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		err := rows.Scan(
			&m.ID, &m.SenderID, &m.ReceiverID, &m.Body, &m.SentAt,
			&m.Username, &m.AvatarURL,
		)
		if err != nil {
			return nil, apperr.Store(err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(err)
	}
	return msgs, nil
}
