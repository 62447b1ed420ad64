package service

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/nwatts/liftlog/internal/apperr"
	"github.com/nwatts/liftlog/internal/cache"
	"github.com/nwatts/liftlog/internal/models"
)

// MessageStore is the slice of persistence the message service needs.
// *database.MessageStore satisfies it.
type MessageStore interface {
	Insert(ctx context.Context, m *models.Message) error
	ListBetween(ctx context.Context, user, counterparty uuid.UUID) ([]models.ChatMessage, error)
	ListInvolving(ctx context.Context, user uuid.UUID) ([]models.Message, error)
}

// ProfileStore bulk-resolves public profile fields for conversation
// summaries and relay payloads. *database.UserStore satisfies it.
type ProfileStore interface {
	Profiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Profile, error)
}

type MessageService struct {
	store    MessageStore
	profiles ProfileStore
	logger   *logrus.Logger

	// rdb is optional; when set, stored messages are also pushed onto the
	// archive queue, best-effort.
	rdb *redis.Client
}

func NewMessageService(store MessageStore, profiles ProfileStore, logger *logrus.Logger, rdb *redis.Client) *MessageService {
	return &MessageService{store: store, profiles: profiles, logger: logger, rdb: rdb}
}

// Send validates and appends one message. The id and timestamp come back
// server-assigned; messages to a receiver with no live connections are still
// persisted and show up in History.
func (s *MessageService) Send(ctx context.Context, sender, receiver uuid.UUID, body string) (*models.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperr.Validation("message text must not be empty")
	}
	if receiver == uuid.Nil {
		return nil, apperr.Validation("receiver_id is required")
	}

	m := &models.Message{
		SenderID:   sender,
		ReceiverID: receiver,
		Body:       body,
	}
	if err := s.store.Insert(ctx, m); err != nil {
		return nil, err
	}

	if s.rdb != nil {
		rec := cache.MessageArchiveRecord{
			MessageID:  m.ID,
			SenderID:   m.SenderID,
			ReceiverID: m.ReceiverID,
			Body:       m.Body,
			SentAt:     m.SentAt,
		}
		if err := cache.PublishMessageArchive(ctx, s.rdb, rec); err != nil {
			s.logger.Warnf("archive publish failed for message %d: %v", m.ID, err)
		}
	}
	return m, nil
}

// History returns every message between user and counterparty, both
// directions, ascending by insertion order. No pagination yet; fine for the
// current UI, a cursor is needed before conversations grow unbounded.
func (s *MessageService) History(ctx context.Context, user, counterparty uuid.UUID) ([]models.ChatMessage, error) {
	return s.store.ListBetween(ctx, user, counterparty)
}

// Conversations derives one summary per counterparty: a bulk fetch of the
// user's messages, a single grouping pass keeping the latest per
// counterparty (insertion order breaks sent_at ties), then one bulk profile
// lookup. Ordered by last message time descending.
func (s *MessageService) Conversations(ctx context.Context, user uuid.UUID) ([]models.Conversation, error) {
	msgs, err := s.store.ListInvolving(ctx, user)
	if err != nil {
		return nil, err
	}

	latest := make(map[uuid.UUID]models.Message)
	for _, m := range msgs {
		other := m.SenderID
		if other == user {
			other = m.ReceiverID
		}
		cur, ok := latest[other]
		if !ok || m.SentAt.After(cur.SentAt) || (m.SentAt.Equal(cur.SentAt) && m.ID > cur.ID) {
			latest[other] = m
		}
	}

	ids := make([]uuid.UUID, 0, len(latest))
	for id := range latest {
		ids = append(ids, id)
	}
	profiles, err := s.profiles.Profiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	convs := make([]models.Conversation, 0, len(latest))
	for other, m := range latest {
		p := profiles[other]
		convs = append(convs, models.Conversation{
			UserID:          other,
			Username:        p.Username,
			AvatarURL:       p.AvatarURL,
			LastMessage:     m.Body,
			LastMessageTime: m.SentAt,
		})
	}
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].LastMessageTime.After(convs[j].LastMessageTime)
	})
	return convs, nil
}

// SenderProfile resolves the display fields attached to relay payloads.
func (s *MessageService) SenderProfile(ctx context.Context, id uuid.UUID) (models.Profile, error) {
	profiles, err := s.profiles.Profiles(ctx, []uuid.UUID{id})
	if err != nil {
		return models.Profile{}, err
	}
	return profiles[id], nil
}
