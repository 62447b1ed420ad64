// Package service holds the domain rules for relationships, messaging, and
// calendar aggregation, written against narrow store interfaces so the rules
// are testable without a database.
package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/nwatts/liftlog/internal/apperr"
	"github.com/nwatts/liftlog/internal/models"
)

// FriendStore is the slice of persistence the friend service needs.
// *database.FriendStore satisfies it.
type FriendStore interface {
	Get(ctx context.Context, a, b uuid.UUID) (*models.Friend, error)
	Insert(ctx context.Context, f *models.Friend) error
	UpdatePendingStatus(ctx context.Context, a, b, requester uuid.UUID, status string) (*models.Friend, error)
	Delete(ctx context.Context, a, b uuid.UUID) error
	ListEntries(ctx context.Context, user uuid.UUID, status, requesterIs string) ([]models.FriendEntry, error)
}

type FriendService struct {
	store FriendStore
}

func NewFriendService(store FriendStore) *FriendService {
	return &FriendService{store: store}
}

// ListFriends returns every accepted relationship involving user, from
// either direction. An empty result is valid.
func (s *FriendService) ListFriends(ctx context.Context, user uuid.UUID) ([]models.FriendEntry, error) {
	return s.store.ListEntries(ctx, user, models.FriendAccepted, "")
}

// IncomingPending lists pending requests where user is the target.
func (s *FriendService) IncomingPending(ctx context.Context, user uuid.UUID) ([]models.FriendEntry, error) {
	return s.store.ListEntries(ctx, user, models.FriendPending, "counterparty")
}

// OutgoingPending lists pending requests user has sent.
func (s *FriendService) OutgoingPending(ctx context.Context, user uuid.UUID) ([]models.FriendEntry, error) {
	return s.store.ListEntries(ctx, user, models.FriendPending, "user")
}

// SendRequest creates a pending relationship from initiator to target.
// The existence check is a fast path; the store's uniqueness constraint is
// the authoritative guard against a concurrent duplicate.
func (s *FriendService) SendRequest(ctx context.Context, initiator, target uuid.UUID) (*models.Friend, error) {
	if initiator == target {
		return nil, apperr.Validation("cannot send a friend request to yourself")
	}

	if _, err := s.store.Get(ctx, initiator, target); err == nil {
		return nil, apperr.Conflict("relationship already exists")
	} else if !apperr.Is(err, apperr.CodeNotFound) {
		return nil, err
	}

	lo, hi := models.CanonicalPair(initiator, target)
	f := &models.Friend{
		UserLoID:    lo,
		UserHiID:    hi,
		RequesterID: initiator,
		Status:      models.FriendPending,
	}
	if err := s.store.Insert(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Respond accepts or declines the pending request counterparty sent to
// responder. Only the target may respond: the conditional update keys on
// requester=counterparty, so an initiator responding to their own request
// comes back NotFound.
func (s *FriendService) Respond(ctx context.Context, responder, counterparty uuid.UUID, decision string) (*models.Friend, error) {
	if decision != models.FriendAccepted && decision != models.FriendDeclined {
		return nil, apperr.Validation("status must be 'accepted' or 'declined'")
	}
	if responder == counterparty {
		return nil, apperr.Validation("cannot respond to your own request")
	}
	return s.store.UpdatePendingStatus(ctx, responder, counterparty, counterparty, decision)
}

// Remove deletes the relationship between two users regardless of direction
// or status. Removing a relationship that does not exist is not an error.
func (s *FriendService) Remove(ctx context.Context, user, counterparty uuid.UUID) error {
	return s.store.Delete(ctx, user, counterparty)
}
