package models

import (
	"time"

	"github.com/google/uuid"
)

// Friend relationship statuses.
const (
	FriendPending  = "pending"
	FriendAccepted = "accepted"
	FriendDeclined = "declined"
)

// Friend is a single relationship row. The pair is stored in canonical order
// (UserLoID < UserHiID byte-wise) so a lookup never has to check both
// directions; RequesterID preserves who sent the request.
type Friend struct {
	UserLoID    uuid.UUID `json:"user_lo_id"`
	UserHiID    uuid.UUID `json:"user_hi_id"`
	RequesterID uuid.UUID `json:"requester_id"`
	Status      string    `json:"status"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CanonicalPair orders two user ids into (lo, hi).
func CanonicalPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if isLess(b, a) {
		return b, a
	}
	return a, b
}

func isLess(a, b uuid.UUID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Other returns the counterparty of user in the relationship.
func (f *Friend) Other(user uuid.UUID) uuid.UUID {
	if f.UserLoID == user {
		return f.UserHiID
	}
	return f.UserLoID
}

// FriendEntry is a relationship joined with the counterparty's public
// profile, as returned by the list endpoints.
type FriendEntry struct {
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatar_url"`
	Status    string    `json:"status"`
}
