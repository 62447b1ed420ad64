package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nwatts/liftlog/internal/apperr"
	"github.com/nwatts/liftlog/internal/models"
)

// FriendStore persists relationship rows. Pairs are stored in canonical
// order, so every lookup is a single primary-key hit; the UNIQUE constraint
// on (user_lo_id, user_hi_id) is the authoritative duplicate guard.
type FriendStore struct {
	pool *pgxpool.Pool
}

func NewFriendStore(pool *pgxpool.Pool) *FriendStore {
	return &FriendStore{pool: pool}
}

func (s *FriendStore) Get(ctx context.Context, a, b uuid.UUID) (*models.Friend, error) {
	lo, hi := models.CanonicalPair(a, b)
	q := `
		SELECT user_lo_id, user_hi_id, requester_id, status, updated_at
		FROM friends
		WHERE user_lo_id=$1 AND user_hi_id=$2
	`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	var f models.Friend
	err := s.pool.QueryRow(ctx, q, lo, hi).Scan(
		&f.UserLoID, &f.UserHiID, &f.RequesterID, &f.Status, &f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("no relationship between users")
		}
		return nil, apperr.Store(err)
	}
	return &f, nil
}

func (s *FriendStore) Insert(ctx context.Context, f *models.Friend) error {
	q := `
		INSERT INTO friends (user_lo_id, user_hi_id, requester_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING updated_at
	`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	err := s.pool.QueryRow(ctx, q, f.UserLoID, f.UserHiID, f.RequesterID, f.Status).Scan(&f.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.Conflict("relationship already exists")
		}
		return apperr.Store(err)
	}
	return nil
}

// UpdatePendingStatus flips a pending row to the given status, but only if
// requester matches; returns NotFound if no such pending row exists.
func (s *FriendStore) UpdatePendingStatus(ctx context.Context, a, b, requester uuid.UUID, status string) (*models.Friend, error) {
	lo, hi := models.CanonicalPair(a, b)
	q := `
		UPDATE friends
		SET status=$4, updated_at=NOW()
		WHERE user_lo_id=$1 AND user_hi_id=$2 AND requester_id=$3 AND status='pending'
		RETURNING user_lo_id, user_hi_id, requester_id, status, updated_at
	`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	var f models.Friend
	err := s.pool.QueryRow(ctx, q, lo, hi, requester, status).Scan(
		&f.UserLoID, &f.UserHiID, &f.RequesterID, &f.Status, &f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("no pending friend request found")
		}
		return nil, apperr.Store(err)
	}
	return &f, nil
}

// Delete removes the relationship between two users. Deleting a missing row
// is not an error.
func (s *FriendStore) Delete(ctx context.Context, a, b uuid.UUID) error {
	lo, hi := models.CanonicalPair(a, b)
	q := `DELETE FROM friends WHERE user_lo_id=$1 AND user_hi_id=$2`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	if _, err := s.pool.Exec(ctx, q, lo, hi); err != nil {
		return apperr.Store(err)
	}
	return nil
}

// ListEntries returns the counterparty profile + status for every
// relationship involving user with the given status. requesterIs filters on
// who sent the request: user, the counterparty, or either (empty).
func (s *FriendStore) ListEntries(ctx context.Context, user uuid.UUID, status, requesterIs string) ([]models.FriendEntry, error) {
	q := `
		SELECT u.user_id, u.username, u.avatar_url, f.status
		FROM friends f
		JOIN users u ON u.user_id = CASE WHEN f.user_lo_id=$1 THEN f.user_hi_id ELSE f.user_lo_id END
		WHERE (f.user_lo_id=$1 OR f.user_hi_id=$1) AND f.status=$2
	`
	switch requesterIs {
	case "user":
		q += ` AND f.requester_id=$1`
	case "counterparty":
		q += ` AND f.requester_id<>$1`
	}
	q += ` ORDER BY u.username`

	ctx, cancel := withTimeout(ctx)
	defer cancel()
	rows, err := s.pool.Query(ctx, q, user, status)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	var entries []models.FriendEntry
	for rows.Next() {
		var e models.FriendEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.AvatarURL, &e.Status); err != nil {
			return nil, apperr.Store(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(err)
	}
	return entries, nil
}
