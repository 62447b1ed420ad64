package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nwatts/liftlog/internal/apperr"
	"github.com/nwatts/liftlog/internal/auth"
	"github.com/nwatts/liftlog/internal/models"
)

type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

const userColumns = `user_id, username, email, password, bio, avatar_url, height, weight, age, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.Password,
		&u.Bio, &u.AvatarURL, &u.Height, &u.Weight, &u.Age, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create hashes the password and inserts the user. A unique violation on
// username or email surfaces as a Conflict error.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate user id: %w", err)
		}
		user.ID = id
	}

	hash, err := auth.CreateHash(user.Password, auth.Params)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = hash

	q := `
		INSERT INTO users (user_id, username, email, password, bio, avatar_url, height, weight, age)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	err = s.pool.QueryRow(ctx, q,
		user.ID, user.Username, user.Email, user.Password,
		user.Bio, user.AvatarURL, user.Height, user.Weight, user.Age,
	).Scan(&user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.Conflict("username or email already exists")
		}
		return apperr.Store(err)
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE user_id=$1`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	u, err := scanUser(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Store(err)
	}
	return u, nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE username=$1`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	u, err := scanUser(s.pool.QueryRow(ctx, q, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Store(err)
	}
	return u, nil
}

func (s *UserStore) List(ctx context.Context) ([]models.Profile, error) {
	q := `SELECT user_id, username, avatar_url FROM users ORDER BY username`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	var ps []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.AvatarURL); err != nil {
			return nil, apperr.Store(err)
		}
		ps = append(ps, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(err)
	}
	return ps, nil
}

// Profiles bulk-fetches public profile fields for a set of user ids.
func (s *UserStore) Profiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Profile, error) {
	out := make(map[uuid.UUID]models.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	q := `SELECT user_id, username, avatar_url FROM users WHERE user_id = ANY($1)`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	rows, err := s.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.AvatarURL); err != nil {
			return nil, apperr.Store(err)
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(err)
	}
	return out, nil
}

// Authenticate verifies the username/password pair and returns a signed JWT.
func (s *UserStore) Authenticate(ctx context.Context, username, password string) (*models.User, string, error) {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, "", apperr.Auth("invalid username or password")
	}

	match, err := auth.ComparePasswordAndHash(password, user.Password)
	if err != nil || !match {
		return nil, "", apperr.Auth("invalid username or password")
	}

	token, err := auth.CreateJWT(user.ID.String())
	if err != nil {
		return nil, "", fmt.Errorf("failed to create jwt: %w", err)
	}
	return user, token, nil
}
