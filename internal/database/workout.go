package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nwatts/liftlog/internal/apperr"
	"github.com/nwatts/liftlog/internal/models"
)

type WorkoutStore struct {
	pool *pgxpool.Pool
}

func NewWorkoutStore(pool *pgxpool.Pool) *WorkoutStore {
	return &WorkoutStore{pool: pool}
}

func (s *WorkoutStore) ListByUser(ctx context.Context, user uuid.UUID) ([]models.Workout, error) {
	q := `
		SELECT workout_id, user_id, workout_name, workout_category
		FROM workouts
		WHERE user_id=$1
		ORDER BY workout_name
	`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	rows, err := s.pool.Query(ctx, q, user)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	var ws []models.Workout
	for rows.Next() {
		var w models.Workout
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.Category); err != nil {
			return nil, apperr.Store(err)
		}
		ws = append(ws, w)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(err)
	}
	return ws, nil
}

func (s *WorkoutStore) Create(ctx context.Context, w *models.Workout) error {
	if w.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate workout id: %w", err)
		}
		w.ID = id
	}
	q := `
		INSERT INTO workouts (workout_id, user_id, workout_name, workout_category)
		VALUES ($1, $2, $3, $4)
	`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	if _, err := s.pool.Exec(ctx, q, w.ID, w.UserID, w.Name, w.Category); err != nil {
		return apperr.Store(err)
	}
	return nil
}

// Update renames/recategorizes a workout owned by user.
func (s *WorkoutStore) Update(ctx context.Context, user, workoutID uuid.UUID, name, category string) (*models.Workout, error) {
	q := `
		UPDATE workouts
		SET workout_name=$1, workout_category=$2
		WHERE workout_id=$3 AND user_id=$4
		RETURNING workout_id, user_id, workout_name, workout_category
	`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	var w models.Workout
	err := s.pool.QueryRow(ctx, q, name, category, workoutID, user).Scan(&w.ID, &w.UserID, &w.Name, &w.Category)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("workout not found")
		}
		return nil, apperr.Store(err)
	}
	return &w, nil
}

// Delete removes a workout and its exercise associations in one transaction.
func (s *WorkoutStore) Delete(ctx context.Context, user, workoutID uuid.UUID) (*models.Workout, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	var w models.Workout
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM workout_exercises WHERE workout_id=$1`, workoutID); err != nil {
			return err
		}
		q := `
			DELETE FROM workouts
			WHERE workout_id=$1 AND user_id=$2
			RETURNING workout_id, user_id, workout_name, workout_category
		`
		return tx.QueryRow(ctx, q, workoutID, user).Scan(&w.ID, &w.UserID, &w.Name, &w.Category)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("workout not found")
		}
		return nil, apperr.Store(err)
	}
	return &w, nil
}

// Owns reports whether the workout exists and belongs to user.
func (s *WorkoutStore) Owns(ctx context.Context, user, workoutID uuid.UUID) (bool, error) {
	q := `SELECT 1 FROM workouts WHERE workout_id=$1 AND user_id=$2`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	var one int
	err := s.pool.QueryRow(ctx, q, workoutID, user).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Store(err)
	}
	return true, nil
}
