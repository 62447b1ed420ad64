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

type ExerciseStore struct {
	pool *pgxpool.Pool
}

func NewExerciseStore(pool *pgxpool.Pool) *ExerciseStore {
	return &ExerciseStore{pool: pool}
}

const exerciseColumns = `exercise_id, user_id, exercise_name, description, exercise_category`

func (s *ExerciseStore) ListByUser(ctx context.Context, user uuid.UUID) ([]models.Exercise, error) {
	q := `SELECT ` + exerciseColumns + ` FROM exercises WHERE user_id=$1 ORDER BY exercise_name`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	rows, err := s.pool.Query(ctx, q, user)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()
	return scanExercises(rows)
}

// ListByWorkout returns the exercises associated with a workout, verifying
// workout ownership in the same query.
func (s *ExerciseStore) ListByWorkout(ctx context.Context, user, workoutID uuid.UUID) ([]models.Exercise, error) {
	q := `
		SELECT e.exercise_id, e.user_id, e.exercise_name, e.description, e.exercise_category
		FROM exercises e
		JOIN workout_exercises we ON we.exercise_id = e.exercise_id
		JOIN workouts w ON w.workout_id = we.workout_id
		WHERE w.workout_id=$1 AND w.user_id=$2
		ORDER BY e.exercise_name
	`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	rows, err := s.pool.Query(ctx, q, workoutID, user)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()
	return scanExercises(rows)
}

// Create inserts an exercise, optionally associating it with a workout in
// the same transaction.
func (s *ExerciseStore) Create(ctx context.Context, e *models.Exercise, workoutID uuid.UUID) error {
	if e.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate exercise id: %w", err)
		}
		e.ID = id
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO exercises (exercise_id, user_id, exercise_name, description, exercise_category)
			VALUES ($1, $2, $3, $4, $5)
		`
		if _, err := tx.Exec(ctx, q, e.ID, e.UserID, e.Name, e.Description, e.Category); err != nil {
			return err
		}
		if workoutID != uuid.Nil {
			assoc := `INSERT INTO workout_exercises (workout_id, exercise_id) VALUES ($1, $2)`
			if _, err := tx.Exec(ctx, assoc, workoutID, e.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperr.Store(err)
	}
	return nil
}

func (s *ExerciseStore) Update(ctx context.Context, user, exerciseID uuid.UUID, name, description, category string) (*models.Exercise, error) {
	q := `
		UPDATE exercises
		SET exercise_name=$1, description=$2, exercise_category=$3
		WHERE exercise_id=$4 AND user_id=$5
		RETURNING ` + exerciseColumns
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	var e models.Exercise
	err := s.pool.QueryRow(ctx, q, name, description, category, exerciseID, user).
		Scan(&e.ID, &e.UserID, &e.Name, &e.Description, &e.Category)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("exercise not found")
		}
		return nil, apperr.Store(err)
	}
	return &e, nil
}

// Delete removes an exercise and its workout associations in one transaction.
func (s *ExerciseStore) Delete(ctx context.Context, user, exerciseID uuid.UUID) (*models.Exercise, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	var e models.Exercise
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM workout_exercises WHERE exercise_id=$1`, exerciseID); err != nil {
			return err
		}
		q := `
			DELETE FROM exercises
			WHERE exercise_id=$1 AND user_id=$2
			RETURNING ` + exerciseColumns
		return tx.QueryRow(ctx, q, exerciseID, user).Scan(&e.ID, &e.UserID, &e.Name, &e.Description, &e.Category)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("exercise not found")
		}
		return nil, apperr.Store(err)
	}
	return &e, nil
}

// Owns reports whether the exercise exists and belongs to user.
func (s *ExerciseStore) Owns(ctx context.Context, user, exerciseID uuid.UUID) (bool, error) {
	q := `SELECT 1 FROM exercises WHERE exercise_id=$1 AND user_id=$2`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	var one int
	err := s.pool.QueryRow(ctx, q, exerciseID, user).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Store(err)
	}
	return true, nil
}

// Associate links an existing exercise to a workout.
func (s *ExerciseStore) Associate(ctx context.Context, workoutID, exerciseID uuid.UUID) error {
	q := `
		INSERT INTO workout_exercises (workout_id, exercise_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	if _, err := s.pool.Exec(ctx, q, workoutID, exerciseID); err != nil {
		return apperr.Store(err)
	}
	return nil
}

// ReplaceAssociations swaps a workout's exercise set for the given ids,
// verifying every id belongs to user, all inside one transaction so a
// AssociateMany appends a batch of existing exercises to a workout in one
// transaction. Already-associated exercises are skipped. Both the workout
// and every exercise must belong to the user.
func (s *ExerciseStore) AssociateMany(ctx context.Context, user, workoutID uuid.UUID, exerciseIDs []uuid.UUID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var ownsWorkout bool
		workoutQ := `SELECT EXISTS (SELECT 1 FROM workouts WHERE workout_id=$1 AND user_id=$2)`
		if err := tx.QueryRow(ctx, workoutQ, workoutID, user).Scan(&ownsWorkout); err != nil {
			return err
		}
		if !ownsWorkout {
			return apperr.NotFound("workout not found")
		}
		var owned int
		countQ := `SELECT COUNT(*) FROM exercises WHERE exercise_id = ANY($1) AND user_id=$2`
		if err := tx.QueryRow(ctx, countQ, exerciseIDs, user).Scan(&owned); err != nil {
			return err
		}
		if owned != len(exerciseIDs) {
			return pgx.ErrNoRows
		}
		for _, eid := range exerciseIDs {
			assoc := `
				INSERT INTO workout_exercises (workout_id, exercise_id)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING
			`
			if _, err := tx.Exec(ctx, assoc, workoutID, eid); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("one or more exercises not found")
		}
		if apperr.Is(err, apperr.CodeNotFound) {
			return err
		}
		return apperr.Store(err)
	}
	return nil
}

// partial failure cannot leave the workout half-updated.
func (s *ExerciseStore) ReplaceAssociations(ctx context.Context, user, workoutID uuid.UUID, exerciseIDs []uuid.UUID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var ownsWorkout bool
		workoutQ := `SELECT EXISTS (SELECT 1 FROM workouts WHERE workout_id=$1 AND user_id=$2)`
		if err := tx.QueryRow(ctx, workoutQ, workoutID, user).Scan(&ownsWorkout); err != nil {
			return err
		}
		if !ownsWorkout {
			return apperr.NotFound("workout not found")
		}
		var owned int
		countQ := `SELECT COUNT(*) FROM exercises WHERE exercise_id = ANY($1) AND user_id=$2`
		if err := tx.QueryRow(ctx, countQ, exerciseIDs, user).Scan(&owned); err != nil {
			return err
		}
		if owned != len(exerciseIDs) {
			return pgx.ErrNoRows
		}
		if _, err := tx.Exec(ctx, `DELETE FROM workout_exercises WHERE workout_id=$1`, workoutID); err != nil {
			return err
		}
		for _, eid := range exerciseIDs {
			assoc := `INSERT INTO workout_exercises (workout_id, exercise_id) VALUES ($1, $2)`
			if _, err := tx.Exec(ctx, assoc, workoutID, eid); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("one or more exercises not found")
		}
		if apperr.Is(err, apperr.CodeNotFound) {
			return err
		}
		return apperr.Store(err)
	}
	return nil
}

func scanExercises(rows pgx.Rows) ([]models.Exercise, error) {
	var es []models.Exercise
	for rows.Next() {
		var e models.Exercise
		if err := rows.Scan(&e.ID, &e.UserID, &e.Name, &e.Description, &e.Category); err != nil {
			return nil, apperr.Store(err)
		}
		es = append(es, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(err)
	}
	return es, nil
}
