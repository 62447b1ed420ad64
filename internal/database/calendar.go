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

type CalendarStore struct {
	pool *pgxpool.Pool
}

func NewCalendarStore(pool *pgxpool.Pool) *CalendarStore {
	return &CalendarStore{pool: pool}
}

func (s *CalendarStore) Insert(ctx context.Context, e *models.CalendarEntry) error {
	if e.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate calendar entry id: %w", err)
		}
		e.ID = id
	}
	q := `
		INSERT INTO calendar_entries (calendar_entry_id, user_id, workout_id, workout_date)
		VALUES ($1, $2, $3, $4)
	`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	if _, err := s.pool.Exec(ctx, q, e.ID, e.UserID, e.WorkoutID, e.Date); err != nil {
		return apperr.Store(err)
	}
	return nil
}

func (s *CalendarStore) ListByUser(ctx context.Context, user uuid.UUID) ([]models.CalendarEntry, error) {
	q := `
		SELECT calendar_entry_id, user_id, workout_id, to_char(workout_date, 'YYYY-MM-DD')
		FROM calendar_entries
		WHERE user_id=$1
		ORDER BY workout_date
	`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	rows, err := s.pool.Query(ctx, q, user)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	var es []models.CalendarEntry
	for rows.Next() {
		var e models.CalendarEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.WorkoutID, &e.Date); err != nil {
			return nil, apperr.Store(err)
		}
		es = append(es, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(err)
	}
	return es, nil
}

// EntriesForDate returns the user's entries for a date, joined with the
// workout's display fields. Exercises are left empty for the caller to fill.
func (s *CalendarStore) EntriesForDate(ctx context.Context, user uuid.UUID, date string) ([]models.DayEntry, error) {
	q := `
		SELECT ce.calendar_entry_id, ce.user_id, ce.workout_id,
		       to_char(ce.workout_date, 'YYYY-MM-DD'),
		       w.workout_name, w.workout_category
		FROM calendar_entries ce
		JOIN workouts w ON w.workout_id = ce.workout_id
		WHERE ce.user_id=$1 AND ce.workout_date=$2
		ORDER BY ce.calendar_entry_id
	`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	rows, err := s.pool.Query(ctx, q, user, date)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	var entries []models.DayEntry
	for rows.Next() {
		var e models.DayEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.WorkoutID, &e.Date, &e.WorkoutName, &e.WorkoutCategory); err != nil {
			return nil, apperr.Store(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(err)
	}
	return entries, nil
}

// ExercisesForWorkouts bulk-fetches the exercises attached to a set of
// workouts in one query, keyed by workout id.
func (s *CalendarStore) ExercisesForWorkouts(ctx context.Context, workoutIDs []uuid.UUID) (map[uuid.UUID][]models.Exercise, error) {
	out := make(map[uuid.UUID][]models.Exercise, len(workoutIDs))
	if len(workoutIDs) == 0 {
		return out, nil
	}
	q := `
		SELECT we.workout_id, e.exercise_id, e.user_id, e.exercise_name, e.description, e.exercise_category
		FROM workout_exercises we
		JOIN exercises e ON e.exercise_id = we.exercise_id
		WHERE we.workout_id = ANY($1)
		ORDER BY e.exercise_name
	`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	rows, err := s.pool.Query(ctx, q, workoutIDs)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	for rows.Next() {
		var wid uuid.UUID
		var e models.Exercise
		if err := rows.Scan(&wid, &e.ID, &e.UserID, &e.Name, &e.Description, &e.Category); err != nil {
			return nil, apperr.Store(err)
		}
		out[wid] = append(out[wid], e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(err)
	}
	return out, nil
}

// SetsForEntries bulk-fetches set records for a group of calendar entries,
// ordered by set number.
func (s *CalendarStore) SetsForEntries(ctx context.Context, entryIDs []uuid.UUID) ([]models.SetRecord, error) {
	if len(entryIDs) == 0 {
		return nil, nil
	}
	q := `
		SELECT sets_reps_id, calendar_entry_id, workout_id, exercise_id, set_number, reps, weight, notes
		FROM sets_reps
		WHERE calendar_entry_id = ANY($1)
		ORDER BY set_number
	`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	rows, err := s.pool.Query(ctx, q, entryIDs)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()
	return scanSetRecords(rows)
}

func (s *CalendarStore) InsertSet(ctx context.Context, r *models.SetRecord) error {
	if r.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate set id: %w", err)
		}
		r.ID = id
	}
	q := `
		INSERT INTO sets_reps (sets_reps_id, calendar_entry_id, workout_id, exercise_id, set_number, reps, weight, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	_, err := s.pool.Exec(ctx, q,
		r.ID, r.CalendarEntryID, r.WorkoutID, r.ExerciseID,
		r.SetNumber, r.Reps, r.Weight, r.Notes,
	)
	if err != nil {
		return apperr.Store(err)
	}
	return nil
}

// OwnsEntry reports whether the calendar entry exists and belongs to user.
func (s *CalendarStore) OwnsEntry(ctx context.Context, user, entryID uuid.UUID) (bool, error) {
	q := `SELECT 1 FROM calendar_entries WHERE calendar_entry_id=$1 AND user_id=$2`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	var one int
	err := s.pool.QueryRow(ctx, q, entryID, user).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Store(err)
	}
	return true, nil
}

// OwnsSet reports whether the set belongs to the given entry and the entry
// to the given user.
func (s *CalendarStore) OwnsSet(ctx context.Context, user, entryID, setID uuid.UUID) (bool, error) {
	q := `
		SELECT 1
		FROM sets_reps sr
		JOIN calendar_entries ce ON ce.calendar_entry_id = sr.calendar_entry_id
		WHERE sr.sets_reps_id=$1 AND ce.calendar_entry_id=$2 AND ce.user_id=$3
	`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	var one int
	err := s.pool.QueryRow(ctx, q, setID, entryID, user).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Store(err)
	}
	return true, nil
}

func (s *CalendarStore) UpdateSet(ctx context.Context, setID uuid.UUID, reps int, weight float64, notes string) (*models.SetRecord, error) {
	q := `
		UPDATE sets_reps
		SET reps=$1, weight=$2, notes=$3
		WHERE sets_reps_id=$4
		RETURNING sets_reps_id, calendar_entry_id, workout_id, exercise_id, set_number, reps, weight, notes
	`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	var r models.SetRecord
	err := s.pool.QueryRow(ctx, q, reps, weight, notes, setID).Scan(
		&r.ID, &r.CalendarEntryID, &r.WorkoutID, &r.ExerciseID,
		&r.SetNumber, &r.Reps, &r.Weight, &r.Notes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("set not found")
		}
		return nil, apperr.Store(err)
	}
	return &r, nil
}

func (s *CalendarStore) DeleteSet(ctx context.Context, setID uuid.UUID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	if _, err := s.pool.Exec(ctx, `DELETE FROM sets_reps WHERE sets_reps_id=$1`, setID); err != nil {
		return apperr.Store(err)
	}
	return nil
}

// DeleteEntry removes an entry and its set records in one transaction.
// Deleting an entry that does not exist (or is not the user's) is not an
// error.
func (s *CalendarStore) DeleteEntry(ctx context.Context, user, entryID uuid.UUID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		// sets delete is scoped through the entry's owner so a foreign
		// entry id cannot touch another user's records
		setsQ := `
			DELETE FROM sets_reps
			WHERE calendar_entry_id IN (
				SELECT calendar_entry_id FROM calendar_entries
				WHERE calendar_entry_id=$1 AND user_id=$2
			)
		`
		if _, err := tx.Exec(ctx, setsQ, entryID, user); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM calendar_entries WHERE calendar_entry_id=$1 AND user_id=$2`, entryID, user)
		return err
	})
	if err != nil {
		return apperr.Store(err)
	}
	return nil
}

func scanSetRecords(rows pgx.Rows) ([]models.SetRecord, error) {
	var rs []models.SetRecord
	for rows.Next() {
		var r models.SetRecord
		err := rows.Scan(
			&r.ID, &r.CalendarEntryID, &r.WorkoutID, &r.ExerciseID,
			&r.SetNumber, &r.Reps, &r.Weight, &r.Notes,
		)
		if err != nil {
			return nil, apperr.Store(err)
		}
		rs = append(rs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(err)
	}
	return rs, nil
}
