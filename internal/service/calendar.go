package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nwatts/liftlog/internal/apperr"
	"github.com/nwatts/liftlog/internal/models"
)

// CalendarStore is the slice of persistence the calendar service needs.
// *database.CalendarStore satisfies it.
type CalendarStore interface {
	Insert(ctx context.Context, e *models.CalendarEntry) error
	ListByUser(ctx context.Context, user uuid.UUID) ([]models.CalendarEntry, error)
	EntriesForDate(ctx context.Context, user uuid.UUID, date string) ([]models.DayEntry, error)
	ExercisesForWorkouts(ctx context.Context, workoutIDs []uuid.UUID) (map[uuid.UUID][]models.Exercise, error)
	SetsForEntries(ctx context.Context, entryIDs []uuid.UUID) ([]models.SetRecord, error)
	InsertSet(ctx context.Context, r *models.SetRecord) error
	OwnsEntry(ctx context.Context, user, entryID uuid.UUID) (bool, error)
	OwnsSet(ctx context.Context, user, entryID, setID uuid.UUID) (bool, error)
	UpdateSet(ctx context.Context, setID uuid.UUID, reps int, weight float64, notes string) (*models.SetRecord, error)
	DeleteSet(ctx context.Context, setID uuid.UUID) error
	DeleteEntry(ctx context.Context, user, entryID uuid.UUID) error
}

type CalendarService struct {
	store CalendarStore
}

func NewCalendarService(store CalendarStore) *CalendarService {
	return &CalendarService{store: store}
}

// Schedule puts a workout on the user's calendar for a date (YYYY-MM-DD).
func (s *CalendarService) Schedule(ctx context.Context, user, workoutID uuid.UUID, date string) (*models.CalendarEntry, error) {
	if workoutID == uuid.Nil {
		return nil, apperr.Validation("workout_id is required")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, apperr.Validation("workout_date must be YYYY-MM-DD")
	}
	e := &models.CalendarEntry{
		UserID:    user,
		WorkoutID: workoutID,
		Date:      date,
	}
	if err := s.store.Insert(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *CalendarService) Entries(ctx context.Context, user uuid.UUID) ([]models.CalendarEntry, error) {
	return s.store.ListByUser(ctx, user)
}

// DayView builds the nested entry → exercise → set structure for one date
// with three bulk queries and an in-memory grouping pass, instead of one
// query per entry per exercise.
func (s *CalendarService) DayView(ctx context.Context, user uuid.UUID, date string) ([]models.DayEntry, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, apperr.Validation("date must be YYYY-MM-DD")
	}

	entries, err := s.store.EntriesForDate(ctx, user, date)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []models.DayEntry{}, nil
	}

	workoutIDs := make([]uuid.UUID, 0, len(entries))
	entryIDs := make([]uuid.UUID, 0, len(entries))
	seen := make(map[uuid.UUID]bool)
	for _, e := range entries {
		if !seen[e.WorkoutID] {
			seen[e.WorkoutID] = true
			workoutIDs = append(workoutIDs, e.WorkoutID)
		}
		entryIDs = append(entryIDs, e.ID)
	}

	exercisesByWorkout, err := s.store.ExercisesForWorkouts(ctx, workoutIDs)
	if err != nil {
		return nil, err
	}
	sets, err := s.store.SetsForEntries(ctx, entryIDs)
	if err != nil {
		return nil, err
	}

	// sets keyed by (entry, exercise); slices stay in set_number order.
	type setKey struct {
		entry, exercise uuid.UUID
	}
	setsByKey := make(map[setKey][]models.SetRecord)
	for _, r := range sets {
		k := setKey{r.CalendarEntryID, r.ExerciseID}
		setsByKey[k] = append(setsByKey[k], r)
	}

	for i := range entries {
		e := &entries[i]
		e.Exercises = []models.DayExercise{}
		for _, ex := range exercisesByWorkout[e.WorkoutID] {
			de := models.DayExercise{
				ExerciseID:       ex.ID,
				ExerciseName:     ex.Name,
				ExerciseCategory: ex.Category,
				SetsReps:         setsByKey[setKey{e.ID, ex.ID}],
			}
			if de.SetsReps == nil {
				de.SetsReps = []models.SetRecord{}
			}
			e.Exercises = append(e.Exercises, de)
		}
	}
	return entries, nil
}

// AddSet records a set against a calendar entry the user owns.
func (s *CalendarService) AddSet(ctx context.Context, user uuid.UUID, r *models.SetRecord) (*models.SetRecord, error) {
	ok, err := s.store.OwnsEntry(ctx, user, r.CalendarEntryID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("calendar entry not found")
	}
	if r.SetNumber <= 0 {
		return nil, apperr.Validation("set_number must be positive")
	}
	if err := s.store.InsertSet(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// ListSets returns an entry's set records ordered by set number.
func (s *CalendarService) ListSets(ctx context.Context, user, entryID uuid.UUID) ([]models.SetRecord, error) {
	ok, err := s.store.OwnsEntry(ctx, user, entryID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("calendar entry not found")
	}
	return s.store.SetsForEntries(ctx, []uuid.UUID{entryID})
}

// UpdateSet edits a set after verifying it belongs to the user's entry.
func (s *CalendarService) UpdateSet(ctx context.Context, user, entryID, setID uuid.UUID, reps int, weight float64, notes string) (*models.SetRecord, error) {
	ok, err := s.store.OwnsSet(ctx, user, entryID, setID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("set not found")
	}
	return s.store.UpdateSet(ctx, setID, reps, weight, notes)
}

// DeleteSet removes a set after the same ownership check.
func (s *CalendarService) DeleteSet(ctx context.Context, user, entryID, setID uuid.UUID) error {
	ok, err := s.store.OwnsSet(ctx, user, entryID, setID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("set not found")
	}
	return s.store.DeleteSet(ctx, setID)
}

// DeleteEntry removes a calendar entry; idempotent. Entries not owned by
// the caller are treated as already gone so the store is never reached with
// a foreign id.
func (s *CalendarService) DeleteEntry(ctx context.Context, user, entryID uuid.UUID) error {
	ok, err := s.store.OwnsEntry(ctx, user, entryID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return s.store.DeleteEntry(ctx, user, entryID)
}
