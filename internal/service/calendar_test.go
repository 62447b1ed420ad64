package service

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nwatts/liftlog/internal/apperr"
	"github.com/nwatts/liftlog/internal/models"
)

type memCalendarStore struct {
	entries            map[uuid.UUID]models.CalendarEntry
	exercisesByWorkout map[uuid.UUID][]models.Exercise
	workoutNames       map[uuid.UUID]string
	sets               map[uuid.UUID]models.SetRecord
}

func newMemCalendarStore() *memCalendarStore {
	return &memCalendarStore{
		entries:            make(map[uuid.UUID]models.CalendarEntry),
		exercisesByWorkout: make(map[uuid.UUID][]models.Exercise),
		workoutNames:       make(map[uuid.UUID]string),
		sets:               make(map[uuid.UUID]models.SetRecord),
	}
}

func (m *memCalendarStore) Insert(ctx context.Context, e *models.CalendarEntry) error {
	e.ID = uuid.New()
	m.entries[e.ID] = *e
	return nil
}

func (m *memCalendarStore) ListByUser(ctx context.Context, user uuid.UUID) ([]models.CalendarEntry, error) {
	var out []models.CalendarEntry
	for _, e := range m.entries {
		if e.UserID == user {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memCalendarStore) EntriesForDate(ctx context.Context, user uuid.UUID, date string) ([]models.DayEntry, error) {
	var out []models.DayEntry
	for _, e := range m.entries {
		if e.UserID == user && e.Date == date {
			out = append(out, models.DayEntry{
				CalendarEntry: e,
				WorkoutName:   m.workoutNames[e.WorkoutID],
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkoutName < out[j].WorkoutName })
	return out, nil
}

func (m *memCalendarStore) ExercisesForWorkouts(ctx context.Context, workoutIDs []uuid.UUID) (map[uuid.UUID][]models.Exercise, error) {
	out := make(map[uuid.UUID][]models.Exercise)
	for _, id := range workoutIDs {
		if exs, ok := m.exercisesByWorkout[id]; ok {
			out[id] = exs
		}
	}
	return out, nil
}

func (m *memCalendarStore) SetsForEntries(ctx context.Context, entryIDs []uuid.UUID) ([]models.SetRecord, error) {
	var out []models.SetRecord
	for _, id := range entryIDs {
		for _, r := range m.sets {
			if r.CalendarEntryID == id {
				out = append(out, r)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SetNumber < out[j].SetNumber })
	return out, nil
}

func (m *memCalendarStore) InsertSet(ctx context.Context, r *models.SetRecord) error {
	r.ID = uuid.New()
	m.sets[r.ID] = *r
	return nil
}

func (m *memCalendarStore) OwnsEntry(ctx context.Context, user, entryID uuid.UUID) (bool, error) {
	e, ok := m.entries[entryID]
	return ok && e.UserID == user, nil
}

func (m *memCalendarStore) OwnsSet(ctx context.Context, user, entryID, setID uuid.UUID) (bool, error) {
	r, ok := m.sets[setID]
	if !ok || r.CalendarEntryID != entryID {
		return false, nil
	}
	return m.OwnsEntry(ctx, user, entryID)
}

func (m *memCalendarStore) UpdateSet(ctx context.Context, setID uuid.UUID, reps int, weight float64, notes string) (*models.SetRecord, error) {
	r, ok := m.sets[setID]
	if !ok {
		return nil, apperr.NotFound("set not found")
	}
	r.Reps = reps
	r.Weight = weight
	r.Notes = notes
	m.sets[setID] = r
	return &r, nil
}

func (m *memCalendarStore) DeleteSet(ctx context.Context, setID uuid.UUID) error {
	delete(m.sets, setID)
	return nil
}

func (m *memCalendarStore) DeleteEntry(ctx context.Context, user, entryID uuid.UUID) error {
	e, ok := m.entries[entryID]
	if !ok || e.UserID != user {
		return nil
	}
	for id, r := range m.sets {
		if r.CalendarEntryID == entryID {
			delete(m.sets, id)
		}
	}
	delete(m.entries, entryID)
	return nil
}

func TestScheduleValidatesDate(t *testing.T) {
	svc := NewCalendarService(newMemCalendarStore())

	_, err := svc.Schedule(context.Background(), uuid.New(), uuid.New(), "06-01-2025")
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	_, err = svc.Schedule(context.Background(), uuid.New(), uuid.Nil, "2025-06-01")
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestScheduleAndList(t *testing.T) {
	store := newMemCalendarStore()
	svc := NewCalendarService(store)
	user := uuid.New()

	e, err := svc.Schedule(context.Background(), user, uuid.New(), "2025-06-01")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, e.ID)

	entries, err := svc.Entries(context.Background(), user)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDayViewNesting(t *testing.T) {
	store := newMemCalendarStore()
	svc := NewCalendarService(store)
	user := uuid.New()
	workout := uuid.New()
	squat := models.Exercise{ID: uuid.New(), Name: "Squat", Category: "legs"}
	bench := models.Exercise{ID: uuid.New(), Name: "Bench Press", Category: "chest"}
	store.workoutNames[workout] = "Leg Day"
	store.exercisesByWorkout[workout] = []models.Exercise{squat, bench}

	entry, err := svc.Schedule(context.Background(), user, workout, "2025-06-01")
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		_, err = svc.AddSet(context.Background(), user, &models.SetRecord{
			CalendarEntryID: entry.ID,
			WorkoutID:       workout,
			ExerciseID:      squat.ID,
			SetNumber:       i,
			Reps:            5,
			Weight:          100,
		})
		require.NoError(t, err)
	}

	day, err := svc.DayView(context.Background(), user, "2025-06-01")
	require.NoError(t, err)
	require.Len(t, day, 1)
	assert.Equal(t, "Leg Day", day[0].WorkoutName)
	require.Len(t, day[0].Exercises, 2)

	assert.Equal(t, "Squat", day[0].Exercises[0].ExerciseName)
	require.Len(t, day[0].Exercises[0].SetsReps, 3)
	assert.Equal(t, 1, day[0].Exercises[0].SetsReps[0].SetNumber)
	assert.Equal(t, 3, day[0].Exercises[0].SetsReps[2].SetNumber)

	// Bench has no sets logged yet; empty, not nil, so it serializes as [].
	assert.NotNil(t, day[0].Exercises[1].SetsReps)
	assert.Empty(t, day[0].Exercises[1].SetsReps)
}

func TestDayViewEmptyDate(t *testing.T) {
	svc := NewCalendarService(newMemCalendarStore())

	day, err := svc.DayView(context.Background(), uuid.New(), "2025-06-01")
	require.NoError(t, err)
	assert.NotNil(t, day)
	assert.Empty(t, day)
}

func TestAddSetRequiresOwnership(t *testing.T) {
	store := newMemCalendarStore()
	svc := NewCalendarService(store)
	owner, intruder := uuid.New(), uuid.New()

	entry, err := svc.Schedule(context.Background(), owner, uuid.New(), "2025-06-01")
	require.NoError(t, err)

	_, err = svc.AddSet(context.Background(), intruder, &models.SetRecord{
		CalendarEntryID: entry.ID,
		SetNumber:       1,
		Reps:            5,
	})
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestAddSetRejectsBadSetNumber(t *testing.T) {
	store := newMemCalendarStore()
	svc := NewCalendarService(store)
	user := uuid.New()

	entry, err := svc.Schedule(context.Background(), user, uuid.New(), "2025-06-01")
	require.NoError(t, err)

	_, err = svc.AddSet(context.Background(), user, &models.SetRecord{
		CalendarEntryID: entry.ID,
		SetNumber:       0,
		Reps:            5,
	})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestUpdateAndDeleteSet(t *testing.T) {
	store := newMemCalendarStore()
	svc := NewCalendarService(store)
	owner, intruder := uuid.New(), uuid.New()

	entry, err := svc.Schedule(context.Background(), owner, uuid.New(), "2025-06-01")
	require.NoError(t, err)
	set, err := svc.AddSet(context.Background(), owner, &models.SetRecord{
		CalendarEntryID: entry.ID,
		SetNumber:       1,
		Reps:            5,
		Weight:          80,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateSet(context.Background(), owner, entry.ID, set.ID, 8, 85, "felt easy")
	require.NoError(t, err)
	assert.Equal(t, 8, updated.Reps)
	assert.Equal(t, 85.0, updated.Weight)
	assert.Equal(t, "felt easy", updated.Notes)

	_, err = svc.UpdateSet(context.Background(), intruder, entry.ID, set.ID, 1, 1, "")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	err = svc.DeleteSet(context.Background(), intruder, entry.ID, set.ID)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
	require.NoError(t, svc.DeleteSet(context.Background(), owner, entry.ID, set.ID))

	sets, err := svc.ListSets(context.Background(), owner, entry.ID)
	require.NoError(t, err)
	assert.Empty(t, sets)
}

// unguardedCalendarStore deletes without checking the caller, like a store
// whose SQL forgot the user scoping. The service must not let a foreign
// entry id through to it.
type unguardedCalendarStore struct {
	*memCalendarStore
	deleteCalls int
}

func (u *unguardedCalendarStore) DeleteEntry(ctx context.Context, user, entryID uuid.UUID) error {
	u.deleteCalls++
	for id, r := range u.sets {
		if r.CalendarEntryID == entryID {
			delete(u.sets, id)
		}
	}
	delete(u.entries, entryID)
	return nil
}

func TestDeleteEntryForeignEntryUntouched(t *testing.T) {
	store := &unguardedCalendarStore{memCalendarStore: newMemCalendarStore()}
	svc := NewCalendarService(store)
	victim, attacker := uuid.New(), uuid.New()

	entry, err := svc.Schedule(context.Background(), victim, uuid.New(), "2025-06-01")
	require.NoError(t, err)
	_, err = svc.AddSet(context.Background(), victim, &models.SetRecord{
		CalendarEntryID: entry.ID,
		SetNumber:       1,
		Reps:            5,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEntry(context.Background(), attacker, entry.ID))

	// Entry and set records survive; the store delete never ran.
	assert.Equal(t, 0, store.deleteCalls)
	entries, err := svc.Entries(context.Background(), victim)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Len(t, store.sets, 1)

	// The owner can still delete.
	require.NoError(t, svc.DeleteEntry(context.Background(), victim, entry.ID))
	assert.Equal(t, 1, store.deleteCalls)
	assert.Empty(t, store.sets)
}

func TestDeleteEntryCascadesAndIsIdempotent(t *testing.T) {
	store := newMemCalendarStore()
	svc := NewCalendarService(store)
	user := uuid.New()

	entry, err := svc.Schedule(context.Background(), user, uuid.New(), "2025-06-01")
	require.NoError(t, err)
	_, err = svc.AddSet(context.Background(), user, &models.SetRecord{
		CalendarEntryID: entry.ID,
		SetNumber:       1,
		Reps:            5,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEntry(context.Background(), user, entry.ID))
	require.NoError(t, svc.DeleteEntry(context.Background(), user, entry.ID))

	entries, err := svc.Entries(context.Background(), user)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, store.sets)
}
