package models

import "github.com/google/uuid"

type CalendarEntry struct {
	ID        uuid.UUID `json:"calendar_entry_id"`
	UserID    uuid.UUID `json:"user_id"`
	WorkoutID uuid.UUID `json:"workout_id"`
	Date      string    `json:"workout_date"` // YYYY-MM-DD
}

type SetRecord struct {
	ID              uuid.UUID `json:"sets_reps_id"`
	CalendarEntryID uuid.UUID `json:"calendar_entry_id"`
	WorkoutID       uuid.UUID `json:"workout_id"`
	ExerciseID      uuid.UUID `json:"exercise_id"`
	SetNumber       int       `json:"set_number"`
	Reps            int       `json:"reps"`
	Weight          float64   `json:"weight"`
	Notes           string    `json:"notes"`
}

// DayEntry is a calendar entry expanded with its workout and the nested
// exercise/set structure the calendar day view renders.
type DayEntry struct {
	CalendarEntry
	WorkoutName     string        `json:"workout_name"`
	WorkoutCategory string        `json:"workout_category"`
	Exercises       []DayExercise `json:"exercises"`
}

type DayExercise struct {
	ExerciseID       uuid.UUID   `json:"exercise_id"`
	ExerciseName     string      `json:"exercise_name"`
	ExerciseCategory string      `json:"exercise_category"`
	SetsReps         []SetRecord `json:"sets_reps"`
}
