package models

import "github.com/google/uuid"

type Workout struct {
	ID       uuid.UUID `json:"workout_id"`
	UserID   uuid.UUID `json:"user_id"`
	Name     string    `json:"workout_name"`
	Category string    `json:"workout_category"`
}

type Exercise struct {
	ID          uuid.UUID `json:"exercise_id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"exercise_name"`
	Description string    `json:"description"`
	Category    string    `json:"exercise_category"`
}
