package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/nwatts/liftlog/internal/apperr"
	"github.com/nwatts/liftlog/internal/models"
)

type exerciseRequest struct {
	WorkoutID   uuid.UUID `json:"workout_id"`
	Name        string    `json:"exercise_name"`
	Description string    `json:"description"`
	Category    string    `json:"exercise_category"`
}

type exerciseUpdateRequest struct {
	ExerciseID  uuid.UUID `json:"exercise_id"`
	Name        string    `json:"exercise_name"`
	Description string    `json:"description"`
	Category    string    `json:"exercise_category"`
}

type associateRequest struct {
	WorkoutID  uuid.UUID `json:"workout_id"`
	ExerciseID uuid.UUID `json:"exercise_id"`
}

type replaceAssociationsRequest struct {
	WorkoutID   uuid.UUID   `json:"workout_id"`
	ExerciseIDs []uuid.UUID `json:"exercise_ids"`
}

// ListExercisesHandler returns every exercise the caller has created,
// associated with a workout or not.
func (s *Server) ListExercisesHandler(w http.ResponseWriter, r *http.Request) {
	exercises, err := s.Exercises.ListByUser(r.Context(), principal(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if exercises == nil {
		exercises = []models.Exercise{}
	}
	writeJSON(w, http.StatusOK, exercises)
}

// ListWorkoutExercisesHandler returns the exercises associated with the
// workout given by the workout_id query parameter.
func (s *Server) ListWorkoutExercisesHandler(w http.ResponseWriter, r *http.Request) {
	workoutID, err := uuid.Parse(r.URL.Query().Get("workout_id"))
	if err != nil {
		s.writeError(w, apperr.Validation("invalid workout id"))
		return
	}

	exercises, err := s.Exercises.ListByWorkout(r.Context(), principal(r), workoutID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if exercises == nil {
		exercises = []models.Exercise{}
	}
	writeJSON(w, http.StatusOK, exercises)
}

// CreateExerciseHandler creates an exercise and associates it with the given
// workout in one transaction.
func (s *Server) CreateExerciseHandler(w http.ResponseWriter, r *http.Request) {
	var req exerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperr.Validation("invalid payload"))
		return
	}
	if req.Name == "" {
		s.writeError(w, apperr.Validation("exercise_name is required"))
		return
	}
	if req.WorkoutID == uuid.Nil {
		s.writeError(w, apperr.Validation("workout_id is required"))
		return
	}

	owns, err := s.Workouts.Owns(r.Context(), principal(r), req.WorkoutID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !owns {
		s.writeError(w, apperr.NotFound("workout not found"))
		return
	}

	exercise := models.Exercise{
		UserID:      principal(r),
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
	}
	if err := s.Exercises.Create(r.Context(), &exercise, req.WorkoutID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, exercise)
}

// CreateStandaloneExerciseHandler creates an exercise with no workout
// association.
func (s *Server) CreateStandaloneExerciseHandler(w http.ResponseWriter, r *http.Request) {
	var req exerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperr.Validation("invalid payload"))
		return
	}
	if req.Name == "" {
		s.writeError(w, apperr.Validation("exercise_name is required"))
		return
	}

	exercise := models.Exercise{
		UserID:      principal(r),
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
	}
	if err := s.Exercises.Create(r.Context(), &exercise, uuid.Nil); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, exercise)
}

// AddExerciseToWorkoutHandler associates an existing exercise with a workout.
// Both must belong to the caller. Re-adding an existing association is a
// no-op.
func (s *Server) AddExerciseToWorkoutHandler(w http.ResponseWriter, r *http.Request) {
	var req associateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperr.Validation("invalid payload"))
		return
	}
	if req.WorkoutID == uuid.Nil || req.ExerciseID == uuid.Nil {
		s.writeError(w, apperr.Validation("workout_id and exercise_id are required"))
		return
	}

	owns, err := s.Workouts.Owns(r.Context(), principal(r), req.WorkoutID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !owns {
		s.writeError(w, apperr.NotFound("workout not found"))
		return
	}

	owns, err = s.Exercises.Owns(r.Context(), principal(r), req.ExerciseID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !owns {
		s.writeError(w, apperr.NotFound("exercise not found"))
		return
	}

	if err := s.Exercises.Associate(r.Context(), req.WorkoutID, req.ExerciseID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

// AddExistingExercisesHandler appends a batch of the caller's exercises to a
// workout without touching the existing associations.
func (s *Server) AddExistingExercisesHandler(w http.ResponseWriter, r *http.Request) {
	var req replaceAssociationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperr.Validation("invalid payload"))
		return
	}
	if req.WorkoutID == uuid.Nil {
		s.writeError(w, apperr.Validation("workout_id is required"))
		return
	}
	if len(req.ExerciseIDs) == 0 {
		s.writeError(w, apperr.Validation("exercise_ids must not be empty"))
		return
	}

	owns, err := s.Workouts.Owns(r.Context(), principal(r), req.WorkoutID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !owns {
		s.writeError(w, apperr.NotFound("workout not found"))
		return
	}

	if err := s.Exercises.AssociateMany(r.Context(), principal(r), req.WorkoutID, req.ExerciseIDs); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

// ReplaceWorkoutExercisesHandler replaces a workout's exercise set wholesale.
func (s *Server) ReplaceWorkoutExercisesHandler(w http.ResponseWriter, r *http.Request) {
	var req replaceAssociationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperr.Validation("invalid payload"))
		return
	}
	if req.WorkoutID == uuid.Nil {
		s.writeError(w, apperr.Validation("workout_id is required"))
		return
	}

	owns, err := s.Workouts.Owns(r.Context(), principal(r), req.WorkoutID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !owns {
		s.writeError(w, apperr.NotFound("workout not found"))
		return
	}

	if err := s.Exercises.ReplaceAssociations(r.Context(), principal(r), req.WorkoutID, req.ExerciseIDs); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// UpdateExerciseHandler edits an exercise the caller owns. The id comes from
// the exercise_id query parameter or the body, either works.
func (s *Server) UpdateExerciseHandler(w http.ResponseWriter, r *http.Request) {
	var req exerciseUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperr.Validation("invalid payload"))
		return
	}
	if req.ExerciseID == uuid.Nil {
		if id, err := uuid.Parse(r.URL.Query().Get("exercise_id")); err == nil {
			req.ExerciseID = id
		}
	}
	if req.ExerciseID == uuid.Nil {
		s.writeError(w, apperr.Validation("exercise_id is required"))
		return
	}
	if req.Name == "" {
		s.writeError(w, apperr.Validation("exercise_name is required"))
		return
	}

	exercise, err := s.Exercises.Update(r.Context(), principal(r), req.ExerciseID, req.Name, req.Description, req.Category)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exercise)
}

// DeleteExerciseHandler removes an exercise the caller owns, dropping its
// workout associations and logged sets with it.
func (s *Server) DeleteExerciseHandler(w http.ResponseWriter, r *http.Request) {
	exerciseID, err := uuid.Parse(r.PathValue("exercise_id"))
	if err != nil {
		s.writeError(w, apperr.Validation("invalid exercise id"))
		return
	}

	exercise, err := s.Exercises.Delete(r.Context(), principal(r), exerciseID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exercise)
}
