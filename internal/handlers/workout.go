package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/nwatts/liftlog/internal/apperr"
	"github.com/nwatts/liftlog/internal/models"
)

type workoutRequest struct {
	Name     string `json:"workout_name"`
	Category string `json:"workout_category"`
}

// ListWorkoutsHandler returns every workout owned by the caller.
func (s *Server) ListWorkoutsHandler(w http.ResponseWriter, r *http.Request) {
	workouts, err := s.Workouts.ListByUser(r.Context(), principal(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if workouts == nil {
		workouts = []models.Workout{}
	}
	writeJSON(w, http.StatusOK, workouts)
}

// CreateWorkoutHandler creates a workout owned by the caller.
func (s *Server) CreateWorkoutHandler(w http.ResponseWriter, r *http.Request) {
	var req workoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperr.Validation("invalid payload"))
		return
	}
	if req.Name == "" {
		s.writeError(w, apperr.Validation("workout_name is required"))
		return
	}

	workout := models.Workout{
		UserID:   principal(r),
		Name:     req.Name,
		Category: req.Category,
	}
	if err := s.Workouts.Create(r.Context(), &workout); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, workout)
}

// UpdateWorkoutHandler renames or recategorizes a workout the caller owns.
func (s *Server) UpdateWorkoutHandler(w http.ResponseWriter, r *http.Request) {
	workoutID, err := uuid.Parse(r.PathValue("workout_id"))
	if err != nil {
		s.writeError(w, apperr.Validation("invalid workout id"))
		return
	}

	var req workoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperr.Validation("invalid payload"))
		return
	}
	if req.Name == "" {
		s.writeError(w, apperr.Validation("workout_name is required"))
		return
	}

	workout, err := s.Workouts.Update(r.Context(), principal(r), workoutID, req.Name, req.Category)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

// DeleteWorkoutHandler removes a workout the caller owns along with its
// exercise associations.
func (s *Server) DeleteWorkoutHandler(w http.ResponseWriter, r *http.Request) {
	workoutID, err := uuid.Parse(r.PathValue("workout_id"))
	if err != nil {
		s.writeError(w, apperr.Validation("invalid workout id"))
		return
	}

	workout, err := s.Workouts.Delete(r.Context(), principal(r), workoutID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workout)
}
