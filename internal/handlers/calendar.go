package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/nwatts/liftlog/internal/apperr"
	"github.com/nwatts/liftlog/internal/models"
)

type scheduleRequest struct {
	WorkoutID uuid.UUID `json:"workout_id"`
	Date      string    `json:"workout_date"`
}

type setRequest struct {
	WorkoutID  uuid.UUID `json:"workout_id"`
	ExerciseID uuid.UUID `json:"exercise_id"`
	SetNumber  int       `json:"set_number"`
	Reps       int       `json:"reps"`
	Weight     float64   `json:"weight"`
	Notes      string    `json:"notes"`
}

type setUpdateRequest struct {
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
	Notes  string  `json:"notes"`
}

// ScheduleWorkoutHandler puts a workout on the caller's calendar.
func (s *Server) ScheduleWorkoutHandler(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperr.Validation("invalid payload"))
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

	entry, err := s.Calendar.Schedule(r.Context(), principal(r), req.WorkoutID, req.Date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// ListCalendarHandler returns every calendar entry of the caller.
func (s *Server) ListCalendarHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Calendar.Entries(r.Context(), principal(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if entries == nil {
		entries = []models.CalendarEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// CalendarDayHandler returns the scheduled workouts for one date with their
// exercises and logged sets nested in.
func (s *Server) CalendarDayHandler(w http.ResponseWriter, r *http.Request) {
	day, err := s.Calendar.DayView(r.Context(), principal(r), r.PathValue("date"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

// DeleteCalendarEntryHandler unschedules an entry along with its logged sets.
func (s *Server) DeleteCalendarEntryHandler(w http.ResponseWriter, r *http.Request) {
	entryID, err := uuid.Parse(r.PathValue("entry_id"))
	if err != nil {
		s.writeError(w, apperr.Validation("invalid calendar entry id"))
		return
	}

	if err := s.Calendar.DeleteEntry(r.Context(), principal(r), entryID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// AddSetHandler logs a set against a calendar entry the caller owns.
func (s *Server) AddSetHandler(w http.ResponseWriter, r *http.Request) {
	entryID, err := uuid.Parse(r.PathValue("entry_id"))
	if err != nil {
		s.writeError(w, apperr.Validation("invalid calendar entry id"))
		return
	}

	var req setRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperr.Validation("invalid payload"))
		return
	}

	record := models.SetRecord{
		CalendarEntryID: entryID,
		WorkoutID:       req.WorkoutID,
		ExerciseID:      req.ExerciseID,
		SetNumber:       req.SetNumber,
		Reps:            req.Reps,
		Weight:          req.Weight,
		Notes:           req.Notes,
	}
	created, err := s.Calendar.AddSet(r.Context(), principal(r), &record)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListSetsHandler returns the sets logged against a calendar entry.
func (s *Server) ListSetsHandler(w http.ResponseWriter, r *http.Request) {
	entryID, err := uuid.Parse(r.PathValue("entry_id"))
	if err != nil {
		s.writeError(w, apperr.Validation("invalid calendar entry id"))
		return
	}

	sets, err := s.Calendar.ListSets(r.Context(), principal(r), entryID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if sets == nil {
		sets = []models.SetRecord{}
	}
	writeJSON(w, http.StatusOK, sets)
}

// UpdateSetHandler edits the reps, weight or notes of a logged set.
func (s *Server) UpdateSetHandler(w http.ResponseWriter, r *http.Request) {
	entryID, err := uuid.Parse(r.PathValue("entry_id"))
	if err != nil {
		s.writeError(w, apperr.Validation("invalid calendar entry id"))
		return
	}
	setID, err := uuid.Parse(r.PathValue("set_id"))
	if err != nil {
		s.writeError(w, apperr.Validation("invalid set id"))
		return
	}

	var req setUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperr.Validation("invalid payload"))
		return
	}

	record, err := s.Calendar.UpdateSet(r.Context(), principal(r), entryID, setID, req.Reps, req.Weight, req.Notes)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// DeleteSetHandler removes a logged set.
func (s *Server) DeleteSetHandler(w http.ResponseWriter, r *http.Request) {
	entryID, err := uuid.Parse(r.PathValue("entry_id"))
	if err != nil {
		s.writeError(w, apperr.Validation("invalid calendar entry id"))
		return
	}
	setID, err := uuid.Parse(r.PathValue("set_id"))
	if err != nil {
		s.writeError(w, apperr.Validation("invalid set id"))
		return
	}

	if err := s.Calendar.DeleteSet(r.Context(), principal(r), entryID, setID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
