package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/nwatts/liftlog/internal/models"
)

func TestCalendarScheduleAndSets(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createTestUser(t, "alice")

	w := env.do(t, &alice, "POST", "/workouts", `{"workout_name":"Leg Day"}`)
	var workout models.Workout
	if err := json.Unmarshal(w.Body.Bytes(), &workout); err != nil {
		t.Fatalf("failed to decode workout: %v", err)
	}

	w = env.do(t, &alice, "POST", "/calendar",
		`{"workout_id":"`+workout.ID.String()+`","workout_date":"2025-06-01"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 created, got %d, body=%s", w.Code, w.Body.String())
	}
	var entry models.CalendarEntry
	if err := json.Unmarshal(w.Body.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode entry: %v", err)
	}
	if entry.ID == uuid.Nil || entry.Date != "2025-06-01" {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	// malformed date rejected
	w = env.do(t, &alice, "POST", "/calendar",
		`{"workout_id":"`+workout.ID.String()+`","workout_date":"06/01/2025"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", w.Code)
	}

	// log a couple of sets
	base := "/calendar/" + entry.ID.String()
	for i := 1; i <= 2; i++ {
		w = env.do(t, &alice, "POST", base+"/sets-reps",
			fmt.Sprintf(`{"workout_id":"%s","exercise_id":"%s","set_number":%d,"reps":5,"weight":100}`,
				workout.ID, uuid.New(), i))
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201 created for set %d, got %d, body=%s", i, w.Code, w.Body.String())
		}
	}

	w = env.do(t, &alice, "GET", base+"/sets-reps", "")
	var sets []models.SetRecord
	if err := json.Unmarshal(w.Body.Bytes(), &sets); err != nil {
		t.Fatalf("failed to decode sets: %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("expected 2 sets, got %d", len(sets))
	}

	// edit the first set
	w = env.do(t, &alice, "PUT", base+"/sets/"+sets[0].ID.String(),
		`{"reps":8,"weight":95,"notes":"drop set"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 ok, got %d, body=%s", w.Code, w.Body.String())
	}
	var updated models.SetRecord
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("failed to decode set: %v", err)
	}
	if updated.Reps != 8 || updated.Notes != "drop set" {
		t.Fatalf("unexpected updated set: %+v", updated)
	}

	// delete a set, then the entry
	w = env.do(t, &alice, "DELETE", base+"/sets/"+sets[1].ID.String(), "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 ok, got %d", w.Code)
	}
	w = env.do(t, &alice, "DELETE", base, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 ok, got %d", w.Code)
	}
	w = env.do(t, &alice, "GET", "/calendar", "")
	var entries []models.CalendarEntry
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatalf("failed to decode entries: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty calendar, got %d entries", len(entries))
	}
}

func TestCalendarSetOwnership(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createTestUser(t, "alice")
	bob := env.createTestUser(t, "bob")

	w := env.do(t, &alice, "POST", "/workouts", `{"workout_name":"Leg Day"}`)
	var workout models.Workout
	if err := json.Unmarshal(w.Body.Bytes(), &workout); err != nil {
		t.Fatalf("failed to decode workout: %v", err)
	}
	w = env.do(t, &alice, "POST", "/calendar",
		`{"workout_id":"`+workout.ID.String()+`","workout_date":"2025-06-01"}`)
	var entry models.CalendarEntry
	if err := json.Unmarshal(w.Body.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode entry: %v", err)
	}

	w = env.do(t, &bob, "POST", "/calendar/"+entry.ID.String()+"/sets-reps",
		`{"set_number":1,"reps":5}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign entry, got %d", w.Code)
	}
}
