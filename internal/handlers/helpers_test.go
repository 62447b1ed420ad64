package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nwatts/liftlog/internal/apperr"
	"github.com/nwatts/liftlog/internal/auth"
	"github.com/nwatts/liftlog/internal/models"
	"github.com/nwatts/liftlog/internal/relay"
	"github.com/nwatts/liftlog/internal/service"
)

// ---- in-memory stores backing the handler tests ----

type fakeUserStore struct {
	byID map[uuid.UUID]models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: make(map[uuid.UUID]models.User)}
}

func (f *fakeUserStore) Create(ctx context.Context, u *models.User) error {
	for _, existing := range f.byID {
		if existing.Username == u.Username {
			return apperr.Conflict("username or email already taken")
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	f.byID[u.ID] = *u
	return nil
}

func (f *fakeUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range f.byID {
		if u.Username == username {
			cp := u
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (f *fakeUserStore) List(ctx context.Context) ([]models.Profile, error) {
	out := make([]models.Profile, 0, len(f.byID))
	for _, u := range f.byID {
		out = append(out, models.Profile{ID: u.ID, Username: u.Username, AvatarURL: u.AvatarURL})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// The fake stores plaintext passwords; hashing is covered in the auth tests.
func (f *fakeUserStore) Authenticate(ctx context.Context, username, password string) (*models.User, string, error) {
	u, err := f.GetByUsername(ctx, username)
	if err != nil {
		return nil, "", apperr.Auth("invalid credentials")
	}
	if u.Password != password {
		return nil, "", apperr.Auth("invalid credentials")
	}
	token, err := auth.CreateJWT(u.ID.String())
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (f *fakeUserStore) Profiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Profile, error) {
	out := make(map[uuid.UUID]models.Profile, len(ids))
	for _, id := range ids {
		if u, ok := f.byID[id]; ok {
			out[id] = models.Profile{ID: u.ID, Username: u.Username, AvatarURL: u.AvatarURL}
		}
	}
	return out, nil
}

type fakeWorkoutStore struct {
	rows map[uuid.UUID]models.Workout
}

func newFakeWorkoutStore() *fakeWorkoutStore {
	return &fakeWorkoutStore{rows: make(map[uuid.UUID]models.Workout)}
}

func (f *fakeWorkoutStore) ListByUser(ctx context.Context, user uuid.UUID) ([]models.Workout, error) {
	var out []models.Workout
	for _, w := range f.rows {
		if w.UserID == user {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeWorkoutStore) Create(ctx context.Context, w *models.Workout) error {
	w.ID = uuid.New()
	f.rows[w.ID] = *w
	return nil
}

func (f *fakeWorkoutStore) Update(ctx context.Context, user, workoutID uuid.UUID, name, category string) (*models.Workout, error) {
	w, ok := f.rows[workoutID]
	if !ok || w.UserID != user {
		return nil, apperr.NotFound("workout not found")
	}
	w.Name = name
	w.Category = category
	f.rows[workoutID] = w
	return &w, nil
}

func (f *fakeWorkoutStore) Delete(ctx context.Context, user, workoutID uuid.UUID) (*models.Workout, error) {
	w, ok := f.rows[workoutID]
	if !ok || w.UserID != user {
		return nil, apperr.NotFound("workout not found")
	}
	delete(f.rows, workoutID)
	return &w, nil
}

func (f *fakeWorkoutStore) Owns(ctx context.Context, user, workoutID uuid.UUID) (bool, error) {
	w, ok := f.rows[workoutID]
	return ok && w.UserID == user, nil
}

type fakeExerciseStore struct {
	rows  map[uuid.UUID]models.Exercise
	assoc map[uuid.UUID][]uuid.UUID // workout -> exercises
}

func newFakeExerciseStore() *fakeExerciseStore {
	return &fakeExerciseStore{
		rows:  make(map[uuid.UUID]models.Exercise),
		assoc: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (f *fakeExerciseStore) ListByUser(ctx context.Context, user uuid.UUID) ([]models.Exercise, error) {
	var out []models.Exercise
	for _, e := range f.rows {
		if e.UserID == user {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeExerciseStore) ListByWorkout(ctx context.Context, user, workoutID uuid.UUID) ([]models.Exercise, error) {
	var out []models.Exercise
	for _, id := range f.assoc[workoutID] {
		if e, ok := f.rows[id]; ok && e.UserID == user {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeExerciseStore) Create(ctx context.Context, e *models.Exercise, workoutID uuid.UUID) error {
	e.ID = uuid.New()
	f.rows[e.ID] = *e
	if workoutID != uuid.Nil {
		f.assoc[workoutID] = append(f.assoc[workoutID], e.ID)
	}
	return nil
}

func (f *fakeExerciseStore) Update(ctx context.Context, user, exerciseID uuid.UUID, name, description, category string) (*models.Exercise, error) {
	e, ok := f.rows[exerciseID]
	if !ok || e.UserID != user {
		return nil, apperr.NotFound("exercise not found")
	}
	e.Name = name
	e.Description = description
	e.Category = category
	f.rows[exerciseID] = e
	return &e, nil
}

func (f *fakeExerciseStore) Delete(ctx context.Context, user, exerciseID uuid.UUID) (*models.Exercise, error) {
	e, ok := f.rows[exerciseID]
	if !ok || e.UserID != user {
		return nil, apperr.NotFound("exercise not found")
	}
	delete(f.rows, exerciseID)
	for w, ids := range f.assoc {
		kept := ids[:0]
		for _, id := range ids {
			if id != exerciseID {
				kept = append(kept, id)
			}
		}
		f.assoc[w] = kept
	}
	return &e, nil
}

func (f *fakeExerciseStore) Owns(ctx context.Context, user, exerciseID uuid.UUID) (bool, error) {
	e, ok := f.rows[exerciseID]
	return ok && e.UserID == user, nil
}

func (f *fakeExerciseStore) Associate(ctx context.Context, workoutID, exerciseID uuid.UUID) error {
	for _, id := range f.assoc[workoutID] {
		if id == exerciseID {
			return nil
		}
	}
	f.assoc[workoutID] = append(f.assoc[workoutID], exerciseID)
	return nil
}

func (f *fakeExerciseStore) AssociateMany(ctx context.Context, user, workoutID uuid.UUID, exerciseIDs []uuid.UUID) error {
	for _, id := range exerciseIDs {
		if e, ok := f.rows[id]; !ok || e.UserID != user {
			return apperr.NotFound("one or more exercises not found")
		}
	}
	for _, id := range exerciseIDs {
		if err := f.Associate(ctx, workoutID, id); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeExerciseStore) ReplaceAssociations(ctx context.Context, user, workoutID uuid.UUID, exerciseIDs []uuid.UUID) error {
	f.assoc[workoutID] = append([]uuid.UUID(nil), exerciseIDs...)
	return nil
}

type fakeFriendStore struct {
	users *fakeUserStore
	rows  map[[2]uuid.UUID]*models.Friend
}

func newFakeFriendStore(users *fakeUserStore) *fakeFriendStore {
	return &fakeFriendStore{users: users, rows: make(map[[2]uuid.UUID]*models.Friend)}
}

func (f *fakeFriendStore) key(a, b uuid.UUID) [2]uuid.UUID {
	lo, hi := models.CanonicalPair(a, b)
	return [2]uuid.UUID{lo, hi}
}

func (f *fakeFriendStore) Get(ctx context.Context, a, b uuid.UUID) (*models.Friend, error) {
	fr, ok := f.rows[f.key(a, b)]
	if !ok {
		return nil, apperr.NotFound("no relationship found")
	}
	cp := *fr
	return &cp, nil
}

func (f *fakeFriendStore) Insert(ctx context.Context, fr *models.Friend) error {
	k := [2]uuid.UUID{fr.UserLoID, fr.UserHiID}
	if _, ok := f.rows[k]; ok {
		return apperr.Conflict("relationship already exists")
	}
	cp := *fr
	f.rows[k] = &cp
	return nil
}

func (f *fakeFriendStore) UpdatePendingStatus(ctx context.Context, a, b, requester uuid.UUID, status string) (*models.Friend, error) {
	fr, ok := f.rows[f.key(a, b)]
	if !ok || fr.Status != models.FriendPending || fr.RequesterID != requester {
		return nil, apperr.NotFound("no pending friend request found")
	}
	fr.Status = status
	cp := *fr
	return &cp, nil
}

func (f *fakeFriendStore) Delete(ctx context.Context, a, b uuid.UUID) error {
	delete(f.rows, f.key(a, b))
	return nil
}

func (f *fakeFriendStore) ListEntries(ctx context.Context, user uuid.UUID, status, requesterIs string) ([]models.FriendEntry, error) {
	var out []models.FriendEntry
	for _, fr := range f.rows {
		if fr.UserLoID != user && fr.UserHiID != user {
			continue
		}
		if fr.Status != status {
			continue
		}
		switch requesterIs {
		case "user":
			if fr.RequesterID != user {
				continue
			}
		case "counterparty":
			if fr.RequesterID == user {
				continue
			}
		}
		other := fr.Other(user)
		entry := models.FriendEntry{UserID: other, Status: fr.Status}
		if u, ok := f.users.byID[other]; ok {
			entry.Username = u.Username
			entry.AvatarURL = u.AvatarURL
		}
		out = append(out, entry)
	}
	return out, nil
}

type fakeMessageStore struct {
	msgs   []models.Message
	nextID int64
	users  *fakeUserStore
}

func newFakeMessageStore(users *fakeUserStore) *fakeMessageStore {
	return &fakeMessageStore{users: users}
}

func (f *fakeMessageStore) Insert(ctx context.Context, m *models.Message) error {
	f.nextID++
	m.ID = f.nextID
	m.SentAt = time.Now()
	f.msgs = append(f.msgs, *m)
	return nil
}

func (f *fakeMessageStore) ListBetween(ctx context.Context, user, counterparty uuid.UUID) ([]models.ChatMessage, error) {
	var out []models.ChatMessage
	for _, m := range f.msgs {
		if (m.SenderID == user && m.ReceiverID == counterparty) ||
			(m.SenderID == counterparty && m.ReceiverID == user) {
			cm := models.ChatMessage{Message: m}
			if u, ok := f.users.byID[m.SenderID]; ok {
				cm.Username = u.Username
				cm.AvatarURL = u.AvatarURL
			}
			out = append(out, cm)
		}
	}
	return out, nil
}

func (f *fakeMessageStore) ListInvolving(ctx context.Context, user uuid.UUID) ([]models.Message, error) {
	var out []models.Message
	for _, m := range f.msgs {
		if m.SenderID == user || m.ReceiverID == user {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeCalendarStore struct {
	entries map[uuid.UUID]models.CalendarEntry
	sets    map[uuid.UUID]models.SetRecord
}

func newFakeCalendarStore() *fakeCalendarStore {
	return &fakeCalendarStore{
		entries: make(map[uuid.UUID]models.CalendarEntry),
		sets:    make(map[uuid.UUID]models.SetRecord),
	}
}

func (f *fakeCalendarStore) Insert(ctx context.Context, e *models.CalendarEntry) error {
	e.ID = uuid.New()
	f.entries[e.ID] = *e
	return nil
}

func (f *fakeCalendarStore) ListByUser(ctx context.Context, user uuid.UUID) ([]models.CalendarEntry, error) {
	var out []models.CalendarEntry
	for _, e := range f.entries {
		if e.UserID == user {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeCalendarStore) EntriesForDate(ctx context.Context, user uuid.UUID, date string) ([]models.DayEntry, error) {
	var out []models.DayEntry
	for _, e := range f.entries {
		if e.UserID == user && e.Date == date {
			out = append(out, models.DayEntry{CalendarEntry: e})
		}
	}
	return out, nil
}

func (f *fakeCalendarStore) ExercisesForWorkouts(ctx context.Context, workoutIDs []uuid.UUID) (map[uuid.UUID][]models.Exercise, error) {
	return map[uuid.UUID][]models.Exercise{}, nil
}

func (f *fakeCalendarStore) SetsForEntries(ctx context.Context, entryIDs []uuid.UUID) ([]models.SetRecord, error) {
	var out []models.SetRecord
	for _, id := range entryIDs {
		for _, r := range f.sets {
			if r.CalendarEntryID == id {
				out = append(out, r)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SetNumber < out[j].SetNumber })
	return out, nil
}

func (f *fakeCalendarStore) InsertSet(ctx context.Context, r *models.SetRecord) error {
	r.ID = uuid.New()
	f.sets[r.ID] = *r
	return nil
}

func (f *fakeCalendarStore) OwnsEntry(ctx context.Context, user, entryID uuid.UUID) (bool, error) {
	e, ok := f.entries[entryID]
	return ok && e.UserID == user, nil
}

func (f *fakeCalendarStore) OwnsSet(ctx context.Context, user, entryID, setID uuid.UUID) (bool, error) {
	r, ok := f.sets[setID]
	if !ok || r.CalendarEntryID != entryID {
		return false, nil
	}
	return f.OwnsEntry(ctx, user, entryID)
}

func (f *fakeCalendarStore) UpdateSet(ctx context.Context, setID uuid.UUID, reps int, weight float64, notes string) (*models.SetRecord, error) {
	r, ok := f.sets[setID]
	if !ok {
		return nil, apperr.NotFound("set not found")
	}
	r.Reps = reps
	r.Weight = weight
	r.Notes = notes
	f.sets[setID] = r
	return &r, nil
}

func (f *fakeCalendarStore) DeleteSet(ctx context.Context, setID uuid.UUID) error {
	delete(f.sets, setID)
	return nil
}

func (f *fakeCalendarStore) DeleteEntry(ctx context.Context, user, entryID uuid.UUID) error {
	e, ok := f.entries[entryID]
	if !ok || e.UserID != user {
		return nil
	}
	for id, r := range f.sets {
		if r.CalendarEntryID == entryID {
			delete(f.sets, id)
		}
	}
	delete(f.entries, entryID)
	return nil
}

// ---- server + request helpers ----

type testEnv struct {
	srv   *Server
	mux   *http.ServeMux
	users *fakeUserStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	auth.Init()

	logger := logrus.New()
	users := newFakeUserStore()
	messages := service.NewMessageService(newFakeMessageStore(users), users, logger, nil)

	srv := &Server{
		Logger:    logger,
		Users:     users,
		Workouts:  newFakeWorkoutStore(),
		Exercises: newFakeExerciseStore(),
		Friends:   service.NewFriendService(newFakeFriendStore(users)),
		Messages:  messages,
		Calendar:  service.NewCalendarService(newFakeCalendarStore()),
		Relay:     relay.NewRelay(messages, logger),
	}
	return &testEnv{srv: srv, mux: srv.Routes(), users: users}
}

// createTestUser registers a user directly in the fake store.
func (e *testEnv) createTestUser(t *testing.T, username string) models.User {
	t.Helper()
	u := models.User{Username: username, Email: username + "@example.com", Password: "password"}
	if err := e.users.Create(context.Background(), &u); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return u
}

// do issues a request through the full route table with the given user's
// cookie attached.
func (e *testEnv) do(t *testing.T, user *models.User, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if user != nil {
		token, err := auth.CreateJWT(user.ID.String())
		if err != nil {
			t.Fatalf("CreateJWT failed: %v", err)
		}
		req.Header.Set("Cookie", "auth_token="+token)
	}
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, req)
	return w
}
