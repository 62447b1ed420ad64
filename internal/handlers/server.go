// Package handlers exposes the HTTP and WebSocket surface. One file per
// feature; every route except signup/login runs behind the auth middleware.
package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nwatts/liftlog/internal/models"
	"github.com/nwatts/liftlog/internal/relay"
	"github.com/nwatts/liftlog/internal/service"
)

// UserStore is the user persistence the handlers need.
// *database.UserStore satisfies it.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.Profile, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, string, error)
}

// WorkoutStore mirrors *database.WorkoutStore.
type WorkoutStore interface {
	ListByUser(ctx context.Context, user uuid.UUID) ([]models.Workout, error)
	Create(ctx context.Context, w *models.Workout) error
	Update(ctx context.Context, user, workoutID uuid.UUID, name, category string) (*models.Workout, error)
	Delete(ctx context.Context, user, workoutID uuid.UUID) (*models.Workout, error)
	Owns(ctx context.Context, user, workoutID uuid.UUID) (bool, error)
}

// ExerciseStore mirrors *database.ExerciseStore.
type ExerciseStore interface {
	ListByUser(ctx context.Context, user uuid.UUID) ([]models.Exercise, error)
	ListByWorkout(ctx context.Context, user, workoutID uuid.UUID) ([]models.Exercise, error)
	Create(ctx context.Context, e *models.Exercise, workoutID uuid.UUID) error
	Update(ctx context.Context, user, exerciseID uuid.UUID, name, description, category string) (*models.Exercise, error)
	Delete(ctx context.Context, user, exerciseID uuid.UUID) (*models.Exercise, error)
	Owns(ctx context.Context, user, exerciseID uuid.UUID) (bool, error)
	Associate(ctx context.Context, workoutID, exerciseID uuid.UUID) error
	AssociateMany(ctx context.Context, user, workoutID uuid.UUID, exerciseIDs []uuid.UUID) error
	ReplaceAssociations(ctx context.Context, user, workoutID uuid.UUID, exerciseIDs []uuid.UUID) error
}

type Server struct {
	Logger    *logrus.Logger
	Users     UserStore
	Workouts  WorkoutStore
	Exercises ExerciseStore
	Friends   *service.FriendService
	Messages  *service.MessageService
	Calendar  *service.CalendarService
	Relay     *relay.Relay
}

// Routes builds the full route table.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// user endpoints
	mux.HandleFunc("POST /users/signup", s.SignupHandler)
	mux.HandleFunc("POST /users/login", s.LoginHandler)
	mux.Handle("GET /users", s.requireAuth(s.ListUsersHandler))
	mux.Handle("GET /users/{username}", s.requireAuth(s.GetUserHandler))

	// friend endpoints
	mux.Handle("GET /friends", s.requireAuth(s.ListFriendsHandler))
	mux.Handle("GET /friends/requests/incoming", s.requireAuth(s.IncomingRequestsHandler))
	mux.Handle("GET /friends/requests/outgoing", s.requireAuth(s.OutgoingRequestsHandler))
	mux.Handle("POST /friends/request", s.requireAuth(s.SendFriendRequestHandler))
	mux.Handle("PUT /friends/respond", s.requireAuth(s.RespondFriendRequestHandler))
	mux.Handle("DELETE /friends", s.requireAuth(s.RemoveFriendHandler))

	// message endpoints
	mux.Handle("GET /messages/conversations", s.requireAuth(s.ConversationsHandler))
	mux.Handle("GET /messages/{counterparty_id}", s.requireAuth(s.MessageHistoryHandler))
	mux.Handle("POST /messages", s.requireAuth(s.SendMessageHandler))

	// workout endpoints
	mux.Handle("GET /workouts", s.requireAuth(s.ListWorkoutsHandler))
	mux.Handle("POST /workouts", s.requireAuth(s.CreateWorkoutHandler))
	mux.Handle("PUT /workouts/{workout_id}", s.requireAuth(s.UpdateWorkoutHandler))
	mux.Handle("DELETE /workouts/{workout_id}", s.requireAuth(s.DeleteWorkoutHandler))

	// exercise endpoints
	mux.Handle("GET /exercises/all", s.requireAuth(s.ListExercisesHandler))
	mux.Handle("GET /exercises", s.requireAuth(s.ListWorkoutExercisesHandler))
	mux.Handle("POST /exercises", s.requireAuth(s.CreateExerciseHandler))
	mux.Handle("POST /exercises/no-workout", s.requireAuth(s.CreateStandaloneExerciseHandler))
	mux.Handle("POST /exercises/add-to-workout", s.requireAuth(s.AddExerciseToWorkoutHandler))
	mux.Handle("POST /exercises/add-existing-exercises", s.requireAuth(s.AddExistingExercisesHandler))
	mux.Handle("PUT /exercises/update-exercises", s.requireAuth(s.ReplaceWorkoutExercisesHandler))
	mux.Handle("PUT /exercises", s.requireAuth(s.UpdateExerciseHandler))
	mux.Handle("DELETE /exercises/{exercise_id}", s.requireAuth(s.DeleteExerciseHandler))

	// calendar endpoints
	mux.Handle("POST /calendar", s.requireAuth(s.ScheduleWorkoutHandler))
	mux.Handle("GET /calendar", s.requireAuth(s.ListCalendarHandler))
	mux.Handle("GET /calendar/{date}", s.requireAuth(s.CalendarDayHandler))
	mux.Handle("DELETE /calendar/{entry_id}", s.requireAuth(s.DeleteCalendarEntryHandler))
	mux.Handle("POST /calendar/{entry_id}/sets-reps", s.requireAuth(s.AddSetHandler))
	mux.Handle("GET /calendar/{entry_id}/sets-reps", s.requireAuth(s.ListSetsHandler))
	mux.Handle("PUT /calendar/{entry_id}/sets/{set_id}", s.requireAuth(s.UpdateSetHandler))
	mux.Handle("DELETE /calendar/{entry_id}/sets/{set_id}", s.requireAuth(s.DeleteSetHandler))

	// chat websocket
	mux.HandleFunc("GET /ws/chat", s.ChatWSHandler)

	return mux
}
