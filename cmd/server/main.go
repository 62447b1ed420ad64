// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/nwatts/liftlog/internal/auth"
	"github.com/nwatts/liftlog/internal/cache"
	"github.com/nwatts/liftlog/internal/database"
	"github.com/nwatts/liftlog/internal/handlers"
	"github.com/nwatts/liftlog/internal/middleware"
	"github.com/nwatts/liftlog/internal/relay"
	"github.com/nwatts/liftlog/internal/service"
)

func main() {
	auth.Init()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	pool, err := database.Connect(context.Background())
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	// Redis is optional. Without it messages still persist to postgres;
	// only the archive queue goes dark.
	rdb, err := cache.Connect()
	if err != nil {
		logger.Warnf("redis unavailable, message archiving disabled: %v", err)
		rdb = nil
	}

	users := database.NewUserStore(pool)
	workouts := database.NewWorkoutStore(pool)
	exercises := database.NewExerciseStore(pool)
	friends := service.NewFriendService(database.NewFriendStore(pool))
	messages := service.NewMessageService(database.NewMessageStore(pool), users, logger, rdb)
	calendar := service.NewCalendarService(database.NewCalendarStore(pool))

	srv := &handlers.Server{
		Logger:    logger,
		Users:     users,
		Workouts:  workouts,
		Exercises: exercises,
		Friends:   friends,
		Messages:  messages,
		Calendar:  calendar,
		Relay:     relay.NewRelay(messages, logger),
	}

	handler := middleware.LogMiddleware(logger)(srv.Routes())

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
