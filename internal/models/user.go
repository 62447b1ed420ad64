package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID       uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Password string    `json:"-"`

	Bio       string    `json:"bio"`
	AvatarURL string    `json:"avatar_url"`
	Height    int       `json:"height"`
	Weight    int       `json:"weight"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile is the subset of user fields other users are allowed to see.
type Profile struct {
	ID        uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatar_url"`
}
