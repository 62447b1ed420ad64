package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/nwatts/liftlog/internal/apperr"
	"github.com/nwatts/liftlog/internal/auth"
	"github.com/nwatts/liftlog/internal/models"
)

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// SignupHandler creates a user and returns the user plus a signed token.
// The token is also set as an HttpOnly cookie.
func (s *Server) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperr.Validation("invalid payload"))
		return
	}
	if req.Username == "" || req.Password == "" {
		s.writeError(w, apperr.Validation("username and password are required"))
		return
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}
	if err := s.Users.Create(r.Context(), &user); err != nil {
		s.writeError(w, err)
		return
	}

	token, err := auth.CreateJWT(user.ID.String())
	if err != nil {
		s.writeError(w, err)
		return
	}
	setAuthCookie(w, token)
	writeJSON(w, http.StatusCreated, authResponse{User: &user, Token: token})
}

// LoginHandler verifies credentials and returns the user plus a fresh token.
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperr.Validation("invalid payload"))
		return
	}

	user, token, err := s.Users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}

	setAuthCookie(w, token)
	writeJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

// ListUsersHandler returns every user's public profile.
func (s *Server) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.Users.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if profiles == nil {
		profiles = []models.Profile{}
	}
	writeJSON(w, http.StatusOK, profiles)
}

// GetUserHandler returns one user by username.
func (s *Server) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	user, err := s.Users.GetByUsername(r.Context(), r.PathValue("username"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		MaxAge:   auth.TOKEN_EXPIRE_TIME_SEC,
	})
}
