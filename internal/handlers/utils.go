package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nwatts/liftlog/internal/apperr"
	"github.com/nwatts/liftlog/internal/auth"
)

type contextKey string

const principalKey contextKey = "principal"

// extractCookieToken extracts a named cookie value from the "Cookie" header,
// or returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	parts := strings.Split(cookieHeader, cookieName+"=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}

// credentialFromRequest pulls the bearer credential from the Authorization
// header, the auth_token cookie, or (for websocket handshakes) the token
// query parameter.
func credentialFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if cookieHeader := r.Header.Get("Cookie"); strings.Contains(cookieHeader, "auth_token=") {
		return extractCookieToken(cookieHeader, "auth_token")
	}
	return r.URL.Query().Get("token")
}

// resolvePrincipal verifies the request's credential and returns the caller's
// user id.
func resolvePrincipal(r *http.Request) (uuid.UUID, error) {
	token := credentialFromRequest(r)
	if token == "" {
		return uuid.Nil, apperr.Auth("missing credentials")
	}
	userIDStr, err := auth.ResolvePrincipal(token)
	if err != nil {
		return uuid.Nil, apperr.Auth("invalid token")
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, apperr.Auth("invalid user id in token")
	}
	return userID, nil
}

// requireAuth resolves the principal and stashes it in the request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := resolvePrincipal(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), principalKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// principal returns the authenticated user id placed by requireAuth.
func principal(r *http.Request) uuid.UUID {
	id, _ := r.Context().Value(principalKey).(uuid.UUID)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps apperr codes to HTTP statuses. Store internals are logged
// and replaced with a generic body so raw storage errors never reach
// clients.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal server error"

	switch apperr.CodeOf(err) {
	case apperr.CodeValidation:
		status, msg = http.StatusBadRequest, err.Error()
	case apperr.CodeAuth:
		status, msg = http.StatusUnauthorized, err.Error()
	case apperr.CodeNotFound:
		status, msg = http.StatusNotFound, err.Error()
	case apperr.CodeConflict:
		status, msg = http.StatusConflict, err.Error()
	default:
		if s.Logger != nil {
			s.Logger.Errorf("internal error: %v", err)
		}
	}

	writeJSON(w, status, map[string]string{"error": msg})
}
