package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/nwatts/liftlog/internal/apperr"
	"github.com/nwatts/liftlog/internal/models"
)

type friendTargetRequest struct {
	FriendID uuid.UUID `json:"friend_id"`
}

type friendRespondRequest struct {
	FriendID uuid.UUID `json:"friend_id"`
	Status   string    `json:"status"`
}

// ListFriendsHandler returns the accepted friends of the caller.
func (s *Server) ListFriendsHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Friends.ListFriends(r.Context(), principal(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if entries == nil {
		entries = []models.FriendEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// IncomingRequestsHandler returns pending requests sent to the caller.
func (s *Server) IncomingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Friends.IncomingPending(r.Context(), principal(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if entries == nil {
		entries = []models.FriendEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// OutgoingRequestsHandler returns pending requests the caller has sent.
func (s *Server) OutgoingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Friends.OutgoingPending(r.Context(), principal(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if entries == nil {
		entries = []models.FriendEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// SendFriendRequestHandler creates a pending friend request from the caller.
func (s *Server) SendFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	var req friendTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperr.Validation("invalid payload"))
		return
	}
	if req.FriendID == uuid.Nil {
		s.writeError(w, apperr.Validation("friend_id is required"))
		return
	}

	friend, err := s.Friends.SendRequest(r.Context(), principal(r), req.FriendID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, friend)
}

// RespondFriendRequestHandler accepts or declines a pending request that was
// sent to the caller.
func (s *Server) RespondFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	var req friendRespondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperr.Validation("invalid payload"))
		return
	}
	if req.FriendID == uuid.Nil {
		s.writeError(w, apperr.Validation("friend_id is required"))
		return
	}

	friend, err := s.Friends.Respond(r.Context(), principal(r), req.FriendID, req.Status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, friend)
}

// RemoveFriendHandler deletes the relationship between the caller and the
// given user, whatever its status.
func (s *Server) RemoveFriendHandler(w http.ResponseWriter, r *http.Request) {
	var req friendTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperr.Validation("invalid payload"))
		return
	}
	if req.FriendID == uuid.Nil {
		s.writeError(w, apperr.Validation("friend_id is required"))
		return
	}

	if err := s.Friends.Remove(r.Context(), principal(r), req.FriendID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
