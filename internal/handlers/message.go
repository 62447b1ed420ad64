package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/nwatts/liftlog/internal/apperr"
	"github.com/nwatts/liftlog/internal/models"
)

type sendMessageRequest struct {
	ReceiverID  uuid.UUID `json:"receiver_id"`
	MessageText string    `json:"message_text"`
}

// ConversationsHandler returns one entry per counterparty the caller has
// exchanged messages with, most recent first.
func (s *Server) ConversationsHandler(w http.ResponseWriter, r *http.Request) {
	convos, err := s.Messages.Conversations(r.Context(), principal(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if convos == nil {
		convos = []models.Conversation{}
	}
	writeJSON(w, http.StatusOK, convos)
}

// MessageHistoryHandler returns the full two-way history between the caller
// and the counterparty in the path, oldest first.
func (s *Server) MessageHistoryHandler(w http.ResponseWriter, r *http.Request) {
	counterparty, err := uuid.Parse(r.PathValue("counterparty_id"))
	if err != nil {
		s.writeError(w, apperr.Validation("invalid counterparty id"))
		return
	}

	history, err := s.Messages.History(r.Context(), principal(r), counterparty)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if history == nil {
		history = []models.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, history)
}

// SendMessageHandler persists a direct message over plain HTTP. Real-time
// delivery goes through the websocket relay; this endpoint only stores.
func (s *Server) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperr.Validation("invalid payload"))
		return
	}

	msg, err := s.Messages.Send(r.Context(), principal(r), req.ReceiverID, req.MessageText)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}
