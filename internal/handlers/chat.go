package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/tuutuut/tuutuut-api/internal/advice"
	"github.com/tuutuut/tuutuut-api/internal/db"
	"github.com/tuutuut/tuutuut-api/internal/middleware"
)

// Chatter is the slice of the AI client the chat endpoint needs.
type Chatter interface {
	Chat(ctx context.Context, message, image string, history []advice.ChatMessage, chatCtx advice.ChatContext) (string, error)
}

// ChatHandler serves the mechanic chatbot.
type ChatHandler struct {
	chatter Chatter
	store   db.Store
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatter Chatter, store db.Store) *ChatHandler {
	return &ChatHandler{chatter: chatter, store: store}
}

type chatRequest struct {
	Message     string               `json:"message"`
	Image       string               `json:"image,omitempty"`
	History     []advice.ChatMessage `json:"history,omitempty"`
	ActiveCarID string               `json:"activeCarId,omitempty"`
}

// Chat handles POST /api/chat. The garage snapshot is assembled server
// side so the chatbot always reasons over the stored state, not over
// whatever the client claims to own.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Message == "" && req.Image == "" {
		http.Error(w, "Message or image is required", http.StatusBadRequest)
		return
	}

	cars, err := h.store.FindCars(r.Context(), claims.UserID)
	if err != nil {
		log.WithError(err).Error("Failed to fetch cars for chat")
		http.Error(w, "Failed to build chat context", http.StatusInternalServerError)
		return
	}
	records, err := h.store.FindRecords(r.Context(), claims.UserID)
	if err != nil {
		log.WithError(err).Error("Failed to fetch records for chat")
		http.Error(w, "Failed to build chat context", http.StatusInternalServerError)
		return
	}

	reply, err := h.chatter.Chat(r.Context(), req.Message, req.Image, req.History, advice.ChatContext{
		Cars:        cars,
		ActiveCarID: req.ActiveCarID,
		Records:     records,
	})
	if err != nil {
		if errors.Is(err, advice.ErrNoAPIKey) {
			http.Error(w, "Chat service not configured", http.StatusServiceUnavailable)
			return
		}
		log.WithError(err).Error("Chat request failed")
		http.Error(w, "Chat request failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"reply": reply})
}
