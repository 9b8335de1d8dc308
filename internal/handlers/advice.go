package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/tuutuut/tuutuut-api/internal/advice"
	"github.com/tuutuut/tuutuut-api/internal/db"
	"github.com/tuutuut/tuutuut-api/internal/middleware"
)

// AdviceHandler triggers advice refreshes for a car.
type AdviceHandler struct {
	refresher *advice.Refresher
}

// NewAdviceHandler creates a new advice handler
func NewAdviceHandler(refresher *advice.Refresher) *AdviceHandler {
	return &AdviceHandler{refresher: refresher}
}

// Refresh fetches fresh advice for one car and returns the car with
// its updated cache. While a refresh for the same car is still running
// the request is rejected with 409.
func (h *AdviceHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	car, err := h.refresher.Refresh(r.Context(), claims.UserID, r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, advice.ErrRefreshInFlight):
			http.Error(w, "Advice refresh already in progress", http.StatusConflict)
		case errors.Is(err, db.ErrNotFound):
			http.Error(w, "Car not found", http.StatusNotFound)
		case errors.Is(err, advice.ErrNoAPIKey):
			http.Error(w, "Advice service not configured", http.StatusServiceUnavailable)
		default:
			log.WithError(err).Error("Advice refresh failed")
			http.Error(w, "Failed to refresh advice", http.StatusBadGateway)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(car)
}
