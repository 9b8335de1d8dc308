package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tuutuut/tuutuut-api/internal/db"
	"github.com/tuutuut/tuutuut-api/internal/maintenance"
	"github.com/tuutuut/tuutuut-api/internal/middleware"
)

// NotificationHandler serves the alert feed and badge count.
type NotificationHandler struct {
	store db.CarStore
	now   func() time.Time
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(store db.CarStore) *NotificationHandler {
	return &NotificationHandler{store: store, now: time.Now}
}

// List returns the urgent alerts across the user's garage plus the
// badge count. The count can exceed the list length: inspection expiry
// is counted but never listed.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	cars, err := h.store.FindCars(r.Context(), claims.UserID)
	if err != nil {
		log.WithError(err).Error("Failed to fetch cars for notifications")
		http.Error(w, "Failed to fetch notifications", http.StatusInternalServerError)
		return
	}

	response := struct {
		Alerts []maintenance.Alert `json:"alerts"`
		Count  int                 `json:"count"`
	}{
		Alerts: maintenance.AggregateAlerts(cars),
		Count:  maintenance.AlertCount(cars, h.now()),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
