package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/tuutuut/tuutuut-api/internal/db"
	"github.com/tuutuut/tuutuut-api/internal/middleware"
	"github.com/tuutuut/tuutuut-api/internal/models"
)

// RecordHandler handles maintenance record CRUD.
type RecordHandler struct {
	store db.Store
}

// NewRecordHandler creates a new record handler
func NewRecordHandler(store db.Store) *RecordHandler {
	return &RecordHandler{store: store}
}

// createRecordRequest is a record plus the optional name of the
// suggestion this service visit completes.
type createRecordRequest struct {
	models.MaintenanceRecord
	CompletesTask string `json:"completesTask,omitempty"`
}

// ListRecords returns the current user's records, optionally filtered
// by ?carId=
func (h *RecordHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	var records []models.MaintenanceRecord
	var err error
	if carID := r.URL.Query().Get("carId"); carID != "" {
		records, err = h.store.FindRecordsByCar(r.Context(), claims.UserID, carID)
	} else {
		records, err = h.store.FindRecords(r.Context(), claims.UserID)
	}
	if err != nil {
		log.WithError(err).Error("Failed to list records")
		http.Error(w, "Failed to fetch records", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

// CreateRecord logs a service event. When the serviced mileage is ahead
// of the car's odometer the car is advanced to it, and when the request
// names a completed task the matching cached suggestion is dropped.
func (h *RecordHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	var req createRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.CarID == "" || req.Title == "" || req.Date == "" {
		http.Error(w, "Car id, title and date are required", http.StatusBadRequest)
		return
	}
	if req.Cost < 0 {
		http.Error(w, "Cost cannot be negative", http.StatusBadRequest)
		return
	}
	if req.MileageAtService < 0 {
		http.Error(w, "Mileage cannot be negative", http.StatusBadRequest)
		return
	}

	car, err := h.store.FindCarByID(r.Context(), claims.UserID, req.CarID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Car not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch car", http.StatusInternalServerError)
		return
	}

	record := req.MaintenanceRecord
	record.ID = ""
	record.OwnerID = claims.UserID
	created, err := h.store.InsertRecord(r.Context(), record)
	if err != nil {
		log.WithError(err).Error("Failed to create record")
		http.Error(w, "Failed to create record", http.StatusInternalServerError)
		return
	}

	carChanged := false
	if record.MileageAtService > car.Mileage {
		car.Mileage = record.MileageAtService
		carChanged = true
	}
	if req.CompletesTask != "" {
		if remaining, removed := removeSuggestion(car.LastAdvice, req.CompletesTask); removed {
			car.LastAdvice = remaining
			carChanged = true
		}
	}
	if carChanged {
		if err := h.store.UpdateCar(r.Context(), claims.UserID, *car); err != nil {
			log.WithError(err).WithField("car_id", car.ID).Warn("Failed to update car after record")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// GetRecord returns a single record by id
func (h *RecordHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	record, err := h.store.FindRecordByID(r.Context(), claims.UserID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Record not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch record", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}

// UpdateRecord replaces a record's fields
func (h *RecordHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	var record models.MaintenanceRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if record.Title == "" || record.Date == "" {
		http.Error(w, "Title and date are required", http.StatusBadRequest)
		return
	}
	if record.Cost < 0 || record.MileageAtService < 0 {
		http.Error(w, "Cost and mileage cannot be negative", http.StatusBadRequest)
		return
	}

	id := r.PathValue("id")
	existing, err := h.store.FindRecordByID(r.Context(), claims.UserID, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Record not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch record", http.StatusInternalServerError)
		return
	}

	record.ID = id
	record.OwnerID = claims.UserID
	record.CarID = existing.CarID
	record.CreatedAt = existing.CreatedAt
	if err := h.store.UpdateRecord(r.Context(), claims.UserID, record); err != nil {
		log.WithError(err).Error("Failed to update record")
		http.Error(w, "Failed to update record", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}

// DeleteRecord removes a record
func (h *RecordHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	if err := h.store.DeleteRecord(r.Context(), claims.UserID, r.PathValue("id")); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Record not found", http.StatusNotFound)
			return
		}
		log.WithError(err).Error("Failed to delete record")
		http.Error(w, "Failed to delete record", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// removeSuggestion drops the first suggestion whose task name matches.
// Duplicate task names are not disambiguated; first match wins.
func removeSuggestion(advice []models.MaintenanceSuggestion, task string) ([]models.MaintenanceSuggestion, bool) {
	for i, s := range advice {
		if s.Task == task {
			remaining := make([]models.MaintenanceSuggestion, 0, len(advice)-1)
			remaining = append(remaining, advice[:i]...)
			remaining = append(remaining, advice[i+1:]...)
			return remaining, true
		}
	}
	return advice, false
}
