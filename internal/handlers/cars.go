package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/tuutuut/tuutuut-api/internal/db"
	"github.com/tuutuut/tuutuut-api/internal/middleware"
	"github.com/tuutuut/tuutuut-api/internal/models"
)

// maxPhotoBytes caps the base64 payload of a car photo. Photos are
// stored on the car document itself, so an oversized upload would bloat
// every subsequent read of the garage.
const maxPhotoBytes = 2 << 20

// CarHandler handles car CRUD and the mileage and photo sub-resources.
type CarHandler struct {
	store db.Store
}

// NewCarHandler creates a new car handler
func NewCarHandler(store db.Store) *CarHandler {
	return &CarHandler{store: store}
}

// ListCars returns all cars of the current user
func (h *CarHandler) ListCars(w http.ResponseWriter, r *http.Request) {
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
		log.WithError(err).Error("Failed to list cars")
		http.Error(w, "Failed to fetch cars", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cars)
}

// CreateCar adds a car to the current user's garage
func (h *CarHandler) CreateCar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	var car models.Car
	if err := json.NewDecoder(r.Body).Decode(&car); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if car.Make == "" || car.Model == "" {
		http.Error(w, "Make and model are required", http.StatusBadRequest)
		return
	}
	if car.Mileage < 0 {
		http.Error(w, "Mileage cannot be negative", http.StatusBadRequest)
		return
	}

	car.ID = ""
	car.OwnerID = claims.UserID
	created, err := h.store.InsertCar(r.Context(), car)
	if err != nil {
		log.WithError(err).Error("Failed to create car")
		http.Error(w, "Failed to create car", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// GetCar returns a single car by id
func (h *CarHandler) GetCar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	car, err := h.store.FindCarByID(r.Context(), claims.UserID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Car not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch car", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(car)
}

// UpdateCar replaces a car's editable fields
func (h *CarHandler) UpdateCar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	var car models.Car
	if err := json.NewDecoder(r.Body).Decode(&car); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if car.Make == "" || car.Model == "" {
		http.Error(w, "Make and model are required", http.StatusBadRequest)
		return
	}
	if car.Mileage < 0 {
		http.Error(w, "Mileage cannot be negative", http.StatusBadRequest)
		return
	}

	id := r.PathValue("id")

	// The cached advice is owned by the refresh path, not by edits.
	existing, err := h.store.FindCarByID(r.Context(), claims.UserID, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Car not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch car", http.StatusInternalServerError)
		return
	}
	car.ID = id
	car.OwnerID = claims.UserID
	car.LastAdvice = existing.LastAdvice
	car.LastAdviceDate = existing.LastAdviceDate
	car.CreatedAt = existing.CreatedAt

	if err := h.store.UpdateCar(r.Context(), claims.UserID, car); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Car not found", http.StatusNotFound)
			return
		}
		log.WithError(err).Error("Failed to update car")
		http.Error(w, "Failed to update car", http.StatusInternalServerError)
		return
	}

	updated, err := h.store.FindCarByID(r.Context(), claims.UserID, id)
	if err != nil {
		http.Error(w, "Failed to fetch car", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

// DeleteCar removes a car together with its records and tasks
func (h *CarHandler) DeleteCar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	id := r.PathValue("id")
	if err := h.store.DeleteCar(r.Context(), claims.UserID, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Car not found", http.StatusNotFound)
			return
		}
		log.WithError(err).Error("Failed to delete car")
		http.Error(w, "Failed to delete car", http.StatusInternalServerError)
		return
	}

	// Orphaned history is useless without the car it belongs to.
	records, err := h.store.FindRecordsByCar(r.Context(), claims.UserID, id)
	if err == nil {
		for _, record := range records {
			if err := h.store.DeleteRecord(r.Context(), claims.UserID, record.ID); err != nil {
				log.WithError(err).WithField("record_id", record.ID).Warn("Failed to delete record of removed car")
			}
		}
	}
	tasks, err := h.store.FindTasks(r.Context(), claims.UserID)
	if err == nil {
		for _, task := range tasks {
			if task.CarID != id {
				continue
			}
			if err := h.store.DeleteTask(r.Context(), claims.UserID, task.ID); err != nil {
				log.WithError(err).WithField("task_id", task.ID).Warn("Failed to delete task of removed car")
			}
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateMileage sets a car's current odometer reading
func (h *CarHandler) UpdateMileage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	var req struct {
		Mileage int `json:"mileage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Mileage < 0 {
		http.Error(w, "Mileage cannot be negative", http.StatusBadRequest)
		return
	}

	car, err := h.store.FindCarByID(r.Context(), claims.UserID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Car not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch car", http.StatusInternalServerError)
		return
	}

	car.Mileage = req.Mileage
	if err := h.store.UpdateCar(r.Context(), claims.UserID, *car); err != nil {
		log.WithError(err).Error("Failed to update mileage")
		http.Error(w, "Failed to update mileage", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(car)
}

// UploadPhoto stores a base64 data URL photo on the car document
func (h *CarHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	var req struct {
		Photo string `json:"photo"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPhotoBytes+1024)).Decode(&req); err != nil {
		http.Error(w, "Photo too large or invalid JSON", http.StatusRequestEntityTooLarge)
		return
	}
	if !strings.HasPrefix(req.Photo, "data:image/") {
		http.Error(w, "Photo must be an image data URL", http.StatusBadRequest)
		return
	}
	if len(req.Photo) > maxPhotoBytes {
		http.Error(w, "Photo too large", http.StatusRequestEntityTooLarge)
		return
	}

	car, err := h.store.FindCarByID(r.Context(), claims.UserID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Car not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch car", http.StatusInternalServerError)
		return
	}

	car.PhotoURL = req.Photo
	if err := h.store.UpdateCar(r.Context(), claims.UserID, *car); err != nil {
		log.WithError(err).Error("Failed to store photo")
		http.Error(w, "Failed to store photo", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(car)
}
