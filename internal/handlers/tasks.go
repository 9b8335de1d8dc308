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

// TaskHandler handles DIY task CRUD.
type TaskHandler struct {
	store db.Store
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(store db.Store) *TaskHandler {
	return &TaskHandler{store: store}
}

// ListTasks returns the current user's DIY tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	tasks, err := h.store.FindTasks(r.Context(), claims.UserID)
	if err != nil {
		log.WithError(err).Error("Failed to list tasks")
		http.Error(w, "Failed to fetch tasks", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tasks)
}

// CreateTask adds a DIY task
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	var task models.DIYTask
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if task.Title == "" || task.CarID == "" {
		http.Error(w, "Title and car id are required", http.StatusBadRequest)
		return
	}
	if task.Status == "" {
		task.Status = models.TaskStatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityNormal
	}
	if !models.IsValidTaskStatus(task.Status) {
		http.Error(w, "Invalid task status", http.StatusBadRequest)
		return
	}
	if !models.IsValidTaskPriority(task.Priority) {
		http.Error(w, "Invalid task priority", http.StatusBadRequest)
		return
	}

	if _, err := h.store.FindCarByID(r.Context(), claims.UserID, task.CarID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Car not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch car", http.StatusInternalServerError)
		return
	}

	task.ID = ""
	task.OwnerID = claims.UserID
	created, err := h.store.InsertTask(r.Context(), task)
	if err != nil {
		log.WithError(err).Error("Failed to create task")
		http.Error(w, "Failed to create task", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// UpdateTask replaces a task's fields
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	var task models.DIYTask
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if task.Title == "" {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}
	if !models.IsValidTaskStatus(task.Status) {
		http.Error(w, "Invalid task status", http.StatusBadRequest)
		return
	}
	if !models.IsValidTaskPriority(task.Priority) {
		http.Error(w, "Invalid task priority", http.StatusBadRequest)
		return
	}

	id := r.PathValue("id")
	existing, err := h.store.FindTaskByID(r.Context(), claims.UserID, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Task not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch task", http.StatusInternalServerError)
		return
	}

	task.ID = id
	task.OwnerID = claims.UserID
	task.CarID = existing.CarID
	task.CreatedAt = existing.CreatedAt
	if err := h.store.UpdateTask(r.Context(), claims.UserID, task); err != nil {
		log.WithError(err).Error("Failed to update task")
		http.Error(w, "Failed to update task", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(task)
}

// DeleteTask removes a task
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	if err := h.store.DeleteTask(r.Context(), claims.UserID, r.PathValue("id")); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Task not found", http.StatusNotFound)
			return
		}
		log.WithError(err).Error("Failed to delete task")
		http.Error(w, "Failed to delete task", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
