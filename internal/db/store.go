package db

import (
	"context"
	"errors"
	"time"

	"github.com/tuutuut/tuutuut-api/internal/models"
)

// ErrNotFound is returned when an entity does not exist or does not
// belong to the given owner. Both backends return it so handlers never
// need to know which store they are talking to.
var ErrNotFound = errors.New("not found")

// CarStore defines the interface for car data operations. Every
// operation is scoped to an owner; a car belonging to someone else is
// indistinguishable from a missing one.
type CarStore interface {
	InsertCar(ctx context.Context, car models.Car) (*models.Car, error)
	FindCars(ctx context.Context, ownerID string) ([]models.Car, error)
	FindCarByID(ctx context.Context, ownerID, id string) (*models.Car, error)
	UpdateCar(ctx context.Context, ownerID string, car models.Car) error
	DeleteCar(ctx context.Context, ownerID, id string) error

	// ReplaceAdvice swaps a car's cached suggestion list and advice
	// timestamp wholesale. There is no merge operation on purpose.
	ReplaceAdvice(ctx context.Context, ownerID, id string, advice []models.MaintenanceSuggestion, at time.Time) error
}

// RecordStore defines the interface for maintenance record operations.
type RecordStore interface {
	InsertRecord(ctx context.Context, record models.MaintenanceRecord) (*models.MaintenanceRecord, error)
	FindRecords(ctx context.Context, ownerID string) ([]models.MaintenanceRecord, error)
	FindRecordsByCar(ctx context.Context, ownerID, carID string) ([]models.MaintenanceRecord, error)
	FindRecordByID(ctx context.Context, ownerID, id string) (*models.MaintenanceRecord, error)
	UpdateRecord(ctx context.Context, ownerID string, record models.MaintenanceRecord) error
	DeleteRecord(ctx context.Context, ownerID, id string) error
}

// TaskStore defines the interface for DIY task operations.
type TaskStore interface {
	InsertTask(ctx context.Context, task models.DIYTask) (*models.DIYTask, error)
	FindTasks(ctx context.Context, ownerID string) ([]models.DIYTask, error)
	FindTaskByID(ctx context.Context, ownerID, id string) (*models.DIYTask, error)
	UpdateTask(ctx context.Context, ownerID string, task models.DIYTask) error
	DeleteTask(ctx context.Context, ownerID, id string) error
}

// Store bundles the three entity stores so the server can be wired
// against a single backend chosen at startup.
type Store interface {
	CarStore
	RecordStore
	TaskStore
}
