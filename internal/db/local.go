package db

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tuutuut/tuutuut-api/internal/models"
)

// Document kinds in the local store.
const (
	kindCar    = "car"
	kindRecord = "record"
	kindTask   = "task"
)

// localDocument is one row of the guest store: the JSON snapshot of an
// entity. Entities are persisted whole, the way the original on-device
// storage kept them, so both backends see the same document shape.
type localDocument struct {
	ID        string `gorm:"primaryKey"`
	OwnerID   string `gorm:"index"`
	CarID     string `gorm:"index"`
	Kind      string `gorm:"index"`
	Data      []byte
	UpdatedAt time.Time
}

// LocalStore implements Store on an SQLite file for guest sessions,
// where no account and no cloud store exist.
type LocalStore struct {
	db *gorm.DB
}

// OpenLocal opens or creates the guest store at path.
func OpenLocal(path string) (*LocalStore, error) {
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := gdb.AutoMigrate(&localDocument{}); err != nil {
		return nil, err
	}
	return &LocalStore{db: gdb}, nil
}

func (s *LocalStore) put(ctx context.Context, kind, id, ownerID, carID string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	doc := localDocument{
		ID:        id,
		OwnerID:   ownerID,
		CarID:     carID,
		Kind:      kind,
		Data:      data,
		UpdatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).Save(&doc).Error
}

func (s *LocalStore) get(ctx context.Context, kind, ownerID, id string, out interface{}) error {
	var doc localDocument
	err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ? AND kind = ?", id, ownerID, kind).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return json.Unmarshal(doc.Data, out)
}

func (s *LocalStore) list(ctx context.Context, kind, ownerID string) ([]localDocument, error) {
	var docs []localDocument
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND kind = ?", ownerID, kind).
		Order("updated_at").
		Find(&docs).Error
	return docs, err
}

func (s *LocalStore) delete(ctx context.Context, kind, ownerID, id string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ? AND kind = ?", id, ownerID, kind).
		Delete(&localDocument{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertCar inserts a car, assigning an id and timestamps.
func (s *LocalStore) InsertCar(ctx context.Context, car models.Car) (*models.Car, error) {
	if car.ID == "" {
		car.ID = uuid.NewString()
	}
	car.CreatedAt = time.Now()
	car.UpdatedAt = time.Now()
	if err := s.put(ctx, kindCar, car.ID, car.OwnerID, "", car); err != nil {
		return nil, err
	}
	return &car, nil
}

// FindCars returns all cars belonging to an owner.
func (s *LocalStore) FindCars(ctx context.Context, ownerID string) ([]models.Car, error) {
	docs, err := s.list(ctx, kindCar, ownerID)
	if err != nil {
		return nil, err
	}
	cars := []models.Car{}
	for _, doc := range docs {
		var car models.Car
		if err := json.Unmarshal(doc.Data, &car); err != nil {
			return nil, err
		}
		cars = append(cars, car)
	}
	return cars, nil
}

// FindCarByID finds one of the owner's cars by id.
func (s *LocalStore) FindCarByID(ctx context.Context, ownerID, id string) (*models.Car, error) {
	var car models.Car
	if err := s.get(ctx, kindCar, ownerID, id, &car); err != nil {
		return nil, err
	}
	return &car, nil
}

// UpdateCar replaces a stored car.
func (s *LocalStore) UpdateCar(ctx context.Context, ownerID string, car models.Car) error {
	if _, err := s.FindCarByID(ctx, ownerID, car.ID); err != nil {
		return err
	}
	car.OwnerID = ownerID
	car.UpdatedAt = time.Now()
	return s.put(ctx, kindCar, car.ID, ownerID, "", car)
}

// DeleteCar deletes one of the owner's cars.
func (s *LocalStore) DeleteCar(ctx context.Context, ownerID, id string) error {
	return s.delete(ctx, kindCar, ownerID, id)
}

// ReplaceAdvice swaps the cached suggestion list and its timestamp.
func (s *LocalStore) ReplaceAdvice(ctx context.Context, ownerID, id string, advice []models.MaintenanceSuggestion, at time.Time) error {
	car, err := s.FindCarByID(ctx, ownerID, id)
	if err != nil {
		return err
	}
	car.LastAdvice = advice
	car.LastAdviceDate = &at
	return s.UpdateCar(ctx, ownerID, *car)
}

// InsertRecord inserts a maintenance record.
func (s *LocalStore) InsertRecord(ctx context.Context, record models.MaintenanceRecord) (*models.MaintenanceRecord, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.CreatedAt = time.Now()
	record.UpdatedAt = time.Now()
	if err := s.put(ctx, kindRecord, record.ID, record.OwnerID, record.CarID, record); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindRecords returns all of an owner's maintenance records.
func (s *LocalStore) FindRecords(ctx context.Context, ownerID string) ([]models.MaintenanceRecord, error) {
	docs, err := s.list(ctx, kindRecord, ownerID)
	if err != nil {
		return nil, err
	}
	return decodeRecords(docs)
}

// FindRecordsByCar returns the maintenance records for one car.
func (s *LocalStore) FindRecordsByCar(ctx context.Context, ownerID, carID string) ([]models.MaintenanceRecord, error) {
	var docs []localDocument
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND kind = ? AND car_id = ?", ownerID, kindRecord, carID).
		Order("updated_at").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return decodeRecords(docs)
}

func decodeRecords(docs []localDocument) ([]models.MaintenanceRecord, error) {
	records := []models.MaintenanceRecord{}
	for _, doc := range docs {
		var record models.MaintenanceRecord
		if err := json.Unmarshal(doc.Data, &record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// FindRecordByID finds one of the owner's records by id.
func (s *LocalStore) FindRecordByID(ctx context.Context, ownerID, id string) (*models.MaintenanceRecord, error) {
	var record models.MaintenanceRecord
	if err := s.get(ctx, kindRecord, ownerID, id, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateRecord replaces a stored record.
func (s *LocalStore) UpdateRecord(ctx context.Context, ownerID string, record models.MaintenanceRecord) error {
	if _, err := s.FindRecordByID(ctx, ownerID, record.ID); err != nil {
		return err
	}
	record.OwnerID = ownerID
	record.UpdatedAt = time.Now()
	return s.put(ctx, kindRecord, record.ID, ownerID, record.CarID, record)
}

// DeleteRecord deletes one of the owner's records.
func (s *LocalStore) DeleteRecord(ctx context.Context, ownerID, id string) error {
	return s.delete(ctx, kindRecord, ownerID, id)
}

// InsertTask inserts a DIY task.
func (s *LocalStore) InsertTask(ctx context.Context, task models.DIYTask) (*models.DIYTask, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.CreatedAt = time.Now()
	if err := s.put(ctx, kindTask, task.ID, task.OwnerID, task.CarID, task); err != nil {
		return nil, err
	}
	return &task, nil
}

// FindTasks returns all of an owner's DIY tasks.
func (s *LocalStore) FindTasks(ctx context.Context, ownerID string) ([]models.DIYTask, error) {
	docs, err := s.list(ctx, kindTask, ownerID)
	if err != nil {
		return nil, err
	}
	tasks := []models.DIYTask{}
	for _, doc := range docs {
		var task models.DIYTask
		if err := json.Unmarshal(doc.Data, &task); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// FindTaskByID finds one of the owner's DIY tasks by id.
func (s *LocalStore) FindTaskByID(ctx context.Context, ownerID, id string) (*models.DIYTask, error) {
	var task models.DIYTask
	if err := s.get(ctx, kindTask, ownerID, id, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask replaces a stored DIY task.
func (s *LocalStore) UpdateTask(ctx context.Context, ownerID string, task models.DIYTask) error {
	if _, err := s.FindTaskByID(ctx, ownerID, task.ID); err != nil {
		return err
	}
	task.OwnerID = ownerID
	return s.put(ctx, kindTask, task.ID, ownerID, task.CarID, task)
}

// DeleteTask deletes one of the owner's DIY tasks.
func (s *LocalStore) DeleteTask(ctx context.Context, ownerID, id string) error {
	return s.delete(ctx, kindTask, ownerID, id)
}
