package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tuutuut/tuutuut-api/internal/db"
	"github.com/tuutuut/tuutuut-api/internal/models"
)

// memStore is an in-memory db.Store for handler tests.
type memStore struct {
	mu      sync.Mutex
	cars    map[string]models.Car
	records map[string]models.MaintenanceRecord
	tasks   map[string]models.DIYTask
}

func newMemStore() *memStore {
	return &memStore{
		cars:    map[string]models.Car{},
		records: map[string]models.MaintenanceRecord{},
		tasks:   map[string]models.DIYTask{},
	}
}

func (s *memStore) addCar(car models.Car) models.Car {
	s.mu.Lock()
	defer s.mu.Unlock()
	if car.ID == "" {
		car.ID = uuid.NewString()
	}
	s.cars[car.ID] = car
	return car
}

func (s *memStore) InsertCar(ctx context.Context, car models.Car) (*models.Car, error) {
	car.ID = uuid.NewString()
	car.CreatedAt = time.Now()
	car.UpdatedAt = car.CreatedAt
	s.mu.Lock()
	s.cars[car.ID] = car
	s.mu.Unlock()
	return &car, nil
}

func (s *memStore) FindCars(ctx context.Context, ownerID string) ([]models.Car, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cars := []models.Car{}
	for _, car := range s.cars {
		if car.OwnerID == ownerID {
			cars = append(cars, car)
		}
	}
	return cars, nil
}

func (s *memStore) FindCarByID(ctx context.Context, ownerID, id string) (*models.Car, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	car, ok := s.cars[id]
	if !ok || car.OwnerID != ownerID {
		return nil, db.ErrNotFound
	}
	return &car, nil
}

func (s *memStore) UpdateCar(ctx context.Context, ownerID string, car models.Car) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.cars[car.ID]
	if !ok || existing.OwnerID != ownerID {
		return db.ErrNotFound
	}
	car.UpdatedAt = time.Now()
	s.cars[car.ID] = car
	return nil
}

func (s *memStore) DeleteCar(ctx context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	car, ok := s.cars[id]
	if !ok || car.OwnerID != ownerID {
		return db.ErrNotFound
	}
	delete(s.cars, id)
	return nil
}

func (s *memStore) ReplaceAdvice(ctx context.Context, ownerID, id string, advice []models.MaintenanceSuggestion, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	car, ok := s.cars[id]
	if !ok || car.OwnerID != ownerID {
		return db.ErrNotFound
	}
	car.LastAdvice = advice
	car.LastAdviceDate = &at
	s.cars[id] = car
	return nil
}

func (s *memStore) InsertRecord(ctx context.Context, record models.MaintenanceRecord) (*models.MaintenanceRecord, error) {
	record.ID = uuid.NewString()
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	s.mu.Lock()
	s.records[record.ID] = record
	s.mu.Unlock()
	return &record, nil
}

func (s *memStore) FindRecords(ctx context.Context, ownerID string) ([]models.MaintenanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := []models.MaintenanceRecord{}
	for _, record := range s.records {
		if record.OwnerID == ownerID {
			records = append(records, record)
		}
	}
	return records, nil
}

func (s *memStore) FindRecordsByCar(ctx context.Context, ownerID, carID string) ([]models.MaintenanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := []models.MaintenanceRecord{}
	for _, record := range s.records {
		if record.OwnerID == ownerID && record.CarID == carID {
			records = append(records, record)
		}
	}
	return records, nil
}

func (s *memStore) FindRecordByID(ctx context.Context, ownerID, id string) (*models.MaintenanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok || record.OwnerID != ownerID {
		return nil, db.ErrNotFound
	}
	return &record, nil
}

func (s *memStore) UpdateRecord(ctx context.Context, ownerID string, record models.MaintenanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.records[record.ID]
	if !ok || existing.OwnerID != ownerID {
		return db.ErrNotFound
	}
	record.UpdatedAt = time.Now()
	s.records[record.ID] = record
	return nil
}

func (s *memStore) DeleteRecord(ctx context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok || record.OwnerID != ownerID {
		return db.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *memStore) InsertTask(ctx context.Context, task models.DIYTask) (*models.DIYTask, error) {
	task.ID = uuid.NewString()
	task.CreatedAt = time.Now()
	s.mu.Lock()
	s.tasks[task.ID] = task
	s.mu.Unlock()
	return &task, nil
}

func (s *memStore) FindTasks(ctx context.Context, ownerID string) ([]models.DIYTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := []models.DIYTask{}
	for _, task := range s.tasks {
		if task.OwnerID == ownerID {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (s *memStore) FindTaskByID(ctx context.Context, ownerID, id string) (*models.DIYTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return nil, db.ErrNotFound
	}
	return &task, nil
}

func (s *memStore) UpdateTask(ctx context.Context, ownerID string, task models.DIYTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tasks[task.ID]
	if !ok || existing.OwnerID != ownerID {
		return db.ErrNotFound
	}
	s.tasks[task.ID] = task
	return nil
}

func (s *memStore) DeleteTask(ctx context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return db.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}
