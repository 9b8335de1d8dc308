package db

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tuutuut/tuutuut-api/internal/models"
)

// ConnectMongo connects to MongoDB using the MONGO_URI environment variable.
func ConnectMongo() (*mongo.Client, error) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// MongoStore implements Store on top of per-entity MongoDB collections.
// Entity ids are UUID strings generated at insert time, so documents
// keep the same shape as in the local guest store.
type MongoStore struct {
	Cars    *mongo.Collection
	Records *mongo.Collection
	Tasks   *mongo.Collection
}

// NewMongoStore creates a MongoStore over the given database.
func NewMongoStore(database *mongo.Database) *MongoStore {
	return &MongoStore{
		Cars:    database.Collection("cars"),
		Records: database.Collection("records"),
		Tasks:   database.Collection("diy_tasks"),
	}
}

// InsertCar inserts a car, assigning an id and timestamps.
func (s *MongoStore) InsertCar(ctx context.Context, car models.Car) (*models.Car, error) {
	if s.Cars == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	if car.ID == "" {
		car.ID = uuid.NewString()
	}
	car.CreatedAt = time.Now()
	car.UpdatedAt = time.Now()
	if _, err := s.Cars.InsertOne(ctx, car); err != nil {
		return nil, err
	}
	return &car, nil
}

// FindCars returns all cars belonging to an owner.
func (s *MongoStore) FindCars(ctx context.Context, ownerID string) ([]models.Car, error) {
	if s.Cars == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	cursor, err := s.Cars.Find(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	cars := []models.Car{}
	if err := cursor.All(ctx, &cars); err != nil {
		return nil, err
	}
	return cars, nil
}

// FindCarByID finds one of the owner's cars by id.
func (s *MongoStore) FindCarByID(ctx context.Context, ownerID, id string) (*models.Car, error) {
	if s.Cars == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	var car models.Car
	err := s.Cars.FindOne(ctx, bson.M{"_id": id, "owner_id": ownerID}).Decode(&car)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &car, nil
}

// UpdateCar replaces a car's mutable fields.
func (s *MongoStore) UpdateCar(ctx context.Context, ownerID string, car models.Car) error {
	if s.Cars == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	car.OwnerID = ownerID
	car.UpdatedAt = time.Now()
	result, err := s.Cars.UpdateOne(ctx,
		bson.M{"_id": car.ID, "owner_id": ownerID},
		bson.M{"$set": car})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCar deletes one of the owner's cars.
func (s *MongoStore) DeleteCar(ctx context.Context, ownerID, id string) error {
	if s.Cars == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	result, err := s.Cars.DeleteOne(ctx, bson.M{"_id": id, "owner_id": ownerID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceAdvice swaps the cached suggestion list and its timestamp.
func (s *MongoStore) ReplaceAdvice(ctx context.Context, ownerID, id string, advice []models.MaintenanceSuggestion, at time.Time) error {
	if s.Cars == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	result, err := s.Cars.UpdateOne(ctx,
		bson.M{"_id": id, "owner_id": ownerID},
		bson.M{"$set": bson.M{
			"last_advice":      advice,
			"last_advice_date": at,
			"updated_at":       time.Now(),
		}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertRecord inserts a maintenance record.
func (s *MongoStore) InsertRecord(ctx context.Context, record models.MaintenanceRecord) (*models.MaintenanceRecord, error) {
	if s.Records == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.CreatedAt = time.Now()
	record.UpdatedAt = time.Now()
	if _, err := s.Records.InsertOne(ctx, record); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindRecords returns all of an owner's maintenance records.
func (s *MongoStore) FindRecords(ctx context.Context, ownerID string) ([]models.MaintenanceRecord, error) {
	return s.findRecords(ctx, bson.M{"owner_id": ownerID})
}

// FindRecordsByCar returns the maintenance records for one car.
func (s *MongoStore) FindRecordsByCar(ctx context.Context, ownerID, carID string) ([]models.MaintenanceRecord, error) {
	return s.findRecords(ctx, bson.M{"owner_id": ownerID, "car_id": carID})
}

func (s *MongoStore) findRecords(ctx context.Context, filter bson.M) ([]models.MaintenanceRecord, error) {
	if s.Records == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	cursor, err := s.Records.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := []models.MaintenanceRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// FindRecordByID finds one of the owner's records by id.
func (s *MongoStore) FindRecordByID(ctx context.Context, ownerID, id string) (*models.MaintenanceRecord, error) {
	if s.Records == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	var record models.MaintenanceRecord
	err := s.Records.FindOne(ctx, bson.M{"_id": id, "owner_id": ownerID}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// UpdateRecord replaces a record. Records are edited as a whole.
func (s *MongoStore) UpdateRecord(ctx context.Context, ownerID string, record models.MaintenanceRecord) error {
	if s.Records == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	record.OwnerID = ownerID
	record.UpdatedAt = time.Now()
	result, err := s.Records.UpdateOne(ctx,
		bson.M{"_id": record.ID, "owner_id": ownerID},
		bson.M{"$set": record})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRecord deletes one of the owner's records.
func (s *MongoStore) DeleteRecord(ctx context.Context, ownerID, id string) error {
	if s.Records == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	result, err := s.Records.DeleteOne(ctx, bson.M{"_id": id, "owner_id": ownerID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertTask inserts a DIY task.
func (s *MongoStore) InsertTask(ctx context.Context, task models.DIYTask) (*models.DIYTask, error) {
	if s.Tasks == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.CreatedAt = time.Now()
	if _, err := s.Tasks.InsertOne(ctx, task); err != nil {
		return nil, err
	}
	return &task, nil
}

// FindTasks returns all of an owner's DIY tasks.
func (s *MongoStore) FindTasks(ctx context.Context, ownerID string) ([]models.DIYTask, error) {
	if s.Tasks == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	cursor, err := s.Tasks.Find(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tasks := []models.DIYTask{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// FindTaskByID finds one of the owner's DIY tasks by id.
func (s *MongoStore) FindTaskByID(ctx context.Context, ownerID, id string) (*models.DIYTask, error) {
	if s.Tasks == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	var task models.DIYTask
	err := s.Tasks.FindOne(ctx, bson.M{"_id": id, "owner_id": ownerID}).Decode(&task)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

// UpdateTask replaces a DIY task.
func (s *MongoStore) UpdateTask(ctx context.Context, ownerID string, task models.DIYTask) error {
	if s.Tasks == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	task.OwnerID = ownerID
	result, err := s.Tasks.UpdateOne(ctx,
		bson.M{"_id": task.ID, "owner_id": ownerID},
		bson.M{"$set": task})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTask deletes one of the owner's DIY tasks.
func (s *MongoStore) DeleteTask(ctx context.Context, ownerID, id string) error {
	if s.Tasks == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	result, err := s.Tasks.DeleteOne(ctx, bson.M{"_id": id, "owner_id": ownerID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
