package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/tuutuut/tuutuut-api/internal/models"
)

func TestConnectMongo_BadURI(t *testing.T) {
	os.Setenv("MONGO_URI", "mongodb://bad:uri")
	client, err := ConnectMongo()
	if err == nil {
		t.Error("expected error for bad URI, got nil")
	}
	if client != nil {
		t.Error("expected nil client on error")
	}
}

func TestMongoStore_NilCollections(t *testing.T) {
	store := &MongoStore{}
	ctx := context.Background()

	if _, err := store.InsertCar(ctx, models.Car{}); err == nil {
		t.Error("expected error when car collection is nil")
	}
	if _, err := store.FindCars(ctx, "owner"); err == nil {
		t.Error("expected error when car collection is nil")
	}
	if err := store.ReplaceAdvice(ctx, "owner", "id", nil, time.Now()); err == nil {
		t.Error("expected error when car collection is nil")
	}
	if _, err := store.InsertRecord(ctx, models.MaintenanceRecord{}); err == nil {
		t.Error("expected error when record collection is nil")
	}
	if _, err := store.InsertTask(ctx, models.DIYTask{}); err == nil {
		t.Error("expected error when task collection is nil")
	}
}

// Integration test (requires running MongoDB)
func TestMongoStore_Integration(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" || uri == "mongodb://bad:uri" {
		t.Skip("MONGO_URI not set, skipping integration test")
		return
	}
	client, err := ConnectMongo()
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
		return
	}
	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "tuutuut"
	}
	store := NewMongoStore(client.Database(dbName))

	car, err := store.InsertCar(context.Background(), models.Car{
		OwnerID: "integration-test",
		Make:    "Volkswagen",
		Model:   "Golf",
		Mileage: 118000,
	})
	if err != nil {
		t.Fatalf("expected insert to succeed, got error: %v", err)
	}
	if err := store.DeleteCar(context.Background(), "integration-test", car.ID); err != nil {
		t.Errorf("cleanup failed: %v", err)
	}
}
