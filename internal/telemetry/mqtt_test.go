package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuutuut/tuutuut-api/internal/db"
	"github.com/tuutuut/tuutuut-api/internal/models"
)

type fakeCarStore struct {
	cars    map[string]models.Car
	updates int
}

func (s *fakeCarStore) InsertCar(ctx context.Context, car models.Car) (*models.Car, error) {
	return nil, nil
}

func (s *fakeCarStore) FindCars(ctx context.Context, ownerID string) ([]models.Car, error) {
	return nil, nil
}

func (s *fakeCarStore) FindCarByID(ctx context.Context, ownerID, id string) (*models.Car, error) {
	car, ok := s.cars[id]
	if !ok || car.OwnerID != ownerID {
		return nil, db.ErrNotFound
	}
	return &car, nil
}

func (s *fakeCarStore) UpdateCar(ctx context.Context, ownerID string, car models.Car) error {
	s.cars[car.ID] = car
	s.updates++
	return nil
}

func (s *fakeCarStore) DeleteCar(ctx context.Context, ownerID, id string) error { return nil }

func (s *fakeCarStore) ReplaceAdvice(ctx context.Context, ownerID, id string, advice []models.MaintenanceSuggestion, at time.Time) error {
	return nil
}

func TestApplyReading_AdvancesOdometer(t *testing.T) {
	store := &fakeCarStore{cars: map[string]models.Car{
		"car-1": {ID: "car-1", OwnerID: "alice", Mileage: 118000},
	}}
	ingestor := NewIngestor(store)

	require.NoError(t, ingestor.ApplyReading(context.Background(), "alice", "car-1", 118250))
	assert.Equal(t, 118250, store.cars["car-1"].Mileage)
	assert.Equal(t, 1, store.updates)
}

func TestApplyReading_IgnoresRollback(t *testing.T) {
	store := &fakeCarStore{cars: map[string]models.Car{
		"car-1": {ID: "car-1", OwnerID: "alice", Mileage: 118000},
	}}
	ingestor := NewIngestor(store)

	// A replayed or out of order reading must not move the odometer back.
	require.NoError(t, ingestor.ApplyReading(context.Background(), "alice", "car-1", 117000))
	assert.Equal(t, 118000, store.cars["car-1"].Mileage)
	assert.Zero(t, store.updates)
}

func TestApplyReading_Errors(t *testing.T) {
	store := &fakeCarStore{cars: map[string]models.Car{}}
	ingestor := NewIngestor(store)

	assert.Error(t, ingestor.ApplyReading(context.Background(), "alice", "car-1", -1))
	assert.ErrorIs(t, ingestor.ApplyReading(context.Background(), "alice", "missing", 100), db.ErrNotFound)
}

func TestParseOdometerTopic(t *testing.T) {
	tests := []struct {
		topic     string
		wantOwner string
		wantCar   string
		wantErr   bool
	}{
		{"tuutuut/alice/car-1/odometer", "alice", "car-1", false},
		{"tuutuut/guest/550e8400-e29b-41d4-a716-446655440000/odometer", "guest", "550e8400-e29b-41d4-a716-446655440000", false},
		{"tuutuut/alice/odometer", "", "", true},
		{"other/alice/car-1/odometer", "", "", true},
		{"tuutuut//car-1/odometer", "", "", true},
		{"tuutuut/alice/car-1/speed", "", "", true},
	}

	for _, tt := range tests {
		owner, car, err := parseOdometerTopic(tt.topic)
		if tt.wantErr {
			assert.Error(t, err, tt.topic)
			continue
		}
		require.NoError(t, err, tt.topic)
		assert.Equal(t, tt.wantOwner, owner)
		assert.Equal(t, tt.wantCar, car)
	}
}
